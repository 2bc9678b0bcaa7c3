package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"autopress/internal/orchestrator"
)

var publishNoFallback bool

var publishCmd = &cobra.Command{
	Use:   "publish [request.yaml]",
	Short: "Publish one prepared article through the CMS back office",
	Long: `Reads a publish request (article, images, metadata, target site and
credentials) from a YAML file and runs the five publish phases against the
target site. Prints the result, including the audit trail, as JSON.

Example:
  autopress publish article.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := loadRequest(args[0])
	if err != nil {
		return err
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	logger.Info("Publishing article",
		zap.String("title", req.Article.Title),
		zap.String("site", req.BaseURL))

	result := app.publisher.Publish(ctx, req)
	printResult(result)
	if !result.Success {
		return fmt.Errorf("publish failed: %s", result.ErrorDetail)
	}
	return nil
}

func loadRequest(path string) (*orchestrator.PublishRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request %s: %w", path, err)
	}
	var req orchestrator.PublishRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request %s: %w", path, err)
	}
	return &req, nil
}

func printResult(result orchestrator.PublishResult) {
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("task %s: success=%t url=%s\n", result.TaskID, result.Success, result.PublishedURL)
		return
	}
	fmt.Println(string(out))
}
