package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"autopress/internal/batch"
	"autopress/internal/orchestrator"
)

var batchConcurrency int

var batchCmd = &cobra.Command{
	Use:   "batch [requests.yaml]",
	Short: "Publish a batch of independent articles with bounded concurrency",
	Long: `Reads a YAML list of publish requests and runs them concurrently, each
with its own browser session and driver pair. One task failing never aborts
the others; the exit status is non-zero if any task failed.

Example:
  autopress batch monday-run.yaml --concurrency 3`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read batch file %s: %w", args[0], err)
	}
	var reqs []*orchestrator.PublishRequest
	if err := yaml.Unmarshal(data, &reqs); err != nil {
		return fmt.Errorf("parse batch file %s: %w", args[0], err)
	}
	if len(reqs) == 0 {
		return fmt.Errorf("batch file %s holds no requests", args[0])
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	logger.Info("Running batch",
		zap.Int("tasks", len(reqs)),
		zap.Int("concurrency", batchConcurrency))

	results := batch.New(app.publisher, batchConcurrency).Run(ctx, reqs)

	failed := 0
	for i, result := range results {
		status := "ok"
		if !result.Success {
			status = "FAILED: " + result.ErrorDetail
			failed++
		}
		fmt.Printf("%2d  %-40s %s  %s\n", i+1, reqs[i].Article.Title, result.TaskID, status)
		if result.PublishedURL != "" {
			fmt.Printf("    %s\n", result.PublishedURL)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tasks failed", failed, len(results))
	}
	return nil
}
