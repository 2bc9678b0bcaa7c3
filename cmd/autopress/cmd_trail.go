package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"autopress/internal/audit"
	"autopress/internal/config"
)

var trailCmd = &cobra.Command{
	Use:   "trail [task-id]",
	Short: "Show the audit trail for a past task",
	Long: `Reads the audit journal and prints the ordered event list plus summary
for a task. Without arguments, lists known task IDs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTrail,
}

func runTrail(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Audit.JournalPath == "" {
		return fmt.Errorf("no audit journal configured")
	}
	journal, err := audit.OpenJournal(cfg.Audit.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	if len(args) == 0 {
		tasks, err := journal.Tasks()
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("no tasks recorded")
			return nil
		}
		for _, id := range tasks {
			fmt.Println(id)
		}
		return nil
	}

	trail, err := journal.Trail(args[0])
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(trail, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
