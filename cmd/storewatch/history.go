package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/caevv/storewatch/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List report jobs recorded in the store",
	Long: `List persisted report jobs, newest first.

Example:
  storewatch history --limit 20`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of jobs to list, 0 for all")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	st, err := store.NewStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	records, err := st.ListJobs(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No report jobs recorded")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), historyTable(records))
	fmt.Fprintf(cmd.OutOrStdout(), "\nTotal jobs: %d\n", len(records))
	return nil
}

func historyTable(records []*store.JobRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("REPORT ID", "STATE", "CREATED", "DURATION", "STORES", "SKIPPED", "ERROR")
	for _, rec := range records {
		duration := "-"
		if !rec.IsRunning() {
			duration = rec.Duration().Round(time.Millisecond).String()
		}
		t.Row(
			rec.JobID,
			rec.State,
			rec.CreatedAt.Format("2006-01-02 15:04:05"),
			duration,
			strconv.Itoa(rec.Stores),
			strconv.Itoa(rec.Skipped),
			truncate(rec.Error, 40),
		)
	}
	return t.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
