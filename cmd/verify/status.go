package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"verify/internal/storage"
)

var (
	statusLimit int
	statusAll   bool
	statusPrune time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent snapshot failures",
	Long: `List recent results from the results ledger. By default only missing,
mismatching and failed snapshots are shown.

Examples:
  verify status
  verify status --all --limit 50
  verify status --prune 720h`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "Maximum results to return")
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "Include matched and accepted results")
	statusCmd.Flags().DurationVar(&statusPrune, "prune", 0, "Delete runs older than this before listing")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	resp := &StatusResponseCLI{LedgerEnabled: cfg.Ledger.Enabled, Results: []StatusResultCLI{}}
	path := cfg.LedgerPath(root)
	if !cfg.Ledger.Enabled {
		return printResponse(cmd, resp)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return printResponse(cmd, resp)
	}

	db, err := storage.Open(path, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	ledger := storage.NewLedger(db)

	if statusPrune > 0 {
		removed, err := ledger.Prune(time.Now().Add(-statusPrune))
		if err != nil {
			return err
		}
		logger.Info("Pruned ledger runs", "removed", removed)
	}

	var statuses []storage.Status
	if !statusAll {
		statuses = []storage.Status{storage.StatusMismatch, storage.StatusMissing, storage.StatusFailed}
	}
	results, err := ledger.Recent(statusLimit, statuses...)
	if err != nil {
		return err
	}
	for _, r := range results {
		resp.Results = append(resp.Results, StatusResultCLI{
			RunID:      r.RunID,
			Test:       r.Test,
			File:       r.File,
			Status:     string(r.Status),
			Detail:     r.Detail,
			RecordedAt: r.RecordedAt.Format(time.RFC3339),
		})
	}
	return printResponse(cmd, resp)
}
