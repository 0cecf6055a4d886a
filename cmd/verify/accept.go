package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"verify/internal/config"
	"verify/internal/filenames"
	"verify/internal/storage"
)

var (
	acceptDir    string
	acceptPrefix string
)

var acceptCmd = &cobra.Command{
	Use:   "accept [DIR...]",
	Short: "Promote received files to verified",
	Long: `Rename every received file to its verified name, replacing the previous
verified file. Accepted files are recorded in the results ledger when it is
enabled.

Examples:
  verify accept
  verify accept --prefix TestOrders
  verify accept ./internal/orders/testdata`,
	RunE: runAccept,
}

func init() {
	acceptCmd.Flags().StringVar(&acceptDir, "dir", "", "Snapshot directory (default: configured directory under the project root)")
	acceptCmd.Flags().StringVar(&acceptPrefix, "prefix", "", "Only accept files of this test")
	rootCmd.AddCommand(acceptCmd)
}

func runAccept(cmd *cobra.Command, args []string) error {
	root, cfg, err := loadProject()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)

	dirs, err := snapshotDirs(acceptDir, args)
	if err != nil {
		return err
	}
	received, err := filenames.FindAll(cmd.Context(), dirs, acceptPrefix, filenames.Received)
	if err != nil {
		return err
	}

	resp := &AcceptResponseCLI{Accepted: []AcceptedFileCLI{}}
	for _, from := range received {
		to := filenames.Swap(from, filenames.Received, filenames.Verified)
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("failed to accept %s: %w", from, err)
		}
		logger.Debug("Accepted snapshot", "from", from, "to", to)
		resp.Accepted = append(resp.Accepted, AcceptedFileCLI{From: from, To: to})
	}

	if len(resp.Accepted) > 0 {
		recordAccepted(root, cfg, logger, resp.Accepted)
	}
	return printResponse(cmd, resp)
}

// recordAccepted stores accepted files in the ledger. Ledger errors are
// logged and do not fail the command.
func recordAccepted(root string, cfg *config.Config, logger *slog.Logger, accepted []AcceptedFileCLI) {
	if !cfg.Ledger.Enabled {
		return
	}
	db, err := storage.Open(cfg.LedgerPath(root), logger)
	if err != nil {
		logger.Warn("Failed to open results ledger", "error", err)
		return
	}
	defer db.Close()

	ledger := storage.NewLedger(db)
	run, err := ledger.StartRun(root)
	if err != nil {
		logger.Warn("Failed to start ledger run", "error", err)
		return
	}
	for _, f := range accepted {
		file := f.To
		if rel, err := filepath.Rel(root, file); err == nil {
			file = filepath.ToSlash(rel)
		}
		err := ledger.Record(&storage.Result{RunID: run.ID, File: file, Status: storage.StatusAccepted})
		if err != nil {
			logger.Warn("Failed to record result", "file", file, "error", err)
		}
	}
}
