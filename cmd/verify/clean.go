package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"verify/internal/filenames"
)

var (
	cleanDir    string
	cleanPrefix string
)

var cleanCmd = &cobra.Command{
	Use:   "clean [DIR...]",
	Short: "Delete received files",
	Long: `Delete received files, keeping verified files untouched.

Examples:
  verify clean
  verify clean --prefix TestOrders --dir ./internal/orders/testdata`,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&cleanDir, "dir", "", "Snapshot directory (default: configured directory under the project root)")
	cleanCmd.Flags().StringVar(&cleanPrefix, "prefix", "", "Only delete files of this test")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	dirs, err := snapshotDirs(cleanDir, args)
	if err != nil {
		return err
	}
	received, err := filenames.FindAll(cmd.Context(), dirs, cleanPrefix, filenames.Received)
	if err != nil {
		return err
	}

	resp := &CleanResponseCLI{Removed: []string{}}
	for _, path := range received {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		resp.Removed = append(resp.Removed, path)
	}
	return printResponse(cmd, resp)
}
