package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"verify/internal/filenames"
)

var (
	findDir    string
	findPrefix string
	findSuffix string
)

var findCmd = &cobra.Command{
	Use:   "find [DIR...]",
	Short: "List snapshot files",
	Long: `List the snapshot files in one or more directories. Without a prefix every
file carrying the suffix token is listed.

Examples:
  verify find
  verify find --prefix TestOrders
  verify find --suffix .received ./internal/a/testdata ./internal/b/testdata`,
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&findDir, "dir", "", "Snapshot directory (default: configured directory under the project root)")
	findCmd.Flags().StringVar(&findPrefix, "prefix", "", "Test prefix")
	findCmd.Flags().StringVar(&findSuffix, "suffix", filenames.Verified, "Suffix token (.verified or .received)")
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	dirs, err := snapshotDirs(findDir, args)
	if err != nil {
		return err
	}

	files, err := filenames.FindAll(cmd.Context(), dirs, findPrefix, findSuffix)
	if err != nil {
		return err
	}
	if files == nil {
		files = []string{}
	}
	return printResponse(cmd, &FindResponseCLI{
		Prefix: findPrefix,
		Suffix: findSuffix,
		Dirs:   dirs,
		Files:  files,
	})
}

// snapshotDirs returns the positional directories, else the --dir flag, else
// the configured snapshot directory of the project.
func snapshotDirs(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if dir != "" {
		return []string{dir}, nil
	}
	root, cfg, err := loadProject()
	if err != nil {
		return nil, err
	}
	if filepath.IsAbs(cfg.Directory) {
		return []string{cfg.Directory}, nil
	}
	return []string{filepath.Join(root, cfg.Directory)}, nil
}
