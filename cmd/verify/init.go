package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"verify/internal/config"
	verifyerrors "verify/internal/errors"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize verify configuration",
	Long:  "Creates a .verify/ directory with default configuration in the project root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	root := configFlag
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return verifyerrors.Wrap(verifyerrors.InternalError, "failed to get current directory", err)
		}
		root = cwd
	}

	configPath := filepath.Join(root, config.Dir, "config.json")
	out := cmd.OutOrStdout()
	if _, err := os.Stat(configPath); err == nil && !initForce {
		// Already initialized is success
		fmt.Fprintln(out, "verify already initialized.")
		fmt.Fprintf(out, "Configuration at: %s\n", configPath)
		fmt.Fprintln(out, "\nRun 'verify init --force' to reinitialize.")
		return nil
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return verifyerrors.Wrap(verifyerrors.InternalError, "failed to write configuration", err)
	}
	fmt.Fprintf(out, "Initialized verify configuration at %s\n", configPath)
	return nil
}
