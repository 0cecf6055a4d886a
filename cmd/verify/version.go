package main

import (
	"github.com/spf13/cobra"

	"verify/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, commit := version.Resolve()
		return printResponse(cmd, &VersionResponseCLI{
			Version:   v,
			Commit:    commit,
			BuildDate: version.BuildDate,
			Full:      version.Full(),
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
