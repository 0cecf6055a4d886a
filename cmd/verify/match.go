package main

import (
	"github.com/spf13/cobra"

	"verify/internal/filenames"
)

var (
	matchPrefix string
	matchSuffix string
)

var matchCmd = &cobra.Command{
	Use:   "match --prefix PREFIX PATH...",
	Short: "Check which paths belong to a test",
	Long: `Decide for each path whether it names a snapshot file of the test
identified by PREFIX. Numbered targets (PREFIX.00.name.verified.txt) belong to
the test; files of other tests sharing the prefix do not.

Examples:
  verify match --prefix TestOrders testdata/TestOrders.verified.txt
  verify match --prefix TestOrders --suffix .received a.received.txt b.received.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchPrefix, "prefix", "", "Test prefix (required)")
	matchCmd.Flags().StringVar(&matchSuffix, "suffix", filenames.Verified, "Suffix token (.verified or .received)")
	_ = matchCmd.MarkFlagRequired("prefix")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	resp := &MatchResponseCLI{
		Prefix:  matchPrefix,
		Suffix:  matchSuffix,
		Results: make([]MatchResultCLI, 0, len(args)),
	}
	for _, path := range args {
		included := filenames.ShouldInclude(matchPrefix, matchSuffix, path)
		if included {
			resp.Included++
		}
		resp.Results = append(resp.Results, MatchResultCLI{Path: path, Included: included})
	}
	return printResponse(cmd, resp)
}
