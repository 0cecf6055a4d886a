package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"verify/internal/config"
	verifyerrors "verify/internal/errors"
	"verify/internal/slogutil"
	"verify/internal/verifier"
	"verify/internal/version"
)

var (
	// formatFlag is the global --format flag value
	formatFlag string
	// configFlag is the project root holding .verify
	configFlag string
	verbosity  int
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "verify",
	Short: "verify - snapshot file management",
	Long: `verify manages the snapshot files written by verifier tests.

Received files hold output that did not match its verified file. Use
'verify accept' to promote them, 'verify clean' to discard them, and
'verify status' to list recent failures recorded in the results ledger.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("verify version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", string(FormatHuman), "Output format (json, human)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Project root holding .verify (default: nearest ancestor with .verify or go.mod)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
}

// projectRoot resolves the --config flag.
func projectRoot() (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", verifyerrors.Wrap(verifyerrors.InternalError, "failed to get current directory", err)
	}
	return verifier.FindRoot(cwd), nil
}

// loadProject loads and validates the configuration of the project root.
func loadProject() (string, *config.Config, error) {
	root, err := projectRoot()
	if err != nil {
		return "", nil, err
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return "", nil, verifyerrors.Wrap(verifyerrors.ConfigInvalid, "failed to load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, verifyerrors.Wrap(verifyerrors.ConfigInvalid, "invalid configuration", err)
	}
	return root, cfg, nil
}

// newLogger creates a stderr logger honoring the configured level and the
// -v and -q flags.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	base := slog.LevelWarn
	logFormat := string(FormatHuman)
	if cfg != nil {
		base = slogutil.LevelFromString(cfg.Logging.Level)
		logFormat = cfg.Logging.Format
	}
	return slogutil.New(w, logFormat, slogutil.LevelFromVerbosity(base, verbosity, quiet))
}

// outputFormat validates the --format flag.
func outputFormat() (OutputFormat, error) {
	switch f := OutputFormat(formatFlag); f {
	case FormatJSON, FormatHuman:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", formatFlag)
	}
}

// printResponse writes resp to the command output in the selected format.
func printResponse(cmd *cobra.Command, resp interface{}) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}
	text, err := FormatResponse(resp, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
