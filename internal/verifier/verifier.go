// Package verifier compares rendered values against verified snapshot files.
//
// A Verifier is created once per project and shared by tests. Every call to
// Verify starts a fresh token session, renders the value into one or more
// targets, scrubs text targets and compares each against its verified file.
// Mismatching output is written next to the verified file as a received file.
package verifier

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"verify/internal/config"
	"verify/internal/contract"
	verifyerrors "verify/internal/errors"
	"verify/internal/scrub"
	"verify/internal/slogutil"
	"verify/internal/storage"
	"verify/internal/typename"
)

// Options configures a Verifier.
type Options struct {
	// Root is the project root holding the .verify directory.
	// Empty means the current directory.
	Root string
	// Dir overrides the configured snapshot directory. Relative paths are
	// resolved against the working directory.
	Dir string
	// Config is loaded from Root when nil.
	Config *config.Config
	// Rules is the base rule set. The rules file is applied on top of it.
	Rules contract.RuleSet
	// Types resolves type names in the rules file and typename.Ref map keys.
	Types *typename.Registry
	// Logger defaults to a line logger on stderr at the configured level.
	Logger *slog.Logger
	// Update accepts received output as verified.
	Update bool
}

// Verifier is safe for concurrent use.
type Verifier struct {
	root      string
	dir       string
	cfg       *config.Config
	rules     contract.RuleSet
	scrubbers []scrub.Scrubber
	logger    *slog.Logger
	update    bool

	db      *storage.DB
	ledger  *storage.Ledger
	runOnce sync.Once
	run     *storage.Run
	runErr  error
}

// New creates a Verifier from opts, loading configuration and the rules file
// from the project root.
func New(opts Options) (*Verifier, error) {
	root := opts.Root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.LoadConfig(root)
		if err != nil {
			return nil, verifyerrors.Wrap(verifyerrors.ConfigInvalid, "failed to load configuration", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, verifyerrors.Wrap(verifyerrors.ConfigInvalid, "invalid configuration", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slogutil.New(os.Stderr, cfg.Logging.Format, slogutil.LevelFromString(cfg.Logging.Level))
	}

	rules := opts.Rules
	rules.IgnoreEmptyCollections = rules.IgnoreEmptyCollections || cfg.Rules.IgnoreEmptyCollections
	rules.IgnoreFalse = rules.IgnoreFalse || cfg.Rules.IgnoreFalse
	rules.IncludeObsoletes = rules.IncludeObsoletes || cfg.Rules.IncludeObsoletes
	rules.Types = opts.Types

	declared, err := config.LoadRules(root, cfg)
	if err != nil {
		return nil, verifyerrors.Wrap(verifyerrors.ConfigInvalid, "failed to load rules file", err)
	}
	registry := opts.Types
	if registry == nil {
		registry = typename.NewRegistry()
	}
	if err := declared.Apply(registry, &rules); err != nil {
		return nil, err
	}

	dir := opts.Dir
	if dir == "" {
		dir = cfg.Directory
	}

	v := &Verifier{
		root:      root,
		dir:       dir,
		cfg:       cfg,
		rules:     rules,
		scrubbers: declared.Scrubbers(),
		logger:    logger,
		update:    opts.Update,
	}

	if cfg.Ledger.Enabled {
		db, err := storage.Open(cfg.LedgerPath(root), logger)
		if err != nil {
			return nil, err
		}
		v.db = db
		v.ledger = storage.NewLedger(db)
	}

	logger.Debug("Verifier ready",
		"root", root,
		"dir", dir,
		"ledger", cfg.Ledger.Enabled,
		"update", opts.Update,
	)
	return v, nil
}

// Dir returns the snapshot directory.
func (v *Verifier) Dir() string {
	return v.dir
}

// Root returns the project root.
func (v *Verifier) Root() string {
	return v.root
}

// Close releases the results ledger.
func (v *Verifier) Close() error {
	if v.db == nil {
		return nil
	}
	return v.db.Close()
}

// record stores one outcome in the ledger. Ledger failures are logged and
// never fail a verification.
func (v *Verifier) record(test string, f FileResult) {
	if v.ledger == nil {
		return
	}
	v.runOnce.Do(func() {
		v.run, v.runErr = v.ledger.StartRun(v.root)
	})
	if v.runErr != nil {
		v.logger.Warn("Failed to start ledger run", "error", v.runErr)
		return
	}

	file := f.Verified
	if rel, err := filepath.Rel(v.root, file); err == nil {
		file = filepath.ToSlash(rel)
	}
	err := v.ledger.Record(&storage.Result{
		RunID:  v.run.ID,
		Test:   test,
		File:   file,
		Status: f.Status,
		Detail: f.Diff,
	})
	if err != nil {
		v.logger.Warn("Failed to record result", "file", file, "error", err)
	}
}
