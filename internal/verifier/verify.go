package verifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"verify/internal/counter"
	verifyerrors "verify/internal/errors"
	"verify/internal/filenames"
	"verify/internal/output"
	"verify/internal/scrub"
	"verify/internal/storage"
)

// FileResult is the outcome for one target.
type FileResult struct {
	Verified string         `json:"verified"`
	Received string         `json:"received"`
	Status   storage.Status `json:"status"`
	Diff     string         `json:"diff,omitempty"`
}

// Outcome is the result of one verification.
type Outcome struct {
	Files []FileResult `json:"files"`
	// Stale lists verified files of the same prefix that no target produced.
	Stale []string `json:"stale,omitempty"`
}

// Failed returns the files that are missing or mismatching.
func (o *Outcome) Failed() []FileResult {
	var failed []FileResult
	for _, f := range o.Files {
		if f.Status == storage.StatusMismatch || f.Status == storage.StatusMissing {
			failed = append(failed, f)
		}
	}
	return failed
}

// Verify renders value and compares it with the verified files named by
// prefix. It returns the outcome together with a SNAPSHOT_MISMATCH or
// SNAPSHOT_MISSING error when any file failed. When updating or
// auto-verifying, failing output is accepted instead.
func (v *Verifier) Verify(ctx context.Context, prefix string, value any, opts ...Option) (*Outcome, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, verifyerrors.New(verifyerrors.EmptyName, "snapshot prefix must not be empty")
	}

	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	c := counter.New()
	for _, register := range s.named {
		if err := register(c); err != nil {
			return nil, err
		}
	}
	shared := scrub.NewShared(c, scrub.Options{
		ScrubGuids:     v.cfg.Scrub.Guids,
		ScrubDateTimes: v.cfg.Scrub.DateTimes,
	})

	targets, err := v.targets(value, s, shared)
	if err != nil {
		return nil, err
	}

	dir := orDefault(s.dir, v.dir)
	accept := v.update || v.cfg.AutoVerify || s.autoVerify
	test := orDefault(s.test, prefix)
	logger := v.logger.With("test", test)

	out := &Outcome{}
	produced := make(map[string]bool, 2*len(targets))
	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		qualifier := ""
		if len(targets) > 1 {
			qualifier = filenames.Qualifier(i, qualifierName(t))
		}
		f := FileResult{
			Verified: filenames.FilePath(dir, prefix, qualifier, filenames.Verified, t.Extension()),
			Received: filenames.FilePath(dir, prefix, qualifier, filenames.Received, t.Extension()),
		}
		produced[f.Verified] = true
		produced[f.Received] = true

		data, text, err := v.content(t, s, shared)
		if err != nil {
			return nil, err
		}
		if err := v.compare(&f, data, text, accept); err != nil {
			v.record(test, FileResult{Verified: f.Verified, Status: storage.StatusFailed, Diff: err.Error()})
			return nil, err
		}

		switch f.Status {
		case storage.StatusMatched:
			logger.Debug("Snapshot matched", "file", f.Verified)
		case storage.StatusAccepted:
			logger.Info("Snapshot accepted", "file", f.Verified)
		default:
			logger.Info("Snapshot failed", "file", f.Verified, "status", string(f.Status))
		}
		v.record(test, f)
		out.Files = append(out.Files, f)
	}

	stale, err := v.sweep(dir, prefix, produced, accept)
	if err != nil {
		return nil, err
	}
	out.Stale = stale
	if len(stale) > 0 && !accept {
		logger.Warn("Stale verified files", "files", strings.Join(stale, ", "))
	}

	return out, failure(dir, out)
}

// compare sets f's status and writes or removes the files on disk.
func (v *Verifier) compare(f *FileResult, received []byte, text, accept bool) error {
	verified, err := os.ReadFile(f.Verified)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.Status = storage.StatusMissing
	case err != nil:
		return verifyerrors.Wrap(verifyerrors.InternalError, "failed to read verified file", err)
	case text:
		if ok, diff := output.CompareSnapshots(verified, received); ok {
			f.Status = storage.StatusMatched
		} else {
			f.Status = storage.StatusMismatch
			f.Diff = diff
		}
	case bytes.Equal(verified, received):
		f.Status = storage.StatusMatched
	default:
		f.Status = storage.StatusMismatch
		f.Diff = fmt.Sprintf("binary content differs: %d bytes verified, %d bytes received", len(verified), len(received))
	}

	if f.Status != storage.StatusMatched {
		if !accept {
			return writeFile(f.Received, received)
		}
		if err := writeFile(f.Verified, received); err != nil {
			return err
		}
		f.Status = storage.StatusAccepted
	}
	return removeFile(f.Received)
}

// sweep removes received files the current targets did not produce and
// returns verified files they did not produce. Stale verified files are
// removed when accepting.
func (v *Verifier) sweep(dir, prefix string, produced map[string]bool, accept bool) ([]string, error) {
	received, err := filenames.Find(dir, prefix, filenames.Received)
	if err != nil {
		return nil, err
	}
	for _, path := range received {
		if !produced[path] {
			if err := removeFile(path); err != nil {
				return nil, err
			}
		}
	}

	verified, err := filenames.Find(dir, prefix, filenames.Verified)
	if err != nil {
		return nil, err
	}
	var stale []string
	for _, path := range verified {
		if produced[path] {
			continue
		}
		if accept {
			if err := removeFile(path); err != nil {
				return nil, err
			}
			v.logger.Info("Removed stale verified file", "file", path)
			continue
		}
		stale = append(stale, path)
	}
	return stale, nil
}

func failure(dir string, out *Outcome) error {
	failed := out.Failed()
	if len(failed) == 0 {
		return nil
	}

	code := verifyerrors.SnapshotMissing
	var b strings.Builder
	for _, f := range failed {
		switch f.Status {
		case storage.StatusMissing:
			fmt.Fprintf(&b, "missing verified file %s; received output written to %s\n", f.Verified, f.Received)
		default:
			code = verifyerrors.SnapshotMismatch
			fmt.Fprintf(&b, "%s does not match %s:\n%s\n", f.Received, f.Verified, f.Diff)
		}
	}

	err := verifyerrors.New(code, strings.TrimRight(b.String(), "\n")).WithDetails(failed)
	fixes := make([]verifyerrors.FixAction, len(err.SuggestedFixes))
	for i, fix := range err.SuggestedFixes {
		fix.Command = strings.ReplaceAll(fix.Command, "${snapshot_dir}", dir)
		fixes[i] = fix
	}
	err.SuggestedFixes = fixes
	return err
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
