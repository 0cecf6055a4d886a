// Package filenames names snapshot files and decides which files on disk
// belong to a given test.
//
// Snapshot files are named <prefix>[<qualifier>]<suffix>.<ext>, where suffix
// is Verified or Received and the optional qualifier distinguishes the
// targets of one test: ".NN" or ".NN.name".
package filenames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// Verified marks approved reference files.
	Verified = ".verified"
	// Received marks output that did not match its verified file.
	Received = ".received"
)

// ShouldInclude reports whether path names a file with the given suffix
// token that belongs to the test identified by prefix. Directories are
// ignored; both '/' and '\' separate them.
//
// After the prefix the file name must either continue with the suffix
// directly, or with a qualifier that starts with '.' and a digit. Any other
// continuation belongs to a different test whose name shares the prefix.
func ShouldInclude(prefix, suffix, path string) bool {
	rest, ok := strings.CutPrefix(base(path), prefix)
	if !ok {
		return false
	}
	qualifier, _, found := strings.Cut(rest, suffix)
	if !found {
		return false
	}
	if qualifier == "" {
		return true
	}
	return len(qualifier) > 1 && qualifier[0] == '.' && isDigit(qualifier[1])
}

// Qualifier formats the qualifier of the index-th target, with an optional
// target name.
func Qualifier(index int, name string) string {
	if name == "" {
		return fmt.Sprintf(".%02d", index)
	}
	return fmt.Sprintf(".%02d.%s", index, name)
}

// FilePath joins the parts of a snapshot file name.
func FilePath(dir, prefix, qualifier, suffix, ext string) string {
	return filepath.Join(dir, prefix+qualifier+suffix+"."+ext)
}

// Swap replaces the suffix token from with to in path's file name.
// The path is returned unchanged when the file name has no such token.
func Swap(path, from, to string) string {
	name := base(path)
	i := strings.LastIndex(name, from+".")
	if i < 0 {
		return path
	}
	return path[:len(path)-len(name)] + name[:i] + to + name[i+len(from):]
}

// HasSuffix reports whether path's file name carries the suffix token.
func HasSuffix(path, suffix string) bool {
	return strings.Contains(base(path), suffix+".")
}

// Find lists the files in dir that belong to prefix, sorted by name.
// A missing directory has no files. An empty prefix matches every file
// carrying the suffix token.
func Find(dir, prefix, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if prefix == "" && !HasSuffix(name, suffix) {
			continue
		}
		if prefix != "" && !ShouldInclude(prefix, suffix, name) {
			continue
		}
		matches = append(matches, filepath.Join(dir, name))
	}
	return matches, nil
}

// FindAll runs Find over several directories concurrently. Results keep the
// order of dirs.
func FindAll(ctx context.Context, dirs []string, prefix, suffix string) ([]string, error) {
	results := make([][]string, len(dirs))

	g, gCtx := errgroup.WithContext(ctx)
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			found, err := Find(dir, prefix, suffix)
			if err != nil {
				return err
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []string
	for _, found := range results {
		all = append(all, found...)
	}
	return all, nil
}

func base(path string) string {
	return path[strings.LastIndexAny(path, `/\`)+1:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
