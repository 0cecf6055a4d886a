package verifier

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"verify/internal/config"
)

// update controls whether received output replaces verified files.
// Use: go test ./... -update
var update = flag.Bool("update", false, "accept received snapshots as verified")

var (
	defaultOnce     sync.Once
	defaultVerifier *Verifier
	defaultErr      error
)

// Default returns the verifier shared by the tests of the running package.
// The project root is found with FindRoot from the working directory and
// snapshots are stored in the configured directory of the package under test.
func Default() (*Verifier, error) {
	defaultOnce.Do(func() {
		wd, err := os.Getwd()
		if err != nil {
			defaultErr = err
			return
		}
		defaultVerifier, defaultErr = New(Options{Root: FindRoot(wd), Update: *update})
	})
	return defaultVerifier, defaultErr
}

// FindRoot returns the nearest ancestor of dir holding a .verify directory or
// a go.mod file, or dir itself when there is none.
func FindRoot(dir string) string {
	for current := dir; ; {
		if exists(filepath.Join(current, config.Dir)) || exists(filepath.Join(current, "go.mod")) {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir
		}
		current = parent
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Verify compares value with the snapshot of the running test using the
// Default verifier. Failures are reported through t.
func Verify(t testing.TB, value any, opts ...Option) {
	t.Helper()

	v, err := Default()
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	v.Check(t, value, opts...)
}

// Check compares value with the snapshot named after the running test.
func (v *Verifier) Check(t testing.TB, value any, opts ...Option) {
	t.Helper()

	opts = append([]Option{withTest(t.Name())}, opts...)
	if _, err := v.Verify(context.Background(), TestPrefix(t.Name()), value, opts...); err != nil {
		t.Error(err)
	}
}

var unsafeChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_", " ", "_",
	".", "_",
)

// TestPrefix turns a test name into a file name prefix. Subtest separators
// and characters that are not allowed in file names become underscores.
// Dots are replaced too, since ".NN" after a prefix marks a target of the
// same test.
func TestPrefix(name string) string {
	return unsafeChars.Replace(name)
}
