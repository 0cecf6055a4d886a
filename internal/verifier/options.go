package verifier

import (
	"time"

	"github.com/google/uuid"

	"verify/internal/counter"
	"verify/internal/scrub"
)

// Option adjusts a single verification.
type Option func(*settings)

type settings struct {
	extension  string
	dir        string
	test       string
	autoVerify bool
	scrubbers  []scrub.Scrubber
	layouts    []string
	named      []func(*counter.Counter) error
}

// WithExtension sets the extension of snapshots rendered from values and
// strings. Values default to the configured extension, strings to "txt" and
// bytes and readers to "bin".
func WithExtension(ext string) Option {
	return func(s *settings) { s.extension = ext }
}

// WithDirectory writes the snapshot into dir instead of the verifier's
// snapshot directory.
func WithDirectory(dir string) Option {
	return func(s *settings) { s.dir = dir }
}

// WithScrubber adds a text scrubber. Scrubbers run after the built-in ones,
// in the order given.
func WithScrubber(fn scrub.Scrubber) Option {
	return func(s *settings) { s.scrubbers = append(s.scrubbers, fn) }
}

// WithDateTimeLayout replaces timestamps embedded in text that parse with
// layout.
func WithDateTimeLayout(layout string) Option {
	return func(s *settings) { s.layouts = append(s.layouts, layout) }
}

// WithNamedGuid renders id as name instead of a numbered token.
func WithNamedGuid(id uuid.UUID, name string) Option {
	return withNamed(func(c *counter.Counter) error { return c.AddNamedGuid(id, name) })
}

// WithNamedDateTime renders t as name instead of a numbered token.
func WithNamedDateTime(t time.Time, name string) Option {
	return withNamed(func(c *counter.Counter) error {
		if scrub.IsUTC(t) {
			return c.AddNamedDateTime(t, name)
		}
		return c.AddNamedDateTimeOffset(t, name)
	})
}

// WithNamedDate renders d as name instead of a numbered token.
func WithNamedDate(d counter.Date, name string) Option {
	return withNamed(func(c *counter.Counter) error { return c.AddNamedDate(d, name) })
}

// AutoVerify accepts mismatching output for this call only.
func AutoVerify() Option {
	return func(s *settings) { s.autoVerify = true }
}

// withTest sets the test name recorded in the ledger.
func withTest(name string) Option {
	return func(s *settings) { s.test = name }
}

func withNamed(fn func(*counter.Counter) error) Option {
	return func(s *settings) { s.named = append(s.named, fn) }
}
