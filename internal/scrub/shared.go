// Package scrub normalizes identifiers, timestamps, and paths into stable
// tokens so that snapshots don't change between runs.
package scrub

import (
	"time"

	"github.com/google/uuid"

	"verify/internal/counter"
)

// dateTimeLayouts are tried in order when parsing a timestamp from text.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123Z,
	time.RFC1123,
}

// Shared converts identifier and timestamp text into counter tokens.
// It is safe for concurrent use; the Counter carries the shared state.
type Shared struct {
	counter        *counter.Counter
	scrubGuids     bool
	scrubDateTimes bool
}

// Options toggles which value kinds Shared rewrites.
type Options struct {
	ScrubGuids     bool
	ScrubDateTimes bool
}

// DefaultOptions scrubs both identifiers and timestamps.
func DefaultOptions() Options {
	return Options{ScrubGuids: true, ScrubDateTimes: true}
}

// NewShared creates a scrubber over c. A nil counter gets a fresh session.
func NewShared(c *counter.Counter, opts Options) *Shared {
	if c == nil {
		c = counter.New()
	}
	return &Shared{
		counter:        c,
		scrubGuids:     opts.ScrubGuids,
		scrubDateTimes: opts.ScrubDateTimes,
	}
}

// Counter returns the session counter.
func (s *Shared) Counter() *counter.Counter {
	return s.counter
}

// TryNormalizeIdentifier replaces a UUID string with its token.
func (s *Shared) TryNormalizeIdentifier(text string) (string, bool) {
	if !s.scrubGuids {
		return "", false
	}
	id, err := uuid.Parse(text)
	if err != nil {
		return "", false
	}
	return s.Guid(id), true
}

// TryNormalizeDateTime replaces a timestamp string with a DateTime token.
func (s *Shared) TryNormalizeDateTime(text string) (string, bool) {
	if !s.scrubDateTimes {
		return "", false
	}
	t, ok := parseDateTime(text)
	if !ok {
		return "", false
	}
	return s.counter.NextDateTimeString(t), true
}

// TryNormalizeDateTimeWithOffset replaces a zoned timestamp string with a
// DateTimeOffset token.
func (s *Shared) TryNormalizeDateTimeWithOffset(text string) (string, bool) {
	if !s.scrubDateTimes {
		return "", false
	}
	t, ok := parseDateTime(text)
	if !ok {
		return "", false
	}
	return s.counter.NextDateTimeOffsetString(t), true
}

// Guid returns the token for id, or its canonical string when identifiers
// are not scrubbed.
func (s *Shared) Guid(id uuid.UUID) string {
	if !s.scrubGuids {
		return id.String()
	}
	return s.counter.NextGuidString(id)
}

// DateTime returns the token for t, or t in RFC 3339 form when timestamps are
// not scrubbed. UTC values map to DateTime tokens, zoned values to
// DateTimeOffset tokens.
func (s *Shared) DateTime(t time.Time) string {
	if !s.scrubDateTimes {
		return t.Format(time.RFC3339Nano)
	}
	if IsUTC(t) {
		return s.counter.NextDateTimeString(t)
	}
	return s.counter.NextDateTimeOffsetString(t)
}

// Date returns the token for d, or d as YYYY-MM-DD when timestamps are not
// scrubbed.
func (s *Shared) Date(d counter.Date) string {
	if !s.scrubDateTimes {
		return d.String()
	}
	return s.counter.NextDateString(d)
}

// Clock returns the token for c, or c as HH:MM:SS when timestamps are not
// scrubbed.
func (s *Shared) Clock(c counter.Clock) string {
	if !s.scrubDateTimes {
		return c.String()
	}
	return s.counter.NextTimeString(c)
}

// IsUTC reports whether t is expressed in UTC. Local times count as zoned.
func IsUTC(t time.Time) bool {
	return t.Location() == time.UTC
}

func parseDateTime(text string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
