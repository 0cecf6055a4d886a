package scrub

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"verify/internal/counter"
)

// Scrubber rewrites one line-independent aspect of snapshot text.
type Scrubber func(text string) string

var guidPattern = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)

var tempDirPattern = regexp.MustCompile(`(?:/tmp/|/var/folders/[^/]+/[^/]+/[^/]+/|C:\\Users\\[^\\]+\\|C:/Users/[^/]+/)[^/\\\s"]+`)

// Apply runs scrubbers in order.
func Apply(text string, scrubbers ...Scrubber) string {
	for _, s := range scrubbers {
		text = s(text)
	}
	return text
}

// NormalizeText puts snapshot text into canonical form: NFC unicode,
// "\n" line endings, no trailing whitespace at the end of the text.
func NormalizeText(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimRight(text, " \t\n")
}

// InlineGuids replaces UUIDs embedded anywhere in text with Guid tokens.
func (s *Shared) InlineGuids() Scrubber {
	return func(text string) string {
		return guidPattern.ReplaceAllStringFunc(text, func(match string) string {
			id, err := uuid.Parse(match)
			if err != nil {
				return match
			}
			return s.counter.NextGuidString(id)
		})
	}
}

// InlineDateTimes replaces substrings that parse with layout by tokens.
// Layouts holding only a clock map to Time tokens, layouts holding only a
// date map to Date tokens, everything else to DateTime tokens. Only
// fixed-width layouts are supported.
func (s *Shared) InlineDateTimes(layout string) Scrubber {
	width := len(reference.Format(layout))
	hasDate, hasClock := layoutFields(layout)

	token := func(t time.Time) string {
		switch {
		case hasClock && !hasDate:
			return s.counter.NextTimeString(counter.ClockOf(t))
		case hasDate && !hasClock:
			return s.counter.NextDateString(counter.DateOf(t))
		default:
			return s.counter.NextDateTimeString(t)
		}
	}

	return func(text string) string {
		if len(text) < width {
			return text
		}
		var b strings.Builder
		i := 0
		for i <= len(text)-width {
			if t, err := time.Parse(layout, text[i:i+width]); err == nil {
				b.WriteString(token(t))
				i += width
				continue
			}
			b.WriteByte(text[i])
			i++
		}
		b.WriteString(text[i:])
		return b.String()
	}
}

var reference = time.Date(2006, time.January, 2, 15, 4, 5, 0, time.UTC)

// layoutFields reports whether layout renders a date part and a clock part,
// by checking which of them change the formatted output.
func layoutFields(layout string) (hasDate, hasClock bool) {
	base := reference.Format(layout)
	otherDay := time.Date(2007, time.February, 3, 15, 4, 5, 0, time.UTC)
	otherClock := time.Date(2006, time.January, 2, 16, 5, 6, 0, time.UTC)
	return otherDay.Format(layout) != base, otherClock.Format(layout) != base
}

// Paths replaces root with a placeholder and collapses temp directories.
func Paths(root string) Scrubber {
	root = strings.TrimRight(root, `/\`)
	slashed := strings.ReplaceAll(root, `\`, "/")
	return func(text string) string {
		if root != "" {
			text = strings.ReplaceAll(text, root, "{ProjectDirectory}")
			if slashed != root {
				text = strings.ReplaceAll(text, slashed, "{ProjectDirectory}")
			}
		}
		return tempDirPattern.ReplaceAllString(text, "{TempPath}")
	}
}

// Replace swaps every occurrence of old with replacement.
func Replace(old, replacement string) Scrubber {
	return func(text string) string {
		if old == "" {
			return text
		}
		return strings.ReplaceAll(text, old, replacement)
	}
}

// RemoveLinesContaining drops lines holding any of the needles.
func RemoveLinesContaining(needles ...string) Scrubber {
	return func(text string) string {
		lines := strings.Split(text, "\n")
		kept := lines[:0]
	outer:
		for _, line := range lines {
			for _, n := range needles {
				if n != "" && strings.Contains(line, n) {
					continue outer
				}
			}
			kept = append(kept, line)
		}
		return strings.Join(kept, "\n")
	}
}
