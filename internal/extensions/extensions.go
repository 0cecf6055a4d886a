// Package extensions classifies file extensions as text or binary.
//
// Extensions are written without the leading period ("txt", not ".txt") and
// compared case-insensitively. Anything not known as text is treated as binary.
package extensions

import (
	"mime"
	"strings"
	"sync"
	"unicode"

	verifyerrors "verify/internal/errors"
)

var (
	mu   sync.RWMutex
	text = map[string]bool{
		"txt": true, "text": true, "md": true, "markdown": true, "rst": true,
		"json": true, "jsonl": true, "xml": true, "html": true, "htm": true,
		"xhtml": true, "css": true, "scss": true, "less": true, "svg": true,
		"csv": true, "tsv": true, "yaml": true, "yml": true, "toml": true,
		"ini": true, "cfg": true, "conf": true, "properties": true, "env": true,
		"log": true, "sql": true, "graphql": true, "proto": true, "diff": true,
		"patch": true, "go": true, "mod": true, "sum": true, "c": true, "h": true,
		"cpp": true, "hpp": true, "cs": true, "java": true, "kt": true,
		"js": true, "mjs": true, "ts": true, "tsx": true, "jsx": true, "py": true,
		"rb": true, "rs": true, "sh": true, "bash": true, "ps1": true,
		"bat": true, "tex": true, "srt": true, "vtt": true, "ics": true,
		"eml": true, "http": true,
	}
)

// IsText reports whether extension denotes a text format.
// Extensions unknown to the built-in table fall back to the mime database.
func IsText(extension string) bool {
	ext := normalize(extension)

	mu.RLock()
	known, ok := text[ext]
	mu.RUnlock()
	if ok {
		return known
	}

	mediaType := mime.TypeByExtension("." + ext)
	return strings.HasPrefix(mediaType, "text/")
}

// AddText registers an extension as text.
func AddText(extension string) {
	mu.Lock()
	defer mu.Unlock()
	text[normalize(extension)] = true
}

// RemoveText registers an extension as binary, overriding the built-in table.
func RemoveText(extension string) {
	mu.Lock()
	defer mu.Unlock()
	text[normalize(extension)] = false
}

// Check validates an extension: non-empty, no leading period,
// no whitespace or path separators.
func Check(extension string) error {
	if extension == "" {
		return verifyerrors.New(verifyerrors.InvalidExtension, "extension must not be empty")
	}
	if strings.HasPrefix(extension, ".") {
		return verifyerrors.Newf(verifyerrors.InvalidExtension,
			"extension must not start with a period: %q", extension)
	}
	for _, r := range extension {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return verifyerrors.Newf(verifyerrors.InvalidExtension,
				"extension contains an invalid character: %q", extension)
		}
	}
	return nil
}

func normalize(extension string) string {
	return strings.ToLower(strings.TrimPrefix(extension, "."))
}
