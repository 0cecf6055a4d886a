// Package target holds the subject of a snapshot comparison: a stream of
// bytes, a string, or a strings.Builder, tagged with a file extension and an
// optional logical name.
package target

import (
	"bytes"
	"io"
	"strings"

	"verify/internal/extensions"
	verifyerrors "verify/internal/errors"
)

// DefaultName is used for targets without a logical name.
const DefaultName = "target"

// data is implemented by exactly the three payload kinds below.
type data interface {
	kind() string
}

type streamData struct{ r io.Reader }
type stringData struct{ s string }
type builderData struct{ b *strings.Builder }

func (streamData) kind() string  { return "stream" }
func (stringData) kind() string  { return "string" }
func (builderData) kind() string { return "builder" }

// Target is immutable once constructed. The zero value holds no data and
// every accessor on it fails.
type Target struct {
	extension string
	name      string
	data      data
}

// NewStream creates a binary target. The extension must not be a text extension.
func NewStream(extension string, r io.Reader, name string) (Target, error) {
	if err := extensions.Check(extension); err != nil {
		return Target{}, err
	}
	if extensions.IsText(extension) {
		return Target{}, verifyerrors.Newf(verifyerrors.ExtensionKindMismatch,
			"don't pass a stream for text extension %q; use NewString or NewBuilder", extension)
	}
	if r == nil {
		r = bytes.NewReader(nil)
	}
	return Target{extension: extension, name: name, data: streamData{r: r}}, nil
}

// NewBytes is NewStream over an in-memory byte slice.
func NewBytes(extension string, b []byte, name string) (Target, error) {
	return NewStream(extension, bytes.NewReader(b), name)
}

// NewString creates a text target. The extension must be a text extension
// and name must not be empty.
func NewString(extension, s, name string) (Target, error) {
	if err := checkText(extension, name); err != nil {
		return Target{}, err
	}
	return Target{extension: extension, name: name, data: stringData{s: s}}, nil
}

// NewBuilder creates a text target whose content is read when the target is consumed.
func NewBuilder(extension string, b *strings.Builder, name string) (Target, error) {
	if err := checkText(extension, name); err != nil {
		return Target{}, err
	}
	if b == nil {
		b = &strings.Builder{}
	}
	return Target{extension: extension, name: name, data: builderData{b: b}}, nil
}

func checkText(extension, name string) error {
	if err := extensions.Check(extension); err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		return verifyerrors.New(verifyerrors.EmptyName, "text targets require a non-empty name")
	}
	if !extensions.IsText(extension) {
		return verifyerrors.Newf(verifyerrors.ExtensionKindMismatch,
			"don't pass text for binary extension %q; use NewStream", extension)
	}
	return nil
}

// Extension returns the file extension, without a leading period.
func (t Target) Extension() string { return t.extension }

// Name returns the logical name, which may be empty for stream targets.
func (t Target) Name() string { return t.name }

// NameOrTarget returns the logical name, or DefaultName when there is none.
func (t Target) NameOrTarget() string {
	if t.name == "" {
		return DefaultName
	}
	return t.name
}

func (t Target) IsStream() bool {
	_, ok := t.data.(streamData)
	return ok
}

func (t Target) IsString() bool {
	_, ok := t.data.(stringData)
	return ok
}

func (t Target) IsBuilder() bool {
	_, ok := t.data.(builderData)
	return ok
}

// Stream returns the binary payload.
func (t Target) Stream() (io.Reader, error) {
	d, ok := t.data.(streamData)
	if !ok {
		return nil, wrongKind(t.data, "StringData or Builder")
	}
	return d.r, nil
}

// StringData returns the string payload.
func (t Target) StringData() (string, error) {
	d, ok := t.data.(stringData)
	if !ok {
		return "", wrongKind(t.data, "Stream or Builder")
	}
	return d.s, nil
}

// Builder returns the strings.Builder payload.
func (t Target) Builder() (*strings.Builder, error) {
	d, ok := t.data.(builderData)
	if !ok {
		return nil, wrongKind(t.data, "Stream or StringData")
	}
	return d.b, nil
}

// TryGetString returns the text of a string or builder target.
// Builder targets are materialized at call time.
func (t Target) TryGetString() (string, bool) {
	switch d := t.data.(type) {
	case builderData:
		return d.b.String(), true
	case stringData:
		return d.s, true
	default:
		return "", false
	}
}

// Bytes drains a stream target.
func (t Target) Bytes() ([]byte, error) {
	r, err := t.Stream()
	if err != nil {
		return nil, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, verifyerrors.Wrap(verifyerrors.InternalError, "failed to read stream target", err)
	}
	return b, nil
}

func wrongKind(d data, alternatives string) error {
	held := "nothing"
	if d != nil {
		held = d.kind()
	}
	return verifyerrors.Newf(verifyerrors.WrongTargetKind, "target holds %s; use %s", held, alternatives)
}
