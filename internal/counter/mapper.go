// Package counter replaces non-deterministic values with stable tokens.
//
// A Mapper hands out ordinals in first-sight order, starting at 1, and derives
// a display token ("Guid_1", "DateTime_2", ...) from each ordinal. Values
// registered as named resolve to their name and never consume an ordinal.
// A Counter bundles one Mapper per value kind and is scoped to a single
// verification session.
package counter

import (
	"strconv"
	"sync"

	verifyerrors "verify/internal/errors"
)

// Token is the stable replacement for a value.
// Ordinal is zero for named values.
type Token struct {
	Ordinal int
	Name    string
}

// Mapper assigns tokens to values of one kind.
type Mapper[K comparable] struct {
	prefix string

	mu     sync.Mutex
	last   int
	values map[K]Token

	namedMu sync.RWMutex
	named   map[K]string
}

// NewMapper creates a Mapper whose tokens are prefix + "_" + ordinal.
func NewMapper[K comparable](prefix string) *Mapper[K] {
	return &Mapper[K]{
		prefix: prefix,
		values: make(map[K]Token),
		named:  make(map[K]string),
	}
}

// Next returns the token for v, assigning the next ordinal on first sight.
func (m *Mapper[K]) Next(v K) Token {
	m.namedMu.RLock()
	name, ok := m.named[v]
	m.namedMu.RUnlock()
	if ok {
		return Token{Name: name}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if tok, ok := m.values[v]; ok {
		return tok
	}
	m.last++
	tok := Token{
		Ordinal: m.last,
		Name:    m.prefix + "_" + strconv.Itoa(m.last),
	}
	m.values[v] = tok
	return tok
}

// Register maps v to a fixed name.
func (m *Mapper[K]) Register(v K, name string) error {
	if name == "" {
		return verifyerrors.Newf(verifyerrors.EmptyName, "named %s value requires a name", m.prefix)
	}

	m.namedMu.Lock()
	defer m.namedMu.Unlock()

	if existing, ok := m.named[v]; ok {
		return verifyerrors.Newf(verifyerrors.DuplicateNamedToken,
			"%s value is already registered as %q", m.prefix, existing)
	}
	m.named[v] = name
	return nil
}

// Len returns the number of ordinals handed out so far.
func (m *Mapper[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Prefix returns the token prefix.
func (m *Mapper[K]) Prefix() string {
	return m.prefix
}
