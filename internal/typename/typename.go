// Package typename renders reflect.Types as short, stable names and resolves
// registered names back to types.
package typename

import (
	"path"
	"reflect"
	"strconv"
	"strings"
	"sync"

	verifyerrors "verify/internal/errors"
)

// Ref refers to a type by its registered name. Map keys of type Ref are
// resolved through a Registry when rendered.
type Ref string

// Name returns a human-readable name for t: package base name plus type name
// for named types ("time.Duration"), Go syntax for composite types
// ("[]*model.Item", "map[string]int"). A nil type is named "nil".
func Name(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	if t.Name() != "" {
		if t.PkgPath() == "" {
			return t.Name()
		}
		return path.Base(t.PkgPath()) + "." + t.Name()
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + Name(t.Elem())
	case reflect.Slice:
		return "[]" + Name(t.Elem())
	case reflect.Array:
		return "[" + strconv.Itoa(t.Len()) + "]" + Name(t.Elem())
	case reflect.Map:
		return "map[" + Name(t.Key()) + "]" + Name(t.Elem())
	case reflect.Chan:
		var b strings.Builder
		switch t.ChanDir() {
		case reflect.RecvDir:
			b.WriteString("<-chan ")
		case reflect.SendDir:
			b.WriteString("chan<- ")
		default:
			b.WriteString("chan ")
		}
		b.WriteString(Name(t.Elem()))
		return b.String()
	default:
		return t.String()
	}
}

// FullName qualifies a named type with its full import path.
func FullName(t reflect.Type) string {
	if t == nil || t.Name() == "" || t.PkgPath() == "" {
		return Name(t)
	}
	return t.PkgPath() + "." + t.Name()
}

// Registry maps names to types. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry creates a registry pre-populated with types.
func NewRegistry(types ...reflect.Type) *Registry {
	r := &Registry{types: make(map[string]reflect.Type)}
	r.Register(types...)
	return r
}

// Register adds types under both their short and full names.
func (r *Registry) Register(types ...reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		if t == nil {
			continue
		}
		r.types[Name(t)] = t
		r.types[FullName(t)] = t
	}
}

// RegisterAs adds t under an explicit alias.
func (r *Registry) RegisterAs(name string, t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = t
}

// Lookup resolves a registered name.
func (r *Registry) Lookup(name string) (reflect.Type, error) {
	if r != nil {
		r.mu.RLock()
		t, ok := r.types[name]
		r.mu.RUnlock()
		if ok {
			return t, nil
		}
	}
	return nil, verifyerrors.Newf(verifyerrors.UnresolvedType, "could not load type `%s`", name)
}
