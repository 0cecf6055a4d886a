// Package canonical converts an object graph into a tree of plain values
// that encodes deterministically.
//
// The tree is built from nil, bool, string, int64, uint64, float64, []any
// and output.Object. Struct members are filtered by a contract.Resolver and
// kept in declaration order; map entries are sorted by their rendered key.
// Identifiers and timestamps are replaced with session tokens.
package canonical

import (
	"bytes"
	"cmp"
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"verify/internal/contract"
	"verify/internal/counter"
	verifyerrors "verify/internal/errors"
	"verify/internal/output"
	"verify/internal/scrub"
	"verify/internal/typename"
)

var (
	uuidType        = reflect.TypeFor[uuid.UUID]()
	timeType        = reflect.TypeFor[time.Time]()
	dateType        = reflect.TypeFor[counter.Date]()
	clockType       = reflect.TypeFor[counter.Clock]()
	durationType    = reflect.TypeFor[time.Duration]()
	reflectTypeType = reflect.TypeFor[reflect.Type]()
	errorType       = reflect.TypeFor[error]()
	jsonMarshaler   = reflect.TypeFor[json.Marshaler]()
	textMarshaler   = reflect.TypeFor[encoding.TextMarshaler]()
)

// Walker builds canonical trees. A Walker holds no per-walk state and may be
// shared; token assignment is shared through the scrubber's counter.
type Walker struct {
	resolver *contract.Resolver
	scrubber *scrub.Shared
}

// New creates a Walker. A nil scrubber gets a fresh session that scrubs
// identifiers and timestamps.
func New(resolver *contract.Resolver, scrubber *scrub.Shared) *Walker {
	if resolver == nil {
		resolver = contract.NewResolver(contract.RuleSet{})
	}
	if scrubber == nil {
		scrubber = scrub.NewShared(nil, scrub.DefaultOptions())
	}
	return &Walker{resolver: resolver, scrubber: scrubber}
}

// Walk converts v. Member access errors are returned unchanged; reference
// cycles and values with no JSON form fail with UNSUPPORTED_VALUE.
func (w *Walker) Walk(v any) (any, error) {
	s := &walk{Walker: w, visiting: make(map[visit]bool)}
	return s.value(reflect.ValueOf(v))
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type walk struct {
	*Walker
	visiting map[visit]bool
}

func (s *walk) value(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	switch v.Type() {
	case uuidType:
		return s.scrubber.Guid(v.Interface().(uuid.UUID)), nil
	case timeType:
		return s.scrubber.DateTime(v.Interface().(time.Time)), nil
	case dateType:
		return s.scrubber.Date(v.Interface().(counter.Date)), nil
	case clockType:
		return s.scrubber.Clock(v.Interface().(counter.Clock)), nil
	case durationType:
		return time.Duration(v.Int()).String(), nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return s.value(v.Elem())
	case reflect.Pointer:
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Implements(reflectTypeType) {
			return typename.Name(v.Interface().(reflect.Type)), nil
		}
		if !pointerMarshaler(v.Type()) {
			return s.guard(v, 0, func() (any, error) { return s.value(v.Elem()) })
		}
	}

	if v.CanInterface() {
		if node, ok, err := s.marshaler(v); ok || err != nil {
			return node, err
		}
	}

	switch v.Kind() {
	case reflect.Pointer:
		return s.guard(v, 0, func() (any, error) { return s.value(v.Elem()) })
	case reflect.Struct:
		return s.object(v)
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		return s.guard(v, 0, func() (any, error) { return s.mapping(v) })
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		}
		return s.guard(v, v.Len(), func() (any, error) { return s.list(v) })
	case reflect.Array:
		return s.list(v)
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, verifyerrors.Newf(verifyerrors.UnsupportedValue, "unsupported float value %v", f)
		}
		return output.RoundFloat(f), nil
	}
	return nil, verifyerrors.Newf(verifyerrors.UnsupportedValue, "unsupported value of type %s", v.Type())
}

// marshaler renders errors, json.Marshaler and encoding.TextMarshaler values.
func (s *walk) marshaler(v reflect.Value) (any, bool, error) {
	t := v.Type()
	switch {
	case t.Implements(errorType):
		return v.Interface().(error).Error(), true, nil
	case t.Implements(jsonMarshaler):
		raw, err := v.Interface().(json.Marshaler).MarshalJSON()
		if err != nil {
			return nil, true, err
		}
		return json.RawMessage(raw), true, nil
	case t.Implements(textMarshaler):
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, true, err
		}
		return string(text), true, nil
	}
	return nil, false, nil
}

// pointerMarshaler reports whether t marshals itself only through pointer
// receiver methods. Other pointers are walked through their element so that
// identifiers and timestamps still get scrubbed.
func pointerMarshaler(t reflect.Type) bool {
	for _, iface := range []reflect.Type{errorType, jsonMarshaler, textMarshaler} {
		if t.Implements(iface) && !t.Elem().Implements(iface) {
			return true
		}
	}
	return false
}

// guard fails when a reference type is re-entered while it is being walked.
func (s *walk) guard(v reflect.Value, n int, fn func() (any, error)) (any, error) {
	key := visit{ptr: v.Pointer(), typ: v.Type(), len: n}
	if s.visiting[key] {
		return nil, verifyerrors.Newf(verifyerrors.UnsupportedValue,
			"reference cycle through %s", typename.Name(v.Type()))
	}
	s.visiting[key] = true
	defer delete(s.visiting, key)
	return fn()
}

func (s *walk) object(v reflect.Value) (any, error) {
	members := s.resolver.Members(v.Type())
	obj := make(output.Object, 0, len(members))
	for _, m := range members {
		mv, ok, err := m.Value(v)
		if err != nil {
			return nil, err
		}
		if !ok || (m.OmitEmpty && isEmptyValue(mv)) {
			continue
		}
		node, err := s.value(mv)
		if err != nil {
			return nil, err
		}
		obj = append(obj, output.Field{Key: m.Name, Value: node})
	}
	return obj, nil
}

func (s *walk) mapping(v reflect.Value) (any, error) {
	keyType := v.Type().Key()

	// Tokens are handed out in visiting order, so entries are visited in raw
	// key order before the output is sorted by rendered key.
	keys := v.MapKeys()
	slices.SortFunc(keys, compareKeys)

	obj := make(output.Object, 0, len(keys))
	for _, k := range keys {
		key, err := s.resolver.ResolveKey(keyType, k)
		if err != nil {
			return nil, err
		}
		node, err := s.value(v.MapIndex(k))
		if err != nil {
			return nil, err
		}
		obj = append(obj, output.Field{Key: key, Value: node})
	}

	sort.SliceStable(obj, func(i, j int) bool { return obj[i].Key < obj[j].Key })
	return obj, nil
}

// compareKeys orders unscrubbed map keys: identifiers by bytes, timestamps
// by instant, primitives by value, anything else by its printed form.
func compareKeys(a, b reflect.Value) int {
	if a.Kind() == reflect.Interface {
		a, b = a.Elem(), b.Elem()
	}
	switch {
	case !a.IsValid() || !b.IsValid():
		return cmp.Compare(boolRank(a.IsValid()), boolRank(b.IsValid()))
	case a.Type() != b.Type():
		return cmp.Compare(a.Type().String(), b.Type().String())
	}

	switch a.Type() {
	case uuidType:
		ua, ub := a.Interface().(uuid.UUID), b.Interface().(uuid.UUID)
		return bytes.Compare(ua[:], ub[:])
	case timeType:
		if c := a.Interface().(time.Time).Compare(b.Interface().(time.Time)); c != 0 {
			return c
		}
	}

	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.Bool:
		return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *walk) list(v reflect.Value) (any, error) {
	items := make([]any, v.Len())
	for i := range items {
		node, err := s.value(v.Index(i))
		if err != nil {
			return nil, err
		}
		items[i] = node
	}
	return items, nil
}

// isEmptyValue matches encoding/json's omitempty test.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	case reflect.Invalid:
		return true
	}
	return false
}
