package contract

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"

	verifyerrors "verify/internal/errors"
	"verify/internal/typename"
)

var (
	uuidType        = reflect.TypeFor[uuid.UUID]()
	timeType        = reflect.TypeFor[time.Time]()
	reflectTypeType = reflect.TypeFor[reflect.Type]()
	refType         = reflect.TypeFor[typename.Ref]()
	textMarshaler   = reflect.TypeFor[encoding.TextMarshaler]()
)

// ResolveKey renders a map key as text. keyType is the map's static key type.
// Identifier and timestamp keys go through the scrubber when one is set;
// type keys render as canonical type names. The rewrite only affects output.
func (r *Resolver) ResolveKey(keyType reflect.Type, key reflect.Value) (string, error) {
	switch keyType {
	case uuidType:
		raw := key.Interface().(uuid.UUID).String()
		if r.rules.Scrubber != nil {
			if scrubbed, ok := r.rules.Scrubber.TryNormalizeIdentifier(raw); ok {
				return scrubbed, nil
			}
		}
		return raw, nil

	case timeType:
		t := key.Interface().(time.Time)
		raw := t.Format(time.RFC3339Nano)
		if r.rules.Scrubber != nil {
			normalize := r.rules.Scrubber.TryNormalizeDateTimeWithOffset
			if t.Location() == time.UTC {
				normalize = r.rules.Scrubber.TryNormalizeDateTime
			}
			if scrubbed, ok := normalize(raw); ok {
				return scrubbed, nil
			}
		}
		return raw, nil

	case reflectTypeType:
		t, _ := key.Interface().(reflect.Type)
		if t == nil {
			return "", verifyerrors.New(verifyerrors.UnresolvedType, "could not load type `<nil>`")
		}
		return typename.Name(t), nil

	case refType:
		t, err := r.rules.Types.Lookup(key.String())
		if err != nil {
			return "", err
		}
		return typename.Name(t), nil
	}

	return keyText(key)
}

// keyText follows encoding/json: strings as-is, then TextMarshaler, then numbers.
func keyText(key reflect.Value) (string, error) {
	if key.Kind() == reflect.String {
		return key.String(), nil
	}
	if key.Type().Implements(textMarshaler) {
		if key.Kind() == reflect.Pointer && key.IsNil() {
			return "", nil
		}
		b, err := key.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	switch key.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(key.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(key.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(key.Float(), 'g', -1, key.Type().Bits()), nil
	case reflect.Bool:
		return strconv.FormatBool(key.Bool()), nil
	}

	if key.CanInterface() {
		return fmt.Sprint(key.Interface()), nil
	}
	return "", verifyerrors.Newf(verifyerrors.UnsupportedValue, "unsupported map key type %s", key.Type())
}
