package contract

import (
	"fmt"
	"reflect"
)

// AccessError reports a member whose value could not be read.
type AccessError struct {
	Type   reflect.Type
	Member string
	Err    error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("reading %s.%s: %v", e.Type, e.Member, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// ValueProvider reads a member's value from its owning struct.
type ValueProvider interface {
	GetValue(owner reflect.Value) (reflect.Value, error)
}

// fieldProvider reads a possibly promoted field and evaluates Valuers.
type fieldProvider struct {
	owner reflect.Type
	name  string
	index []int
}

func (p fieldProvider) GetValue(owner reflect.Value) (v reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = reflect.Value{}
			err = &AccessError{Type: p.owner, Member: p.name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	v, err = owner.FieldByIndexErr(p.index)
	if err != nil {
		return reflect.Value{}, &AccessError{Type: p.owner, Member: p.name, Err: err}
	}
	if !v.CanInterface() || isNil(v) {
		return v, nil
	}

	valuer, ok := v.Interface().(Valuer)
	if !ok && v.CanAddr() {
		valuer, ok = v.Addr().Interface().(Valuer)
	}
	if !ok {
		return v, nil
	}
	computed, err := valuer.VerifyValue()
	if err != nil {
		return reflect.Value{}, &AccessError{Type: p.owner, Member: p.name, Err: err}
	}
	return reflect.ValueOf(computed), nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	case reflect.Invalid:
		return true
	default:
		return false
	}
}
