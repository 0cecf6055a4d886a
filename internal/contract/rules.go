// Package contract decides which struct fields take part in a snapshot and
// how their values are read.
//
// A Resolver is built from a RuleSet and computes, once per struct type, a
// list of Members. A member is excluded by the first rule that matches, in
// this order:
//
//  1. deprecated fields, unless IncludeObsoletes is set
//  2. fields whose type is assignable to an ignored type
//  3. fields whose serialized name is ignored everywhere
//  4. fields whose serialized name is ignored for their declaring type
//
// Excluded members are never read. Included members are read through a
// ValueProvider and may still be omitted per instance: empty collections,
// false booleans, values claimed by an instance predicate, and values whose
// access fails with an error claimed by a throw predicate.
package contract

import (
	"reflect"
	"slices"
	"strings"

	"verify/internal/typename"
)

// KeyScrubber rewrites map keys of well-known kinds into stable tokens.
type KeyScrubber interface {
	TryNormalizeIdentifier(text string) (string, bool)
	TryNormalizeDateTime(text string) (string, bool)
	TryNormalizeDateTimeWithOffset(text string) (string, bool)
}

// DeprecationChecker reports whether a field carries deprecation metadata.
type DeprecationChecker interface {
	IsDeprecated(field reflect.StructField) bool
}

// DeprecationFunc adapts a function to DeprecationChecker.
type DeprecationFunc func(field reflect.StructField) bool

func (f DeprecationFunc) IsDeprecated(field reflect.StructField) bool { return f(field) }

// TagDeprecation treats fields tagged `verify:"deprecated"` as deprecated.
// The verify tag is a comma-separated option list.
type TagDeprecation struct{}

func (TagDeprecation) IsDeprecated(field reflect.StructField) bool {
	tag, ok := field.Tag.Lookup("verify")
	if !ok {
		return false
	}
	return slices.Contains(strings.Split(tag, ","), "deprecated")
}

// Valuer lets a type compute the value recorded in a snapshot. An error
// returned from VerifyValue is a member access error.
type Valuer interface {
	VerifyValue() (any, error)
}

// RuleSet configures a Resolver. It is copied when the Resolver is built.
type RuleSet struct {
	// IgnoreEmptyCollections omits slices, arrays and maps with no elements.
	IgnoreEmptyCollections bool
	// IgnoreFalse omits bool fields holding false.
	IgnoreFalse bool
	// IncludeObsoletes keeps deprecated fields.
	IncludeObsoletes bool

	// IgnoredMembers maps a declaring type to serialized names it ignores.
	// Interface keys apply to every struct implementing them.
	IgnoredMembers map[reflect.Type][]string
	// IgnoredByName lists serialized names ignored on every type.
	IgnoredByName []string
	// IgnoredTypes excludes fields whose type is assignable to an entry.
	IgnoredTypes []reflect.Type

	// IgnoreMembersThatThrow decides, per access error, whether the member
	// is omitted instead of failing the snapshot.
	IgnoreMembersThatThrow []func(error) bool
	// IgnoredInstances maps a field type to predicates over the live value.
	IgnoredInstances map[reflect.Type][]func(any) bool

	// Scrubber rewrites uuid.UUID and time.Time map keys. Optional.
	Scrubber KeyScrubber
	// Deprecations defaults to TagDeprecation.
	Deprecations DeprecationChecker
	// Types resolves typename.Ref map keys. Optional.
	Types *typename.Registry
}

// IgnoreMember adds a per-type ignored name.
func (r *RuleSet) IgnoreMember(declaringType reflect.Type, names ...string) {
	if r.IgnoredMembers == nil {
		r.IgnoredMembers = make(map[reflect.Type][]string)
	}
	r.IgnoredMembers[declaringType] = append(r.IgnoredMembers[declaringType], names...)
}

// IgnoreInstance adds a predicate for values of fieldType.
func (r *RuleSet) IgnoreInstance(fieldType reflect.Type, pred func(any) bool) {
	if r.IgnoredInstances == nil {
		r.IgnoredInstances = make(map[reflect.Type][]func(any) bool)
	}
	r.IgnoredInstances[fieldType] = append(r.IgnoredInstances[fieldType], pred)
}

func (r RuleSet) clone() RuleSet {
	out := r
	out.IgnoredByName = slices.Clone(r.IgnoredByName)
	out.IgnoredTypes = slices.Clone(r.IgnoredTypes)
	out.IgnoreMembersThatThrow = slices.Clone(r.IgnoreMembersThatThrow)

	out.IgnoredMembers = make(map[reflect.Type][]string, len(r.IgnoredMembers))
	for t, names := range r.IgnoredMembers {
		out.IgnoredMembers[t] = slices.Clone(names)
	}
	out.IgnoredInstances = make(map[reflect.Type][]func(any) bool, len(r.IgnoredInstances))
	for t, preds := range r.IgnoredInstances {
		out.IgnoredInstances[t] = slices.Clone(preds)
	}
	if out.Deprecations == nil {
		out.Deprecations = TagDeprecation{}
	}
	return out
}
