package contract

import (
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Exclusion names the rule that removed a member.
type Exclusion int

const (
	Included Exclusion = iota
	ExcludedDeprecated
	ExcludedType
	ExcludedName
	ExcludedDeclaringType
)

func (e Exclusion) String() string {
	switch e {
	case Included:
		return "included"
	case ExcludedDeprecated:
		return "deprecated"
	case ExcludedType:
		return "type"
	case ExcludedName:
		return "name"
	case ExcludedDeclaringType:
		return "declaring-type"
	default:
		return "unknown"
	}
}

// Member is the resolved contract of one struct field.
// Members are shared between all values of a type.
type Member struct {
	// Name is the serialized name: the json tag name or the Go field name.
	Name string
	// Type is the static field type.
	Type reflect.Type
	// DeclaringType is the struct that declares the field; for promoted
	// fields this is the embedded struct.
	DeclaringType reflect.Type
	Field         reflect.StructField
	// Index is the field path from the resolved struct type.
	Index     []int
	OmitEmpty bool
	Exclusion Exclusion

	provider        ValueProvider
	skipEmpty       bool
	skipFalse       bool
	instancePreds   []func(any) bool
	throwPredicates []func(error) bool
}

// Ignored reports whether a static rule excluded the member.
func (m *Member) Ignored() bool {
	return m.Exclusion != Included
}

// Value reads the member from owner, a struct value of the resolved type.
// ok is false when the member contributes nothing for this instance.
// An access error not claimed by a throw predicate is returned unchanged.
func (m *Member) Value(owner reflect.Value) (v reflect.Value, ok bool, err error) {
	if m.Ignored() {
		return reflect.Value{}, false, nil
	}

	v, err = m.provider.GetValue(owner)
	if err != nil {
		for _, ignore := range m.throwPredicates {
			if ignore(err) {
				return reflect.Value{}, false, nil
			}
		}
		return reflect.Value{}, false, err
	}

	if len(m.instancePreds) > 0 {
		if isNil(v) {
			return reflect.Value{}, false, nil
		}
		instance := v.Interface()
		for _, ignore := range m.instancePreds {
			if ignore(instance) {
				return reflect.Value{}, false, nil
			}
		}
	}

	if m.skipEmpty && isEmptyCollection(v) {
		return reflect.Value{}, false, nil
	}
	if m.skipFalse && v.Kind() == reflect.Bool && !v.Bool() {
		return reflect.Value{}, false, nil
	}
	return v, true, nil
}

// Resolver computes and caches member contracts. It is safe for concurrent use.
type Resolver struct {
	rules RuleSet
	cache sync.Map // reflect.Type -> func() []*Member
}

// NewResolver binds a copy of rules.
func NewResolver(rules RuleSet) *Resolver {
	return &Resolver{rules: rules.clone()}
}

// Members returns the contracts of t's fields in declaration order, with
// embedded struct fields flattened in place. Pointer types resolve to their
// element type. Non-struct types have no members.
func (r *Resolver) Members(t reflect.Type) []*Member {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if cached, ok := r.cache.Load(t); ok {
		return cached.(func() []*Member)()
	}

	// Concurrent callers for one type share a single collect.
	once, _ := r.cache.LoadOrStore(t, sync.OnceValue(func() []*Member {
		return r.collect(t)
	}))
	return once.(func() []*Member)()
}

type candidate struct {
	member *Member
	depth  int
	tagged bool
}

func (r *Resolver) collect(root reflect.Type) []*Member {
	var candidates []candidate

	var walk func(typ reflect.Type, index []int, visited map[reflect.Type]bool)
	walk = func(typ reflect.Type, index []int, visited map[reflect.Type]bool) {
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			tag := f.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name, omitEmpty := parseJSONTag(tag)
			idx := append(slices.Clone(index), i)

			if f.Anonymous && name == "" {
				ft := f.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					if !visited[ft] {
						visited[ft] = true
						walk(ft, idx, visited)
						delete(visited, ft)
					}
					continue
				}
			}
			if !f.IsExported() {
				continue
			}

			tagged := name != ""
			if !tagged {
				name = f.Name
			}
			candidates = append(candidates, candidate{
				member: r.member(root, typ, f, idx, name, omitEmpty),
				depth:  len(idx),
				tagged: tagged,
			})
		}
	}
	walk(root, nil, map[reflect.Type]bool{root: true})

	return dominant(candidates)
}

// dominant drops shadowed fields the way encoding/json does: the shallowest
// field wins, a tagged field wins a tie, and an unresolved tie drops the name.
func dominant(candidates []candidate) []*Member {
	byName := make(map[string][]candidate)
	for _, c := range candidates {
		byName[c.member.Name] = append(byName[c.member.Name], c)
	}

	winners := make(map[*Member]bool, len(byName))
	for _, group := range byName {
		if w := pick(group); w != nil {
			winners[w] = true
		}
	}

	out := make([]*Member, 0, len(winners))
	for _, c := range candidates {
		if winners[c.member] {
			out = append(out, c.member)
		}
	}
	return out
}

func pick(group []candidate) *Member {
	if len(group) == 1 {
		return group[0].member
	}
	minDepth := group[0].depth
	for _, c := range group[1:] {
		minDepth = min(minDepth, c.depth)
	}
	var shallow []candidate
	for _, c := range group {
		if c.depth == minDepth {
			shallow = append(shallow, c)
		}
	}
	if len(shallow) == 1 {
		return shallow[0].member
	}
	var tagged []candidate
	for _, c := range shallow {
		if c.tagged {
			tagged = append(tagged, c)
		}
	}
	if len(tagged) == 1 {
		return tagged[0].member
	}
	return nil
}

func (r *Resolver) member(root, declaring reflect.Type, f reflect.StructField, index []int, name string, omitEmpty bool) *Member {
	m := &Member{
		Name:          name,
		Type:          f.Type,
		DeclaringType: declaring,
		Field:         f,
		Index:         index,
		OmitEmpty:     omitEmpty,
		provider:      fieldProvider{owner: root, name: name, index: index},
	}

	m.Exclusion = r.exclusion(f, name, declaring)
	if m.Ignored() {
		return m
	}

	m.skipEmpty = r.rules.IgnoreEmptyCollections && isCollectionType(f.Type)
	m.skipFalse = r.rules.IgnoreFalse && f.Type.Kind() == reflect.Bool
	m.instancePreds = r.rules.IgnoredInstances[f.Type]
	m.throwPredicates = r.rules.IgnoreMembersThatThrow
	return m
}

func (r *Resolver) exclusion(f reflect.StructField, name string, declaring reflect.Type) Exclusion {
	if !r.rules.IncludeObsoletes && r.rules.Deprecations.IsDeprecated(f) {
		return ExcludedDeprecated
	}

	for _, ignored := range r.rules.IgnoredTypes {
		if assignable(f.Type, ignored) {
			return ExcludedType
		}
	}

	if slices.Contains(r.rules.IgnoredByName, name) {
		return ExcludedName
	}

	for ruleType, names := range r.rules.IgnoredMembers {
		if slices.Contains(names, name) && assignable(declaring, ruleType) {
			return ExcludedDeclaringType
		}
	}
	return Included
}

// assignable reports whether t, *t, or t's pointee is assignable to to.
func assignable(t, to reflect.Type) bool {
	if t == nil || to == nil {
		return false
	}
	if t.AssignableTo(to) {
		return true
	}
	if t.Kind() == reflect.Pointer {
		return t.Elem().AssignableTo(to)
	}
	return reflect.PointerTo(t).AssignableTo(to)
}

func isCollectionType(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	default:
		return false
	}
}

func isEmptyCollection(v reflect.Value) bool {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return true
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() == 0
	default:
		return false
	}
}

// parseJSONTag splits a json struct tag into its name and omitempty option.
func parseJSONTag(tag string) (name string, omitEmpty bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	return parts[0], slices.Contains(parts[1:], "omitempty")
}
