package container

import (
	"fmt"
	"reflect"
	"strings"
)

// MarkKind tells whether a Mark reads an attribute or an index.
type MarkKind int

const (
	MarkAttr MarkKind = iota
	MarkIndex
)

// Mark is one step of an Accessor chain. Key is the attribute name for
// MarkAttr and the index or map key for MarkIndex; it may be a recipe or
// accessor, in which case its value is used.
type Mark struct {
	Kind MarkKind
	Key  any
}

// Attributer lets a value answer attribute lookups itself. *Instance
// implements it so accessors can walk through a live container.
type Attributer interface {
	Attribute(name string) (any, error)
}

// Accessor is a deferred chain of attribute and index reads replayed
// against a recipe's value once it is realized.
//
//	db := container.New(openDB, dsn)
//	users := container.New(NewUserRepo, db.Attr("Users"))
//	first := container.New(greet, users.Index(0))
//
// Accessors are immutable; Attr and Index return extended copies.
type Accessor struct {
	root  any
	marks []Mark
}

// NewAccessor starts an empty chain over root, which may be a recipe, an
// accessor or a plain value.
func NewAccessor(root any) *Accessor {
	return &Accessor{root: root}
}

// Attr returns a copy of a with an attribute read appended.
func (a *Accessor) Attr(name string) *Accessor {
	return a.extend(Mark{Kind: MarkAttr, Key: name})
}

// Index returns a copy of a with an index read appended.
func (a *Accessor) Index(key any) *Accessor {
	return a.extend(Mark{Kind: MarkIndex, Key: key})
}

func (a *Accessor) extend(m Mark) *Accessor {
	marks := make([]Mark, len(a.marks), len(a.marks)+1)
	copy(marks, a.marks)
	return &Accessor{root: a.root, marks: append(marks, m)}
}

// Root returns the value the chain starts from.
func (a *Accessor) Root() any { return a.root }

// Marks returns a copy of the chain's steps.
func (a *Accessor) Marks() []Mark { return append([]Mark(nil), a.marks...) }

// Resolve replays the chain. The root and any recipe-valued keys must
// already be realized; a recipe reached at the end of the chain is forced
// as well.
func (a *Accessor) Resolve() (any, error) {
	cur, err := force(a.root)
	if err != nil {
		return nil, err
	}
	for i, m := range a.marks {
		key, err := force(m.Key)
		if err != nil {
			return nil, err
		}
		switch m.Kind {
		case MarkAttr:
			name, ok := key.(string)
			if !ok {
				return nil, newError(ErrCodeAccessor, a, "attribute name at step %d is %T, not string", i, key)
			}
			cur, err = attribute(cur, name)
		case MarkIndex:
			cur, err = index(cur, key)
		default:
			err = newError(ErrCodeAccessor, nil, "unknown mark kind %d", m.Kind)
		}
		if err != nil {
			return nil, wrapError(ErrCodeAccessor, a, err, "step %d", i)
		}
	}
	return force(cur)
}

// Iter always fails: an accessor stands for one value, not a sequence.
func (a *Accessor) Iter() error {
	return newError(ErrCodeNotIterable, a, "deferred accessor is not iterable")
}

// String renders the chain as "Recipe 'db'.Users[0]".
func (a *Accessor) String() string {
	var b strings.Builder
	if a.root == nil {
		b.WriteString("<nil>")
	} else {
		fmt.Fprint(&b, a.root)
	}
	for _, m := range a.marks {
		if m.Kind == MarkIndex {
			fmt.Fprintf(&b, "[%v]", m.Key)
			continue
		}
		fmt.Fprintf(&b, ".%v", m.Key)
	}
	return b.String()
}

func force(v any) (any, error) {
	switch x := v.(type) {
	case *Recipe:
		if x == nil {
			return nil, nil
		}
		return x.Value()
	case *Accessor:
		if x == nil {
			return nil, nil
		}
		return x.Resolve()
	}
	return v, nil
}

// ── Lookups ──────────────────────────────────────────────────────────────────

// attribute reads name from v: Attributer first, then a string-keyed map,
// then an exported struct field, then a method value (bound, not called).
func attribute(v any, name string) (any, error) {
	if at, ok := v.(Attributer); ok {
		return at.Attribute(name)
	}
	if v == nil {
		return nil, newError(ErrCodeAccessor, nil, "nil has no attribute %q", name)
	}

	rv := reflect.ValueOf(v)
	elem := indirect(rv)
	switch elem.Kind() {
	case reflect.Map:
		if elem.Type().Key().Kind() == reflect.String {
			got := elem.MapIndex(reflect.ValueOf(name).Convert(elem.Type().Key()))
			if !got.IsValid() {
				return nil, newError(ErrCodeAccessor, nil, "key %q not found in %T", name, v)
			}
			return got.Interface(), nil
		}
	case reflect.Struct:
		if f, ok := elem.Type().FieldByName(name); ok && f.IsExported() {
			fv, err := elem.FieldByIndexErr(f.Index)
			if err != nil {
				return nil, err
			}
			return fv.Interface(), nil
		}
	}

	if m := rv.MethodByName(name); m.IsValid() {
		return m.Interface(), nil
	}
	if elem.IsValid() && rv.Kind() == reflect.Ptr {
		if m := elem.MethodByName(name); m.IsValid() {
			return m.Interface(), nil
		}
	}
	return nil, newError(ErrCodeAccessor, nil, "%T has no attribute %q", v, name)
}

// index reads key from v: slices, arrays and strings by integer (negative
// counts from the end, strings count runes), maps by key converted to the map's key type.
func index(v any, key any) (any, error) {
	if v == nil {
		return nil, newError(ErrCodeAccessor, nil, "cannot index nil with %v", key)
	}
	elem := indirect(reflect.ValueOf(v))
	switch elem.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		if elem.Kind() == reflect.String {
			runes := []rune(elem.String())
			i, err := position(key, len(runes))
			if err != nil {
				return nil, err
			}
			return string(runes[i]), nil
		}
		i, err := position(key, elem.Len())
		if err != nil {
			return nil, err
		}
		return elem.Index(i).Interface(), nil
	case reflect.Map:
		k, err := convertArg(key, elem.Type().Key())
		if err != nil {
			return nil, err
		}
		got := elem.MapIndex(k)
		if !got.IsValid() {
			return nil, newError(ErrCodeAccessor, nil, "key %v not found in %T", key, v)
		}
		return got.Interface(), nil
	}
	return nil, newError(ErrCodeAccessor, nil, "%T is not indexable", v)
}

func position(key any, n int) (int, error) {
	kv := reflect.ValueOf(key)
	if key == nil || !isNumericKind(kv.Kind()) || kv.Kind() == reflect.Float32 || kv.Kind() == reflect.Float64 {
		return 0, newError(ErrCodeAccessor, nil, "index %v is not an integer", key)
	}
	i := int(kv.Convert(reflect.TypeOf(0)).Int())
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, newError(ErrCodeAccessor, nil, "index %v out of range [0:%d]", key, n)
	}
	return i, nil
}

// indirect follows pointers and interfaces down to a concrete value. A nil
// pointer yields the invalid zero Value.
func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
