package container

import (
	"reflect"
	"sort"
)

// ── Discovery ────────────────────────────────────────────────────────────────

// flatten collects every *Recipe and *Accessor reachable from v through
// slices, arrays and maps (keys included), in discovery order. Structs and
// pointers are terminal: only values the caller handed over as plain
// containers are searched.
func flatten(v any, out []any) []any {
	switch x := v.(type) {
	case nil:
		return out
	case *Recipe:
		if x == nil {
			return out
		}
		return append(out, x)
	case *Accessor:
		if x == nil {
			return out
		}
		return append(out, x)
	case Kwargs:
		for _, k := range sortedKeys(x) {
			out = flatten(x[k], out)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if !mayHoldRecipes(rv.Type()) {
		return out
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			out = flatten(rv.Index(i).Interface(), out)
		}
	case reflect.Map:
		for _, k := range sortedMapKeys(rv) {
			out = flatten(k.Interface(), out)
			out = flatten(rv.MapIndex(k).Interface(), out)
		}
	}
	return out
}

// mayHoldRecipes reports whether a value of type t can contain a recipe or
// accessor somewhere inside a slice, array or map.
func mayHoldRecipes(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface:
		return true
	case reflect.Ptr:
		return t == recipeType || t == accessorType
	case reflect.Slice, reflect.Array:
		return mayHoldRecipes(t.Elem())
	case reflect.Map:
		return mayHoldRecipes(t.Key()) || mayHoldRecipes(t.Elem())
	}
	return false
}

// nested returns the recipes r depends on: recipes found in args, kwargs
// and the definition, plus the roots and recipe-valued marks of any
// accessor found there. Duplicates are dropped, first occurrence wins.
func (r *Recipe) nested() []*Recipe {
	found := flatten(r.args, nil)
	found = flatten(r.kwargs, found)
	found = flatten(r.definition, found)

	seen := make(map[*Recipe]bool)
	var out []*Recipe
	var add func(v any)
	add = func(v any) {
		switch x := v.(type) {
		case *Recipe:
			if x != nil && x != r && !seen[x] {
				seen[x] = true
				out = append(out, x)
			}
		case *Accessor:
			if x == nil {
				return
			}
			add(x.root)
			for _, m := range x.marks {
				add(m.Key)
			}
		}
	}
	for _, v := range found {
		add(v)
	}
	return out
}

// ── Substitution ─────────────────────────────────────────────────────────────

// substitute returns v with every recipe replaced by its realized value and
// every accessor by its resolved value. A nil recipe or accessor stands for
// nil.
func substitute(v any) (any, error) {
	return mapRecipes(v, force)
}

// mapRecipes returns v with every recipe and accessor replaced by fn's
// result. Containers are rebuilt with their original type when the
// replacements still fit it, otherwise as []any or map[K]any.
func mapRecipes(v any, fn func(any) (any, error)) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Recipe, *Accessor:
		return fn(x)
	case Kwargs:
		out := make(Kwargs, len(x))
		for k, item := range x {
			s, err := mapRecipes(item, fn)
			if err != nil {
				return nil, err
			}
			out[k] = s
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if !mayHoldRecipes(rv.Type()) {
		return v, nil
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v, nil
		}
		return mapSeq(rv, fn)
	case reflect.Array:
		return mapSeq(rv, fn)
	case reflect.Map:
		if rv.IsNil() {
			return v, nil
		}
		return mapMap(rv, fn)
	}
	return v, nil
}

func mapSeq(rv reflect.Value, fn func(any) (any, error)) (any, error) {
	items := make([]any, rv.Len())
	fits := true
	elem := rv.Type().Elem()
	for i := range items {
		s, err := mapRecipes(rv.Index(i).Interface(), fn)
		if err != nil {
			return nil, err
		}
		items[i] = s
		fits = fits && assignable(s, elem)
	}
	if !fits {
		return items, nil
	}

	var out reflect.Value
	if rv.Kind() == reflect.Array {
		out = reflect.New(rv.Type()).Elem()
	} else {
		out = reflect.MakeSlice(rv.Type(), len(items), len(items))
	}
	for i, s := range items {
		out.Index(i).Set(valueFor(s, elem))
	}
	return out.Interface(), nil
}

func mapMap(rv reflect.Value, fn func(any) (any, error)) (any, error) {
	type pair struct{ k, v any }
	pairs := make([]pair, 0, rv.Len())
	keyType, elemType := rv.Type().Key(), rv.Type().Elem()
	keysFit, elemsFit := true, true
	for _, k := range sortedMapKeys(rv) {
		sk, err := mapRecipes(k.Interface(), fn)
		if err != nil {
			return nil, err
		}
		sv, err := mapRecipes(rv.MapIndex(k).Interface(), fn)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{sk, sv})
		keysFit = keysFit && assignable(sk, keyType)
		elemsFit = elemsFit && assignable(sv, elemType)
	}

	if !keysFit {
		out := make(map[any]any, len(pairs))
		for _, p := range pairs {
			out[p.k] = p.v
		}
		return out, nil
	}
	if !elemsFit {
		elemType = reflect.TypeOf((*any)(nil)).Elem()
	}
	out := reflect.MakeMapWithSize(reflect.MapOf(keyType, elemType), len(pairs))
	for _, p := range pairs {
		out.SetMapIndex(valueFor(p.k, keyType), valueFor(p.v, elemType))
	}
	return out.Interface(), nil
}

// replaceRecipes realizes a builtin definition: the definition itself with
// nested recipes substituted.
func replaceRecipes(def any) (any, error) {
	return substitute(def)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func assignable(v any, t reflect.Type) bool {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return true
		}
		return false
	}
	return reflect.TypeOf(v).AssignableTo(t)
}

func valueFor(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}

func sortedKeys(kw Kwargs) []string {
	keys := make([]string, 0, len(kw))
	for k := range kw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedMapKeys orders map keys by their formatted form so traversal is
// stable across runs.
func sortedMapKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.SliceStable(keys, func(i, j int) bool {
		return formatKey(keys[i]) < formatKey(keys[j])
	})
	return keys
}
