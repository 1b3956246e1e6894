package container

import (
	"context"
	"reflect"
	"strings"
)

// callRecipe invokes fn with r's realized arguments.
//
// Positional arguments are converted to the parameter types; named
// arguments go to a trailing Kwargs parameter or are copied into a trailing
// struct (or *struct) parameter. With withCtx the first parameter receives
// ctx.
func callRecipe(ctx context.Context, r *Recipe, fn reflect.Value, withCtx bool) (any, error) {
	rawArgs, err := substitute(r.args)
	if err != nil {
		return nil, err
	}
	args, _ := rawArgs.([]any)
	rawKwargs, err := substitute(r.kwargs)
	if err != nil {
		return nil, err
	}
	kwargs, _ := rawKwargs.(Kwargs)

	t := fn.Type()
	numIn := t.NumIn()
	start := 0
	in := make([]reflect.Value, 0, numIn+len(args))
	if withCtx {
		in = append(in, reflect.ValueOf(&ctx).Elem())
		start = 1
	}

	end := numIn
	kwSlot := -1
	if numIn > start && !t.IsVariadic() {
		last := t.In(numIn - 1)
		if last == kwargsType || (len(kwargs) > 0 && isStructParam(last)) {
			kwSlot = numIn - 1
			end = kwSlot
		}
	}
	if len(kwargs) > 0 && kwSlot < 0 {
		return nil, newError(ErrCodeBadCall, r, "%s does not accept named arguments", definitionName(fn.Interface()))
	}

	fixed := end - start
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, newError(ErrCodeBadCall, r, "%s wants at least %d arguments, got %d",
				definitionName(fn.Interface()), fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, newError(ErrCodeBadCall, r, "%s wants %d arguments, got %d",
			definitionName(fn.Interface()), fixed, len(args))
	}

	for i, a := range args {
		var pt reflect.Type
		if i < fixed {
			pt = t.In(start + i)
		} else {
			pt = t.In(numIn - 1).Elem()
		}
		v, err := convertArg(a, pt)
		if err != nil {
			return nil, wrapError(ErrCodeBadCall, r, err, "argument %d", i)
		}
		in = append(in, v)
	}

	if kwSlot >= 0 {
		v, err := kwargsValue(kwargs, t.In(kwSlot))
		if err != nil {
			return nil, wrapError(ErrCodeBadCall, r, err, "named arguments")
		}
		in = append(in, v)
	}

	return unpackResults(t, fn.Call(in))
}

// unpackResults maps a call's results to a single value: nothing becomes
// nil, one result is returned as is, more are returned as []any. A trailing
// error result is split off.
func unpackResults(t reflect.Type, out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && t.Out(n-1) == errorType {
		if e := out[n-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
		out = out[:n-1]
	}
	if err != nil {
		return nil, err
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	}
	values := make([]any, len(out))
	for i, o := range out {
		values[i] = o.Interface()
	}
	return values, nil
}

func convertArg(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if (isNumericKind(rv.Kind()) && isNumericKind(t.Kind())) ||
		(rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t)) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, newError(ErrCodeBadCall, nil, "cannot use %T as %s", v, t)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// ── Named arguments ──────────────────────────────────────────────────────────

func isStructParam(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func kwargsValue(kwargs Kwargs, t reflect.Type) (reflect.Value, error) {
	if t == kwargsType {
		if kwargs == nil {
			kwargs = Kwargs{}
		}
		return reflect.ValueOf(kwargs), nil
	}

	st := t
	if t.Kind() == reflect.Ptr {
		st = t.Elem()
	}
	sv := reflect.New(st).Elem()
	for _, k := range sortedKeys(kwargs) {
		f, ok := kwField(st, k)
		if !ok {
			return reflect.Value{}, newError(ErrCodeBadCall, nil, "unexpected named argument %q for %s", k, st)
		}
		fv, err := sv.FieldByIndexErr(f.Index)
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := convertArg(kwargs[k], f.Type)
		if err != nil {
			return reflect.Value{}, wrapError(ErrCodeBadCall, nil, err, "named argument %q", k)
		}
		fv.Set(v)
	}
	if t.Kind() == reflect.Ptr {
		return sv.Addr(), nil
	}
	return sv, nil
}

// kwField finds the field receiving the named argument k: a `kw:"k"` tag,
// or a case-insensitive match on the field name with underscores ignored.
func kwField(st reflect.Type, k string) (reflect.StructField, bool) {
	loose := strings.ReplaceAll(k, "_", "")
	for _, f := range reflect.VisibleFields(st) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		tag := f.Tag.Get("kw")
		switch {
		case tag == "-":
			continue
		case tag != "":
			if tag == k {
				return f, true
			}
		case strings.EqualFold(f.Name, k), strings.EqualFold(f.Name, loose):
			return f, true
		}
	}
	return reflect.StructField{}, false
}
