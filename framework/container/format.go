package container

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// RecipeFormat renders a definition together with its strategy, e.g.
// "people.NewController[call]" or "*config.Config[pass-through]". It is the
// form used in log events and strategy errors.
func RecipeFormat(definition any, s Strategy) string {
	return fmt.Sprintf("%s[%s]", definitionName(definition), s)
}

func definitionName(def any) string {
	if isRequired(def) {
		return "__recipe__"
	}
	if def == nil {
		return "nil"
	}
	switch d := def.(type) {
	case *Recipe:
		return d.String()
	case *Accessor:
		return d.String()
	}
	v := reflect.ValueOf(def)
	if v.Kind() == reflect.Func && !v.IsNil() {
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil {
			return shortFuncName(fn.Name())
		}
	}
	return v.Type().String()
}

// shortFuncName trims the import path from a runtime function name:
// "github.com/x/app.(*Store).Get-fm" becomes "app.(*Store).Get".
func shortFuncName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

func formatKey(k reflect.Value) string {
	return fmt.Sprintf("%T:%v", k.Interface(), k.Interface())
}
