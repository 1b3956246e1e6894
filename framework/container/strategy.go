package container

import (
	"context"
	"fmt"
	"reflect"
)

// Strategy tells a recipe how to turn its definition into a value.
type Strategy int

// Strategies in auto-classification priority order. StrategyAuto means the
// definition is another recipe or accessor whose shape is only known once
// it has been realized.
const (
	StrategyAuto Strategy = iota
	StrategyCallContext
	StrategyAwait
	StrategyEnterAsync
	StrategyEnterSync
	StrategyBuiltin
	StrategyCall
	StrategyPassThrough
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyCallContext:
		return "call-context"
	case StrategyAwait:
		return "await"
	case StrategyEnterAsync:
		return "enter-async"
	case StrategyEnterSync:
		return "enter-sync"
	case StrategyBuiltin:
		return "builtin"
	case StrategyCall:
		return "call"
	case StrategyPassThrough:
		return "pass-through"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// resolver realizes def. entered is the guard that must be exited on
// release, nil for strategies without teardown.
type resolver func(ctx context.Context, r *Recipe, def any) (value, entered any, err error)

type bakingMethod struct {
	strategy Strategy
	check    func(def any) bool
	resolve  resolver
}

// strategyTable is evaluated top to bottom by classify. Pass-through matches
// everything and must stay last.
var strategyTable = []bakingMethod{
	{StrategyCallContext, isContextFunc, resolveCallContext},
	{StrategyAwait, isAwaitable, resolveAwait},
	{StrategyEnterAsync, isAsyncGuard, resolveEnterAsync},
	{StrategyEnterSync, isGuard, resolveEnterSync},
	{StrategyBuiltin, isBuiltin, resolveBuiltin},
	{StrategyCall, isFunc, resolveCall},
	{StrategyPassThrough, func(any) bool { return true }, resolvePassThrough},
}

func lookupMethod(s Strategy) (bakingMethod, bool) {
	for _, m := range strategyTable {
		if m.strategy == s {
			return m, true
		}
	}
	return bakingMethod{}, false
}

// classify returns the first strategy whose predicate accepts def.
func classify(def any) Strategy {
	if isRecipeOrAccessor(def) {
		return StrategyAuto
	}
	for _, m := range strategyTable {
		if m.check(def) {
			return m.strategy
		}
	}
	return StrategyPassThrough
}

// checkStrategy validates an explicitly requested strategy against def.
// Recipes and accessors are accepted for any strategy since their shape is
// unknown until realization.
func checkStrategy(def any, s Strategy) error {
	if s == StrategyAuto {
		return nil
	}
	m, ok := lookupMethod(s)
	if !ok {
		return newError(ErrCodeUnknownStrategy, nil, "cannot validate unknown strategy %q", s)
	}
	if isRecipeOrAccessor(def) || m.check(def) {
		return nil
	}
	return newError(ErrCodeInvalidStrategy, nil,
		"strategy %q does not fit definition %s", s, RecipeFormat(def, s))
}

// ── Predicates ───────────────────────────────────────────────────────────────

var (
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	kwargsType   = reflect.TypeOf(Kwargs(nil))
	recipeType   = reflect.TypeOf((*Recipe)(nil))
	accessorType = reflect.TypeOf((*Accessor)(nil))
)

func isRecipeOrAccessor(v any) bool {
	switch v.(type) {
	case *Recipe, *Accessor:
		return true
	}
	return false
}

func isFunc(def any) bool {
	v := reflect.ValueOf(def)
	return v.Kind() == reflect.Func && !v.IsNil()
}

func isContextFunc(def any) bool {
	if !isFunc(def) {
		return false
	}
	t := reflect.TypeOf(def)
	return t.NumIn() > 0 && t.In(0) == contextType
}

func isAwaitable(def any) bool {
	_, ok := def.(Awaitable)
	return ok
}

func isAsyncGuard(def any) bool {
	_, ok := def.(AsyncGuard)
	return ok
}

func isGuard(def any) bool {
	_, ok := def.(Guard)
	return ok
}

func isBuiltin(def any) bool {
	if def == nil {
		return true
	}
	switch reflect.TypeOf(def).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// ── Resolvers ────────────────────────────────────────────────────────────────

func resolveCallContext(ctx context.Context, r *Recipe, def any) (any, any, error) {
	v, err := callRecipe(ctx, r, reflect.ValueOf(def), true)
	return v, nil, err
}

func resolveAwait(ctx context.Context, r *Recipe, def any) (any, any, error) {
	a, ok := def.(Awaitable)
	if !ok {
		return nil, nil, shapeMismatch(r, def, StrategyAwait)
	}
	v, err := a.Await(ctx)
	return v, nil, err
}

func resolveEnterAsync(ctx context.Context, r *Recipe, def any) (any, any, error) {
	g, ok := def.(AsyncGuard)
	if !ok {
		return nil, nil, shapeMismatch(r, def, StrategyEnterAsync)
	}
	v, err := g.Enter(ctx)
	if err != nil {
		return nil, nil, err
	}
	return v, g, nil
}

func resolveEnterSync(_ context.Context, r *Recipe, def any) (any, any, error) {
	g, ok := def.(Guard)
	if !ok {
		return nil, nil, shapeMismatch(r, def, StrategyEnterSync)
	}
	v, err := g.Enter()
	if err != nil {
		return nil, nil, err
	}
	return v, g, nil
}

func resolveBuiltin(_ context.Context, r *Recipe, def any) (any, any, error) {
	v, err := replaceRecipes(def)
	if err != nil {
		return nil, nil, wrapError(ErrCodeBadCall, r, err, "cannot substitute nested recipes")
	}
	return v, nil, nil
}

func resolveCall(ctx context.Context, r *Recipe, def any) (any, any, error) {
	if !isFunc(def) {
		return nil, nil, shapeMismatch(r, def, StrategyCall)
	}
	v, err := callRecipe(ctx, r, reflect.ValueOf(def), false)
	return v, nil, err
}

func resolvePassThrough(_ context.Context, _ *Recipe, def any) (any, any, error) {
	return def, nil, nil
}

func shapeMismatch(r *Recipe, def any, s Strategy) error {
	return newError(ErrCodeInvalidStrategy, r, "definition %s cannot be realized with strategy %q",
		RecipeFormat(def, s), s)
}
