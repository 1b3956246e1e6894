package container

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/copystructure"
)

// Kwargs carries named arguments. Passed as the last argument of New it
// becomes the recipe's keyword arguments; see callRecipe for how they reach
// a function.
type Kwargs map[string]any

type required struct{}

func (required) String() string { return "<required>" }

// Required marks a recipe that has no definition of its own: a value must
// be supplied as an override before the owning container can be opened.
var Required any = required{}

func isRequired(v any) bool {
	_, ok := v.(required)
	return ok
}

// ── Recipe ───────────────────────────────────────────────────────────────────

// Recipe is a lazily realized value: a definition, its arguments (which may
// be recipes themselves) and the strategy that turns them into a value.
//
//	hours := container.New(8)
//	week := container.New(sum, hours, hours, 7, 9, hours)
//	days := container.New(func(w int) float64 { return float64(w) / 24 }, week)
//
//	v, err := days.Realize(ctx) // realizes hours and week first
//
// A Recipe is not safe for concurrent use; containers serialize access to
// the recipes they own.
type Recipe struct {
	definition any
	args       []any
	kwargs     Kwargs
	strategy   Strategy
	name       string

	realized bool
	value    any
	applied  Strategy
	entered  any

	replacement *snapshot
}

// New creates a recipe whose strategy is derived from the definition's
// shape. A trailing Kwargs argument supplies named arguments.
//
// Terminal values (structs, pointers, Required) are realized immediately.
func New(definition any, args ...any) *Recipe {
	r := &Recipe{definition: definition, strategy: classify(definition)}
	r.args, r.kwargs = splitArgs(args)
	r.settle()
	return r
}

// NewStrategy creates a recipe with an explicit strategy, validated against
// the definition.
//
//	r, err := container.NewStrategy(container.StrategyPassThrough, handler)
func NewStrategy(s Strategy, definition any, args ...any) (*Recipe, error) {
	if err := checkStrategy(definition, s); err != nil {
		return nil, err
	}
	r := &Recipe{definition: definition, strategy: s}
	if s == StrategyAuto {
		r.strategy = classify(definition)
	}
	r.args, r.kwargs = splitArgs(args)
	r.settle()
	return r, nil
}

// ForceStrategy sets s on r without validation. A definition that is not a
// recipe is wrapped first.
func ForceStrategy(r any, s Strategy) *Recipe {
	rec, ok := r.(*Recipe)
	if !ok {
		rec = New(r)
	}
	rec.strategy = s
	rec.realized, rec.value, rec.entered = false, nil, nil
	rec.settle()
	return rec
}

// Require returns a placeholder recipe. See Required.
func Require() *Recipe {
	return New(Required)
}

func splitArgs(args []any) ([]any, Kwargs) {
	if n := len(args); n > 0 {
		if kw, ok := args[n-1].(Kwargs); ok {
			return args[: n-1 : n-1], kw
		}
	}
	return args, nil
}

// settle realizes pass-through recipes on the spot.
func (r *Recipe) settle() {
	if r.strategy == StrategyPassThrough {
		r.realized = true
		r.value = r.definition
		r.applied = StrategyPassThrough
	}
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

// Realize returns the recipe's value, computing it first if needed.
// Nested recipes in args, kwargs and the definition, and the recipes behind
// any accessor found there, are realized first in discovery order.
func (r *Recipe) Realize(ctx context.Context) (any, error) {
	if r.realized {
		return r.value, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for _, n := range r.nested() {
		if _, err := n.Realize(ctx); err != nil {
			return nil, err
		}
	}

	def, err := r.forcedDefinition()
	if err != nil {
		return nil, err
	}

	s := r.strategy
	if s == StrategyAuto {
		s = classify(def)
		if s == StrategyAuto {
			s = StrategyPassThrough
		}
	}
	m, ok := lookupMethod(s)
	if !ok {
		return nil, newError(ErrCodeUnknownStrategy, r, "unknown strategy %q for definition %s", s, definitionName(r.definition))
	}

	start := time.Now()
	value, entered, err := m.resolve(ctx, r, def)
	if err != nil {
		return nil, err
	}
	r.realized, r.value, r.entered, r.applied = true, value, entered, s

	LoggerFrom(ctx).Debug("recipe realized",
		"recipe", r.String(),
		"strategy", s.String(),
		"definition", RecipeFormat(def, s),
		"elapsed", time.Since(start))
	return value, nil
}

// forcedDefinition resolves a recipe or accessor definition to its value.
func (r *Recipe) forcedDefinition() (any, error) {
	return force(r.definition)
}

// Release tears the recipe down: the guard it entered is exited with cause,
// then every anonymous nested recipe is released in reverse discovery
// order. Nested recipes are released even when r itself never got realized,
// so a failed Realize does not leak the arguments it managed to build.
//
// All steps run; the first error is returned.
func (r *Recipe) Release(ctx context.Context, cause error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	if r.realized {
		switch g := r.entered.(type) {
		case AsyncGuard:
			keep(g.Exit(ctx, cause))
		case Guard:
			keep(g.Exit(cause))
		}
		r.realized, r.value, r.entered = false, nil, nil
		LoggerFrom(ctx).Debug("recipe released", "recipe", r.String(), "strategy", r.applied.String())
	}

	nested := r.nested()
	for i := len(nested) - 1; i >= 0; i-- {
		if nested[i].IsAnonymous() {
			keep(nested[i].Release(ctx, cause))
		}
	}
	return first
}

// Value returns the realized value, or an ErrUnrealized error naming the
// recipe.
func (r *Recipe) Value() (any, error) {
	if !r.realized {
		return nil, newError(ErrCodeUnrealized, r, "not realized yet, open its container or call Realize first")
	}
	return r.value, nil
}

// Value is the typed form of (*Recipe).Value.
//
//	cfg, err := container.Value[*config.Config](recipe)
func Value[T any](r *Recipe) (T, error) {
	var zero T
	v, err := r.Value()
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, newError(ErrCodeBadCall, r, "realized to %T, not %T", v, zero)
	}
	return typed, nil
}

// ── Copies ───────────────────────────────────────────────────────────────────

// Copy returns a new unrealized recipe sharing r's definition and
// arguments. Pass-through copies are realized, like any pass-through recipe.
func (r *Recipe) Copy() *Recipe {
	c := &Recipe{
		definition: r.definition,
		args:       append([]any(nil), r.args...),
		strategy:   r.strategy,
		name:       r.name,
	}
	if r.kwargs != nil {
		c.kwargs = make(Kwargs, len(r.kwargs))
		for k, v := range r.kwargs {
			c.kwargs[k] = v
		}
	}
	c.settle()
	return c
}

// DeepCopy is like Copy but also copies nested recipes and plain argument
// data, so the copy shares no mutable state with r.
func (r *Recipe) DeepCopy() (*Recipe, error) {
	return r.deepCopy(make(map[*Recipe]*Recipe))
}

func (r *Recipe) deepCopy(memo map[*Recipe]*Recipe) (*Recipe, error) {
	if c, ok := memo[r]; ok {
		return c, nil
	}
	c := &Recipe{strategy: r.strategy, name: r.name}
	memo[r] = c

	var err error
	if c.definition, err = deepCopyValue(r.definition, memo); err != nil {
		return nil, err
	}
	if len(r.args) > 0 {
		c.args = make([]any, len(r.args))
		for i, a := range r.args {
			if c.args[i], err = deepCopyValue(a, memo); err != nil {
				return nil, err
			}
		}
	}
	if r.kwargs != nil {
		c.kwargs = make(Kwargs, len(r.kwargs))
		for k, v := range r.kwargs {
			if c.kwargs[k], err = deepCopyValue(v, memo); err != nil {
				return nil, err
			}
		}
	}
	c.settle()
	return c, nil
}

// deepCopyValue copies v. Recipes and accessors are copied structurally,
// builtin data with copystructure; funcs, guards and other non-data values
// are shared.
func deepCopyValue(v any, memo map[*Recipe]*Recipe) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *Recipe:
		return x.deepCopy(memo)
	case *Accessor:
		root, err := deepCopyValue(x.root, memo)
		if err != nil {
			return nil, err
		}
		return &Accessor{root: root, marks: append([]Mark(nil), x.marks...)}, nil
	}
	if !isBuiltin(v) {
		return v, nil
	}

	c, err := copyConfig.Copy(v)
	if err != nil {
		return nil, fmt.Errorf("copy %T: %w", v, err)
	}
	return mapRecipes(c, func(x any) (any, error) {
		return deepCopyValue(x, memo)
	})
}

// copyConfig keeps recipes and accessors by identity so mapRecipes can
// swap them for their own deep copies afterwards.
var copyConfig = func() copystructure.Config {
	shallow := map[reflect.Type]struct{}{
		recipeType:   {},
		accessorType: {},
	}
	for t := range copystructure.ShallowCopiers {
		shallow[t] = struct{}{}
	}
	return copystructure.Config{ShallowCopiers: shallow}
}()

// ── Introspection ────────────────────────────────────────────────────────────

// String renders "Recipe 'name'" or "Recipe '<anon>'".
func (r *Recipe) String() string {
	if r == nil || r.name == "" {
		return "Recipe '<anon>'"
	}
	return fmt.Sprintf("Recipe '%s'", r.name)
}

// Name returns the name assigned by a container, or "".
func (r *Recipe) Name() string { return r.name }

func (r *Recipe) IsRealized() bool     { return r.realized }
func (r *Recipe) IsAnonymous() bool    { return r.name == "" }
func (r *Recipe) DefinitionOf() any    { return r.definition }
func (r *Recipe) ArgsOf() []any        { return r.args }
func (r *Recipe) KwargsOf() Kwargs     { return r.kwargs }
func (r *Recipe) StrategyOf() Strategy { return r.strategy }

// IsRequired reports whether r is still a Required placeholder.
func (r *Recipe) IsRequired() bool { return isRequired(r.definition) }

// Attr starts a deferred accessor reading attribute name of r's value.
func (r *Recipe) Attr(name string) *Accessor {
	return NewAccessor(r).Attr(name)
}

// Index starts a deferred accessor reading r's value at key.
func (r *Recipe) Index(key any) *Accessor {
	return NewAccessor(r).Index(key)
}
