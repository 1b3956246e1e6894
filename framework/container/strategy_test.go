package container_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bakery/framework/container"
)

type settings struct {
	DSN string
}

func TestStrategy_AutoClassification(t *testing.T) {
	var j journal
	inner := container.New(func() int { return 1 })

	tests := []struct {
		name string
		def  any
		want container.Strategy
	}{
		{"context func", func(ctx context.Context) (int, error) { return 1, nil }, container.StrategyCallContext},
		{"context func with args", func(ctx context.Context, a, b int) int { return a + b }, container.StrategyCallContext},
		{"awaitable", container.AwaitFunc(func(context.Context) (any, error) { return 1, nil }), container.StrategyAwait},
		{"async guard", j.asyncGuard("a", 1), container.StrategyEnterAsync},
		{"sync guard", j.guard("s", 1), container.StrategyEnterSync},
		{"nil", nil, container.StrategyBuiltin},
		{"int", 8, container.StrategyBuiltin},
		{"string", "x", container.StrategyBuiltin},
		{"slice", []any{1, inner}, container.StrategyBuiltin},
		{"map", map[string]int{"a": 1}, container.StrategyBuiltin},
		{"kwargs", container.Kwargs{"a": 1}, container.StrategyBuiltin},
		{"plain func", func() int { return 1 }, container.StrategyCall},
		{"func without ctx first", func(a int, ctx context.Context) int { return a }, container.StrategyCall},
		{"struct pointer", &settings{}, container.StrategyPassThrough},
		{"struct", settings{}, container.StrategyPassThrough},
		{"required", container.Required, container.StrategyPassThrough},
		{"nil func", (func())(nil), container.StrategyPassThrough},
		{"recipe", inner, container.StrategyAuto},
		{"accessor", inner.Attr("x"), container.StrategyAuto},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := container.New(tt.def).StrategyOf()
			if got != tt.want {
				t.Errorf("strategy: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStrategy_String(t *testing.T) {
	tests := map[container.Strategy]string{
		container.StrategyAuto:        "auto",
		container.StrategyCallContext: "call-context",
		container.StrategyAwait:       "await",
		container.StrategyEnterAsync:  "enter-async",
		container.StrategyEnterSync:   "enter-sync",
		container.StrategyBuiltin:     "builtin",
		container.StrategyCall:        "call",
		container.StrategyPassThrough: "pass-through",
		container.Strategy(42):        "strategy(42)",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}
}

func TestNewStrategy_Validation(t *testing.T) {
	_, err := container.NewStrategy(container.StrategyEnterSync, 42)
	assert.True(t, errors.Is(err, container.ErrInvalidStrategy), "got %v", err)

	_, err = container.NewStrategy(container.Strategy(99), 42)
	assert.True(t, errors.Is(err, container.ErrUnknownStrategy), "got %v", err)

	// recipes are accepted for any strategy, their shape is unknown yet
	r, err := container.NewStrategy(container.StrategyCall, container.New(func() int { return 1 }))
	require.NoError(t, err)
	assert.Equal(t, container.StrategyCall, r.StrategyOf())

	// pass-through accepts anything and realizes immediately
	fn := func() int { return 1 }
	r, err = container.NewStrategy(container.StrategyPassThrough, fn)
	require.NoError(t, err)
	assert.True(t, r.IsRealized())
}

func TestForceStrategy_SkipsValidation(t *testing.T) {
	r := container.ForceStrategy(func() int { return 7 }, container.StrategyPassThrough)
	require.True(t, r.IsRealized())
	v, err := r.Value()
	require.NoError(t, err)
	_, isFunc := v.(func() int)
	assert.True(t, isFunc, "pass-through must yield the function itself")

	// a mismatching forced strategy fails at realize time instead
	bad := container.ForceStrategy(42, container.StrategyEnterSync)
	_, err = bad.Realize(context.Background())
	assert.True(t, errors.Is(err, container.ErrInvalidStrategy), "got %v", err)

	// an unknown forced strategy is only caught when realizing
	unknown := container.ForceStrategy(container.New(func() int { return 1 }), container.Strategy(99))
	_, err = unknown.Realize(context.Background())
	assert.True(t, errors.Is(err, container.ErrUnknownStrategy), "got %v", err)
	assert.False(t, unknown.IsRealized())
}

func TestRecipeFormat(t *testing.T) {
	assert.Equal(t, "__recipe__[pass-through]", container.RecipeFormat(container.Required, container.StrategyPassThrough))
	assert.Equal(t, "int[builtin]", container.RecipeFormat(42, container.StrategyBuiltin))
	assert.Equal(t, "*container_test.settings[pass-through]", container.RecipeFormat(&settings{}, container.StrategyPassThrough))
	assert.Equal(t, "container_test.sum[call]", container.RecipeFormat(sum, container.StrategyCall))
	assert.Equal(t, "nil[builtin]", container.RecipeFormat(nil, container.StrategyBuiltin))
}

func TestStrategy_AwaitAndCallContext(t *testing.T) {
	ctx := context.Background()
	type key struct{}
	ctx = context.WithValue(ctx, key{}, "seen")

	awaited := container.New(container.AwaitFunc(func(ctx context.Context) (any, error) {
		return ctx.Value(key{}), nil
	}))
	v, err := awaited.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seen", v)

	called := container.New(func(ctx context.Context, suffix string) (string, error) {
		return ctx.Value(key{}).(string) + suffix, nil
	}, "!")
	v, err = called.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "seen!", v)
}

func TestStrategy_GuardsEnterAndExit(t *testing.T) {
	ctx := context.Background()
	var j journal
	cause := errors.New("shutdown")

	syncR := container.New(j.guard("sync", "s"))
	asyncR := container.New(j.asyncGuard("async", "a"))

	v, err := syncR.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s", v)
	v, err = asyncR.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	require.NoError(t, asyncR.Release(ctx, nil))
	require.NoError(t, syncR.Release(ctx, cause))

	assert.Equal(t, []string{"enter sync", "enter async", "exit async", "exit sync: shutdown"}, j.all())
	assert.False(t, syncR.IsRealized())
	assert.False(t, asyncR.IsRealized())
}
