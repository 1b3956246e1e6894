package container_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bakery/framework/container"
)

// ── Realize ──────────────────────────────────────────────────────────────────

func TestRecipe_AverageHours(t *testing.T) {
	ctx := context.Background()
	avg := container.New(8)
	week := container.New(sum, avg, avg, 7, 9, avg)
	days := container.New(func(w int) float64 { return float64(w) / 24 }, week)

	got, err := days.Realize(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 40.0/24, got, 1e-9)

	w, err := container.Value[int](week)
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.True(t, avg.IsRealized(), "arguments are realized first")
}

func TestRecipe_PassThroughIsRealizedAtConstruction(t *testing.T) {
	s := &settings{DSN: "memory://"}
	r := container.New(s)

	require.True(t, r.IsRealized())
	got, err := container.Value[*settings](r)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestRecipe_ValueBeforeRealize(t *testing.T) {
	r := container.New(func() int { return 1 })

	_, err := r.Value()
	require.Error(t, err)
	assert.True(t, errors.Is(err, container.ErrUnrealized))
	assert.Contains(t, err.Error(), "Recipe '<anon>'")
}

func TestRecipe_RealizeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	calls := 0
	r := container.New(func() int {
		calls++
		return calls
	})

	for i := 0; i < 3; i++ {
		v, err := r.Realize(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	}
	assert.Equal(t, 1, calls)
}

func TestRecipe_ErrorsPropagateUnwrapped(t *testing.T) {
	boom := errors.New("boom")
	r := container.New(func() (int, error) { return 0, boom })

	_, err := r.Realize(context.Background())
	assert.Same(t, boom, err)
	assert.False(t, r.IsRealized())
}

func TestRecipe_TypedValueMismatch(t *testing.T) {
	r := container.New("text")
	_, err := r.Realize(context.Background())
	require.NoError(t, err)

	_, err = container.Value[int](r)
	assert.True(t, errors.Is(err, container.ErrBadCall), "got %v", err)
}

// ── Calling convention ───────────────────────────────────────────────────────

type dialOptions struct {
	Host    string
	Port    int
	Arg3    int
	Retries int `kw:"max_retries"`
}

func TestRecipe_NamedArgumentsIntoStruct(t *testing.T) {
	r := container.New(func(o dialOptions) dialOptions { return o }, container.Kwargs{
		"host":        "db",
		"port":        int64(5432),
		"arg_3":       3,
		"max_retries": 2,
	})

	got, err := r.Realize(context.Background())
	require.NoError(t, err)
	want := dialOptions{Host: "db", Port: 5432, Arg3: 3, Retries: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestRecipe_NamedArgumentsIntoStructPointerAndKwargs(t *testing.T) {
	ctx := context.Background()
	port := container.New(8080)

	ptr := container.New(func(prefix string, o *dialOptions) string {
		return prefix + o.Host
	}, "tcp://", container.Kwargs{"host": "db"})
	v, err := ptr.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tcp://db", v)

	kw := container.New(func(kw container.Kwargs) container.Kwargs { return kw },
		container.Kwargs{"port": port})
	v, err = kw.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, container.Kwargs{"port": 8080}, v)

	empty := container.New(func(kw container.Kwargs) int { return len(kw) })
	v, err = empty.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestRecipe_BadCalls(t *testing.T) {
	tests := []struct {
		name string
		r    *container.Recipe
	}{
		{"too few args", container.New(func(a, b int) int { return a + b }, 1)},
		{"too many args", container.New(func(a int) int { return a }, 1, 2)},
		{"wrong type", container.New(func(s string) string { return s }, []int{1})},
		{"unknown named argument", container.New(func(o dialOptions) int { return o.Port }, container.Kwargs{"nope": 1})},
		{"named arguments without slot", container.New(func(a int) int { return a }, 1, container.Kwargs{"b": 2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.r.Realize(context.Background())
			assert.True(t, errors.Is(err, container.ErrBadCall), "got %v", err)
		})
	}
}

func TestRecipe_ResultShapes(t *testing.T) {
	ctx := context.Background()

	v, err := container.New(func() {}).Realize(ctx)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = container.New(func() (int, string, error) { return 1, "a", nil }).Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{1, "a"}, v)

	boom := errors.New("boom")
	_, err = container.New(func() error { return boom }).Realize(ctx)
	assert.Same(t, boom, err)

	v, err = container.New(func(base float64, xs ...int) float64 {
		return base + float64(sum(xs...))
	}, 1, 2, 3).Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6.0, v)
}

// ── Builtin containers ───────────────────────────────────────────────────────

func TestRecipe_BuiltinSubstitutesNestedRecipes(t *testing.T) {
	ctx := context.Background()
	a := container.New(1)
	b := container.New(func() int { return 2 })

	mixed := container.New([]any{a, 2, map[string]any{"k": b}})
	v, err := mixed.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, map[string]any{"k": 2}}, v)

	typed := container.New([]*container.Recipe{a, b})
	v, err = typed.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v, "recipe slices become []any")

	plain := container.New([]int{1, 2})
	v, err = plain.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, v)
}

func TestRecipe_NilRecipeStandsForNil(t *testing.T) {
	ctx := context.Background()
	var missing *container.Recipe

	v, err := container.New([]*container.Recipe{container.New(1), missing}).Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{1, nil}, v)

	v, err = container.New(func(x any) bool { return x == nil }, missing).Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, v)

	var acc *container.Accessor
	v, err = container.New(map[string]any{"k": acc}).Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": nil}, v)
}

// ── Release ──────────────────────────────────────────────────────────────────

func TestRecipe_ReleaseUnwindsAnonymousNested(t *testing.T) {
	ctx := context.Background()
	var j journal
	r := container.New(func(conn string) string { return conn + "!" }, container.New(j.guard("conn", "c")))

	_, err := r.Realize(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Release(ctx, nil))

	assert.Equal(t, []string{"enter conn", "exit conn"}, j.all())
}

func TestRecipe_ReleaseAfterFailedRealize(t *testing.T) {
	ctx := context.Background()
	var j journal
	boom := errors.New("boom")
	r := container.New(func(string) (string, error) { return "", boom }, container.New(j.guard("conn", "c")))

	_, err := r.Realize(ctx)
	require.Same(t, boom, err)
	require.NoError(t, r.Release(ctx, err))

	assert.Equal(t, []string{"enter conn", "exit conn: boom"}, j.all())
}

func TestRecipe_OwnGuardExitsBeforeArguments(t *testing.T) {
	ctx := context.Background()
	var j journal
	conn := container.New(j.guard("conn", "c"))
	session := container.New(func(c string) container.Guard { return j.guard("session", c) }, conn)
	r := container.New(session)

	_, err := r.Realize(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Release(ctx, nil))

	assert.Equal(t, []string{"enter conn", "enter session", "exit session", "exit conn"}, j.all())
}

// ── Copies ───────────────────────────────────────────────────────────────────

func TestRecipe_CopyIsUnrealized(t *testing.T) {
	ctx := context.Background()
	r := container.New(sum, 1, 2)
	_, err := r.Realize(ctx)
	require.NoError(t, err)

	c := r.Copy()
	assert.False(t, c.IsRealized())
	assert.Equal(t, r.ArgsOf(), c.ArgsOf())
	assert.Equal(t, r.StrategyOf(), c.StrategyOf())

	v, err := c.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestRecipe_DeepCopy(t *testing.T) {
	ctx := context.Background()
	data := []int{1, 2}
	nested := container.New(data)
	r := container.New(func(xs []int) int { return sum(xs...) }, nested)

	c, err := r.DeepCopy()
	require.NoError(t, err)
	data[0] = 100

	copied, ok := c.ArgsOf()[0].(*container.Recipe)
	require.True(t, ok)
	assert.NotSame(t, nested, copied)

	v, err := c.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.False(t, nested.IsRealized(), "the original graph is untouched")
}

func TestRecipe_Introspection(t *testing.T) {
	kw := container.Kwargs{"host": "db"}
	r := container.New(sum, 1, 2, kw)

	assert.Equal(t, []any{1, 2}, r.ArgsOf())
	assert.Equal(t, kw, r.KwargsOf())
	assert.Equal(t, container.StrategyCall, r.StrategyOf())
	assert.True(t, r.IsAnonymous())
	assert.Equal(t, "", r.Name())
	assert.Equal(t, "Recipe '<anon>'", r.String())
	assert.False(t, r.IsRequired())
	assert.True(t, container.Require().IsRequired())
}
