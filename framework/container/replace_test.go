package container_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-bakery/framework/container"
)

func identity(x int) int { return x }

func TestReplacement_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kw := container.Kwargs{}
	r := container.New(identity, 1, kw)

	repl, err := container.OpenReplacement(r, 2)
	require.NoError(t, err)
	v, err := r.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	require.NoError(t, r.Release(ctx, nil))
	require.NoError(t, repl.Close())

	assert.Equal(t, reflect.ValueOf(identity).Pointer(), reflect.ValueOf(r.DefinitionOf()).Pointer())
	assert.Equal(t, []any{1}, r.ArgsOf())
	assert.Equal(t, kw, r.KwargsOf())
	assert.Equal(t, container.StrategyCall, r.StrategyOf())
	assert.False(t, r.IsRealized())

	v, err = r.Realize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestReplacement_PassThroughValue(t *testing.T) {
	original := &settings{DSN: "prod"}
	r := container.New(original)

	repl, err := r.Replace(container.New(&settings{DSN: "test"}))
	require.NoError(t, err)
	got, err := container.Value[*settings](r)
	require.NoError(t, err)
	assert.Equal(t, "test", got.DSN)

	require.NoError(t, repl.Close())
	got, err = container.Value[*settings](r)
	require.NoError(t, err)
	assert.Same(t, original, got)
}

func TestReplacement_Misuse(t *testing.T) {
	ctx := context.Background()

	t.Run("double replacement", func(t *testing.T) {
		r := container.New(identity, 1)
		_, err := r.Replace(container.New(2))
		require.NoError(t, err)
		_, err = r.Replace(container.New(3))
		assert.True(t, errors.Is(err, container.ErrReplacement), "got %v", err)
	})

	t.Run("live resource", func(t *testing.T) {
		r := container.New(identity, 1)
		_, err := r.Realize(ctx)
		require.NoError(t, err)
		_, err = container.OpenReplacement(r, 2)
		assert.True(t, errors.Is(err, container.ErrReplacement), "got %v", err)
	})

	t.Run("leaked value", func(t *testing.T) {
		r := container.New(identity, 1)
		repl, err := container.OpenReplacement(r, container.New(identity, 5))
		require.NoError(t, err)
		_, err = r.Realize(ctx)
		require.NoError(t, err)

		err = repl.Close()
		assert.True(t, errors.Is(err, container.ErrReplacement), "got %v", err)
		assert.False(t, r.IsRealized(), "the original state is restored anyway")
		assert.Equal(t, []any{1}, r.ArgsOf())
	})
}

func TestReplacement_CloseIsIdempotent(t *testing.T) {
	r := container.New(identity, 1)
	repl, err := container.OpenReplacement(r, 2)
	require.NoError(t, err)

	require.NoError(t, repl.Close())
	require.NoError(t, repl.Close())
	assert.Same(t, r, repl.Recipe())

	// a fresh replacement is allowed once the previous one is closed
	repl, err = container.OpenReplacement(r, 3)
	require.NoError(t, err)
	require.NoError(t, repl.Close())
}
