package container

import (
	"context"
	"io"
)

// Awaitable is a value whose result is obtained by waiting on it.
// Recipes over an Awaitable use StrategyAwait.
type Awaitable interface {
	Await(ctx context.Context) (any, error)
}

// AsyncGuard is a scoped resource whose enter and exit may block on ctx.
// Enter yields the value the recipe realizes to; Exit is called once on
// release with the error that triggered the release, if any.
type AsyncGuard interface {
	Enter(ctx context.Context) (any, error)
	Exit(ctx context.Context, cause error) error
}

// Guard is the synchronous counterpart of AsyncGuard.
type Guard interface {
	Enter() (any, error)
	Exit(cause error) error
}

// ── Adapters ─────────────────────────────────────────────────────────────────

// AwaitFunc adapts a function to Awaitable.
//
//	token := container.New(container.AwaitFunc(func(ctx context.Context) (any, error) {
//	    return fetchToken(ctx)
//	}))
func AwaitFunc(f func(ctx context.Context) (any, error)) Awaitable {
	return &funcAwaitable{fn: f}
}

type funcAwaitable struct {
	fn func(ctx context.Context) (any, error)
}

func (a *funcAwaitable) Await(ctx context.Context) (any, error) { return a.fn(ctx) }

// GuardFunc builds a Guard from an enter and an exit function.
// A nil exit is allowed.
func GuardFunc(enter func() (any, error), exit func(cause error) error) Guard {
	return &funcGuard{enter: enter, exit: exit}
}

type funcGuard struct {
	enter func() (any, error)
	exit  func(cause error) error
}

func (g *funcGuard) Enter() (any, error) { return g.enter() }

func (g *funcGuard) Exit(cause error) error {
	if g.exit == nil {
		return nil
	}
	return g.exit(cause)
}

// AsyncGuardFunc builds an AsyncGuard from an enter and an exit function.
// A nil exit is allowed.
func AsyncGuardFunc(
	enter func(ctx context.Context) (any, error),
	exit func(ctx context.Context, cause error) error,
) AsyncGuard {
	return &funcAsyncGuard{enter: enter, exit: exit}
}

type funcAsyncGuard struct {
	enter func(ctx context.Context) (any, error)
	exit  func(ctx context.Context, cause error) error
}

func (g *funcAsyncGuard) Enter(ctx context.Context) (any, error) { return g.enter(ctx) }

func (g *funcAsyncGuard) Exit(ctx context.Context, cause error) error {
	if g.exit == nil {
		return nil
	}
	return g.exit(ctx, cause)
}

// Closing turns an io.Closer into a Guard that yields the closer itself and
// closes it on release.
//
//	db := container.New(container.New(func(dsn string) (container.Guard, error) {
//	    conn, err := sql.Open("postgres", dsn)
//	    return container.Closing(conn), err
//	}, dsn))
func Closing(c io.Closer) Guard {
	return GuardFunc(
		func() (any, error) { return c, nil },
		func(error) error { return c.Close() },
	)
}
