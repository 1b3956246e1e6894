package container_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/km-arc/go-bakery/framework/container"
)

// journal records lifecycle events in the order they happen.
type journal struct {
	mu     sync.Mutex
	events []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

func (j *journal) all() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

func (j *journal) count(event string) int {
	n := 0
	for _, e := range j.all() {
		if e == event {
			n++
		}
	}
	return n
}

// guard returns a sync guard yielding value that journals enter/exit.
func (j *journal) guard(name string, value any) container.Guard {
	return container.GuardFunc(
		func() (any, error) {
			j.add("enter %s", name)
			return value, nil
		},
		func(cause error) error {
			if cause != nil {
				j.add("exit %s: %v", name, cause)
				return nil
			}
			j.add("exit %s", name)
			return nil
		},
	)
}

// asyncGuard is the AsyncGuard counterpart of guard.
func (j *journal) asyncGuard(name string, value any) container.AsyncGuard {
	return container.AsyncGuardFunc(
		func(context.Context) (any, error) {
			j.add("enter %s", name)
			return value, nil
		},
		func(context.Context, error) error {
			j.add("exit %s", name)
			return nil
		},
	)
}

// failingExit is a guard whose exit returns err.
func (j *journal) failingExit(name string, err error) container.Guard {
	return container.GuardFunc(
		func() (any, error) {
			j.add("enter %s", name)
			return name, nil
		},
		func(error) error {
			j.add("exit %s", name)
			return err
		},
	)
}

func sum(xs ...int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// ── recording collaborators ──────────────────────────────────────────────────

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) Debug(msg string, args ...any)   { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)    { l.log("info", msg, args) }
func (l *recordingLogger) Warning(msg string, args ...any) { l.log("warning", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any)   { l.log("error", msg, args) }

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, e := range l.entries {
		if e.level == level {
			out = append(out, e.msg)
		}
	}
	return out
}

type recordingObserver struct {
	mu       sync.Mutex
	realized []string
	released []string
	visitors []int
}

func (o *recordingObserver) RecipeRealized(_, recipe string, _ container.Strategy, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		recipe += " (failed)"
	}
	o.realized = append(o.realized, recipe)
}

func (o *recordingObserver) RecipeReleased(_, recipe string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.released = append(o.released, recipe)
}

func (o *recordingObserver) VisitorsChanged(_ string, visitors int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visitors = append(o.visitors, visitors)
}
