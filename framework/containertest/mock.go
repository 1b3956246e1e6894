// Package containertest helps tests open a container with some of its
// recipes swapped for fakes.
//
//	func TestHandler(t *testing.T) {
//	    m := containertest.NewMock(t).Set("store", fakeStore{})
//	    inst := m.Patch(ctx, people.Container)
//	    ...
//	}
//
// The container is closed and its overrides are rolled back when the test
// ends.
package containertest

import (
	"context"
	"testing"

	"github.com/km-arc/go-bakery/framework/container"
)

// Mock collects overrides and installs them on a container for the duration
// of a test.
type Mock struct {
	t         testing.TB
	overrides container.Kwargs
	patched   []*container.Instance
}

// NewMock returns an empty Mock bound to t.
func NewMock(t testing.TB) *Mock {
	t.Helper()
	m := &Mock{t: t, overrides: container.Kwargs{}}
	t.Cleanup(func() { m.Reset(context.Background()) })
	return m
}

// Set records an override for name. It returns m for chaining.
func (m *Mock) Set(name string, value any) *Mock {
	m.overrides[name] = value
	return m
}

// Patch installs the recorded overrides on c and opens it. Any failure
// fails the test immediately. A container that is already open refuses
// overrides, so it cannot be patched.
func (m *Mock) Patch(ctx context.Context, c *container.Container) *container.Instance {
	m.t.Helper()
	inst, err := c.Instance(m.overrides)
	if err != nil {
		m.t.Fatalf("containertest: patch %s: %v", c, err)
	}
	if _, err := inst.Open(ctx); err != nil {
		m.t.Fatalf("containertest: open %s: %v", c, err)
	}
	m.patched = append(m.patched, inst)
	return inst
}

// Reset closes every patched container, newest first, which rolls its
// overrides back. Close failures are reported as test errors.
func (m *Mock) Reset(ctx context.Context) {
	m.t.Helper()
	for i := len(m.patched) - 1; i >= 0; i-- {
		inst := m.patched[i]
		if err := inst.Close(ctx); err != nil {
			m.t.Errorf("containertest: close %s: %v", inst.Container(), err)
		}
	}
	m.patched = nil
}
