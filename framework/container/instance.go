package container

import "context"

// Instance is a handle on a container. It holds no state of its own:
// every instance of a container sees the same visitors, overrides and
// realized values.
//
// Reading a name through an Instance forces the recipe, so once the
// container is open inst.Get("db") is the realized database, not its recipe.
type Instance struct {
	c *Container
}

// Open adds a visitor. See (*Container).Open.
func (i *Instance) Open(ctx context.Context) (*Instance, error) {
	if err := i.c.open(ctx); err != nil {
		return nil, err
	}
	return i, nil
}

// Close removes a visitor. See (*Container).Close.
func (i *Instance) Close(ctx context.Context) error {
	return i.c.close(ctx, nil)
}

// Container returns the container behind the handle.
func (i *Instance) Container() *Container { return i.c }

// Get returns the realized value registered under name.
//
// Get does not lock the container: call it between a successful Open and
// the matching Close.
func (i *Instance) Get(name string) (any, error) {
	r, ok := i.c.index[name]
	if !ok {
		return nil, newError(ErrCodeNotFound, i.c, "no recipe named %q", name)
	}
	return r.Value()
}

// Attribute implements Attributer, so accessors can read through a nested
// container's instance.
func (i *Instance) Attribute(name string) (any, error) {
	return i.Get(name)
}

func (i *Instance) String() string {
	return i.c.String() + " instance"
}

// Get is the typed form of (*Instance).Get.
//
//	db, err := container.Get[*sql.DB](inst, "db")
func Get[T any](i *Instance, name string) (T, error) {
	var zero T
	r, ok := i.c.index[name]
	if !ok {
		return zero, newError(ErrCodeNotFound, i.c, "no recipe named %q", name)
	}
	return Value[T](r)
}

// MustGet is like Get but panics on error. Meant for wiring code that runs
// right after a successful Open.
func MustGet[T any](i *Instance, name string) T {
	v, err := Get[T](i, name)
	if err != nil {
		panic(err)
	}
	return v
}
