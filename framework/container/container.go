package container

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ── Registration ─────────────────────────────────────────────────────────────

// Item is one named entry handed to Define. Value may be a *Recipe, an
// *Accessor, a *Container or any plain value; plain values are wrapped with
// New.
type Item struct {
	Name  string
	Value any
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sends the container's lifecycle events, and those of the
// recipes it realizes, to l.
func WithLogger(l Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver reports realize, release and visitor events to o.
func WithObserver(o Observer) Option {
	return func(c *Container) {
		if o != nil {
			c.observer = o
		}
	}
}

// ── Container ────────────────────────────────────────────────────────────────

// Container is an ordered registry of named recipes with a reentrant
// open/close lifecycle.
//
// The first Open realizes every recipe in declaration order; later Opens
// only count visitors. The Close that brings the count back to zero
// releases every recipe in exact reverse order. If a recipe fails to
// realize, everything realized so far is released before the error is
// returned.
//
//	c := container.Define("MyApp", []container.Item{
//	    {"average_hours", 8},
//	    {"week_hours", container.New(sum, hours, hours, 7, 9, hours)},
//	})
//	inst, err := c.Open(ctx)
//	if err != nil {
//	    return err
//	}
//	defer inst.Close(ctx)
//
// A mutex serializes Instance, Open and Close, including the realize and
// release passes they run. Re-entering the same container from inside one
// of its own recipes deadlocks.
type Container struct {
	mu sync.Mutex

	name    string
	recipes []*Recipe
	index   map[string]*Recipe

	visitors   int
	generation string

	// name → active override, in the order they were applied
	pending      map[string]*Replacement
	pendingOrder []string

	logger   Logger
	observer Observer
}

// Define builds a container from ordered items. Names of the form __x__ are
// skipped. An empty or duplicate name panics: registration is a
// programming error, not a runtime condition.
func Define(name string, items []Item, opts ...Option) *Container {
	c := &Container{
		name:     name,
		index:    make(map[string]*Recipe),
		pending:  make(map[string]*Replacement),
		logger:   NopLogger{},
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, it := range items {
		c.register(it.Name, it.Value)
	}
	return c
}

func (c *Container) register(name string, v any) {
	if isDunder(name) {
		return
	}
	if name == "" {
		panic(fmt.Sprintf("container: %s: recipe registered without a name", c.name))
	}
	if _, dup := c.index[name]; dup {
		panic(fmt.Sprintf("container: %s: [%s] is registered twice", c.name, name))
	}
	r := wrap(v)
	if r.name != "" && r.name != name {
		panic(fmt.Sprintf("container: %s: [%s] is already registered as [%s]", c.name, name, r.name))
	}
	r.name = name
	c.recipes = append(c.recipes, r)
	c.index[name] = r
}

func wrap(v any) *Recipe {
	if r, ok := v.(*Recipe); ok && r != nil {
		return r
	}
	return New(v)
}

func isDunder(name string) bool {
	return strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__")
}

// ── Builder ──────────────────────────────────────────────────────────────────

// Builder collects recipes one by one so later recipes can refer to earlier
// ones.
//
//	b := container.NewBuilder("PeopleApp")
//	settings := b.Add("settings", &Settings{DSN: "memory://"})
//	b.Add("store", container.New(NewStore, settings.Attr("DSN")))
//	c := b.Build(container.WithLogger(log))
type Builder struct {
	name  string
	items []Item
	names map[string]bool
}

// NewBuilder starts a builder for a container called name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name, names: make(map[string]bool)}
}

// Add registers def under name and returns its recipe. A dunder name
// returns the wrapped recipe without registering it.
func (b *Builder) Add(name string, def any) *Recipe {
	r := wrap(def)
	if isDunder(name) {
		return r
	}
	if name == "" {
		panic(fmt.Sprintf("container: %s: recipe registered without a name", b.name))
	}
	if b.names[name] {
		panic(fmt.Sprintf("container: %s: [%s] is registered twice", b.name, name))
	}
	b.names[name] = true
	b.items = append(b.items, Item{Name: name, Value: r})
	return r
}

// Has reports whether name was added.
func (b *Builder) Has(name string) bool { return b.names[name] }

// Lookup returns the recipe added under name, so later additions can depend
// on it.
func (b *Builder) Lookup(name string) (*Recipe, bool) {
	if !b.names[name] {
		return nil, false
	}
	for _, it := range b.items {
		if it.Name == name {
			return it.Value.(*Recipe), true
		}
	}
	return nil, false
}

// Build returns the container. The builder must not be used afterwards.
func (b *Builder) Build(opts ...Option) *Container {
	return Define(b.name, b.items, opts...)
}

// ── Overrides ────────────────────────────────────────────────────────────────

// Instance returns a handle on c, first installing overrides: each named
// recipe is replaced by the given value until the container's next full
// close. Overrides are only accepted while the container has no visitors,
// and each name at most once until they are rolled back.
//
//	inst, err := c.Instance(container.Kwargs{"greeting": "hi"})
//	if err != nil {
//	    return err
//	}
//	if _, err := inst.Open(ctx); err != nil {
//	    return err
//	}
//	defer inst.Close(ctx)
func (c *Container) Instance(overrides Kwargs) (*Instance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.override(overrides); err != nil {
		return nil, err
	}
	return &Instance{c: c}, nil
}

func (c *Container) override(overrides Kwargs) error {
	if len(overrides) == 0 {
		return nil
	}
	if c.visitors > 0 {
		return newError(ErrCodeDuplicateOverride, c, "cannot apply overrides while open")
	}

	names := sortedKeys(overrides)
	var unknown, twice []string
	for _, name := range names {
		if _, ok := c.index[name]; !ok {
			unknown = append(unknown, name)
		} else if _, ok := c.pending[name]; ok {
			twice = append(twice, name)
		}
	}
	if len(unknown) > 0 {
		return newError(ErrCodeUnknownOverride, c, "unexpected override %s", joinQuoted(unknown))
	}
	if len(twice) > 0 {
		return newError(ErrCodeDuplicateOverride, c, "initialized multiple times with keyword arguments %s", joinQuoted(twice))
	}

	applied := make([]string, 0, len(names))
	for _, name := range names {
		repl, err := OpenReplacement(c.index[name], overrides[name])
		if err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				_ = c.pending[applied[i]].Close()
				delete(c.pending, applied[i])
			}
			c.pendingOrder = c.pendingOrder[:len(c.pendingOrder)-len(applied)]
			return err
		}
		c.pending[name] = repl
		c.pendingOrder = append(c.pendingOrder, name)
		applied = append(applied, name)
	}
	c.logger.Debug("container overrides applied", "container", c.name, "names", names)
	return nil
}

// rollbackOverrides closes active overrides newest first.
func (c *Container) rollbackOverrides() []error {
	var errs []error
	for i := len(c.pendingOrder) - 1; i >= 0; i-- {
		name := c.pendingOrder[i]
		if err := c.pending[name].Close(); err != nil {
			errs = append(errs, err)
		}
		delete(c.pending, name)
	}
	c.pendingOrder = nil
	return errs
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

// Open adds a visitor, realizing every recipe if it is the first one.
func (c *Container) Open(ctx context.Context) (*Instance, error) {
	inst := &Instance{c: c}
	if err := c.open(ctx); err != nil {
		return nil, err
	}
	return inst, nil
}

// Close removes a visitor, releasing every recipe in reverse order if it
// was the last one. Every release runs even when some fail; the first
// failure is returned and the rest are logged. Overrides are rolled back
// either way.
func (c *Container) Close(ctx context.Context) error {
	return c.close(ctx, nil)
}

// Enter opens c as a nested container; it yields the *Instance.
func (c *Container) Enter(ctx context.Context) (any, error) {
	return c.Open(ctx)
}

// Exit closes c as a nested container.
func (c *Container) Exit(ctx context.Context, cause error) error {
	return c.close(ctx, cause)
}

func (c *Container) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.visitors > 0 {
		c.visitors++
		c.observer.VisitorsChanged(c.name, c.visitors)
		c.logger.Debug("container visited", "container", c.name, "generation", c.generation, "visitors", c.visitors)
		return nil
	}

	if missing := c.missing(); len(missing) > 0 {
		for _, err := range c.rollbackOverrides() {
			c.logger.Error("override rollback failed", "container", c.name, "error", err)
		}
		noun := "arguments"
		if len(missing) == 1 {
			noun = "argument"
		}
		return newError(ErrCodeMissingRequired, c, "missing %d required %s: %s", len(missing), noun, joinQuoted(missing))
	}

	c.visitors = 1
	c.generation = uuid.NewString()
	ctx = ContextWithLogger(ctx, c.logger)

	for _, r := range c.recipes {
		start := time.Now()
		_, err := r.Realize(ctx)
		c.observer.RecipeRealized(c.name, r.name, r.applied, time.Since(start), err)
		if err != nil {
			c.logger.Error("recipe cannot be realized",
				"container", c.name, "generation", c.generation, "recipe", r.String(), "error", err)
			if cerr := c.closeLocked(ctx, err); cerr != nil {
				c.logger.Error("rollback after failed open", "container", c.name, "error", cerr)
			}
			return err
		}
	}

	c.observer.VisitorsChanged(c.name, c.visitors)
	c.logger.Debug("container opened", "container", c.name, "generation", c.generation, "recipes", len(c.recipes))
	return nil
}

func (c *Container) close(ctx context.Context, cause error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked(ContextWithLogger(ctx, c.logger), cause)
}

func (c *Container) closeLocked(ctx context.Context, cause error) error {
	if c.visitors == 0 {
		return newError(ErrCodeNotOpen, c, "close without a matching open")
	}
	c.visitors--
	c.observer.VisitorsChanged(c.name, c.visitors)
	if c.visitors > 0 {
		c.logger.Debug("container is working till the last visitor",
			"container", c.name, "generation", c.generation, "visitors", c.visitors)
		return nil
	}

	var errs []error
	for i := len(c.recipes) - 1; i >= 0; i-- {
		r := c.recipes[i]
		err := r.Release(ctx, cause)
		c.observer.RecipeReleased(c.name, r.name, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, c.rollbackOverrides()...)

	c.logger.Debug("container closed", "container", c.name, "generation", c.generation)
	c.generation = ""
	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs[1:] {
		c.logger.Error("release failure dropped", "container", c.name, "error", err)
	}
	return errs[0]
}

// missing lists required placeholders, in declaration order.
func (c *Container) missing() []string {
	var names []string
	for _, r := range c.recipes {
		if r.IsRequired() {
			names = append(names, r.name)
		}
	}
	return names
}

// Redefine resets the visitor count and drops pending overrides, restoring
// the state right after Define. It refuses while the container is open.
func (c *Container) Redefine() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visitors > 0 {
		return newError(ErrCodeStillOpen, c, "cannot redefine with %d visitors", c.visitors)
	}
	errs := c.rollbackOverrides()
	c.visitors = 0
	c.generation = ""
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ── Introspection ────────────────────────────────────────────────────────────

// Recipe returns the recipe registered under name, for lazy composition
// before the container is opened.
func (c *Container) Recipe(name string) (*Recipe, bool) {
	r, ok := c.index[name]
	return r, ok
}

// Names returns the registered names in declaration order.
func (c *Container) Names() []string {
	names := make([]string, len(c.recipes))
	for i, r := range c.recipes {
		names[i] = r.name
	}
	return names
}

// Visitors returns the current visitor count.
func (c *Container) Visitors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visitors
}

// Generation returns the id of the current open pass, or "" when closed.
func (c *Container) Generation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *Container) Name() string { return c.name }

// Logger returns the logger given with WithLogger, or a NopLogger.
func (c *Container) Logger() Logger { return c.logger }

func (c *Container) String() string {
	if c == nil || c.name == "" {
		return "Container"
	}
	return c.name
}

// joinQuoted renders names the way Python argument errors do:
// 'a'; 'a' and 'b'; 'a', 'b' and 'c'.
func joinQuoted(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = "'" + n + "'"
	}
	switch len(q) {
	case 0:
		return ""
	case 1:
		return q[0]
	}
	return strings.Join(q[:len(q)-1], ", ") + " and " + q[len(q)-1]
}
