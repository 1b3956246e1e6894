// Package container composes an application out of lazily realized,
// interdependent recipes with scoped-resource semantics.
//
// # Overview
//
// A Recipe pairs a definition with its arguments. Arguments may be other
// recipes; realizing a recipe realizes those first. How the definition
// becomes a value is decided by its shape (its Strategy):
//
//	func(ctx context.Context, ...) (T, error)   call-context
//	Awaitable                                   await
//	AsyncGuard (Enter(ctx) / Exit(ctx, cause))  enter-async
//	Guard (Enter() / Exit(cause))               enter-sync
//	nil, bool, numbers, strings, slices, maps   builtin (nested recipes substituted)
//	any other func                              call
//	everything else                             pass-through
//
// A Container is an ordered registry of named recipes. The first Open
// realizes them in declaration order; the Close that drops the visitor
// count to zero releases them in exact reverse order, exiting every guard
// that was entered.
//
// # Container Lifecycle
//
//  1. Define: c := container.Define("App", items) or NewBuilder(...).Build()
//  2. Override (optional): inst, err := c.Instance(container.Kwargs{...})
//  3. Open: inst.Open(ctx)        realizes everything, rolls back on error
//  4. Use: container.Get[T](inst, "name")
//  5. Close: inst.Close(ctx)      releases everything, rolls overrides back
//
// # Recipes
//
//	hours := container.New(8)
//	week := container.New(sum, hours, hours, 7, 9, hours)
//	days := container.New(func(w int) float64 { return float64(w) / 24 }, week)
//
//	// Named arguments go to a trailing Kwargs or struct parameter.
//	conn := container.New(Dial, container.Kwargs{"host": "db", "port": 5432})
//
// # Deferred Accessors
//
// Attr and Index describe reads on a value that does not exist yet:
//
//	settings := b.Add("settings", &Settings{DSN: "memory://"})
//	b.Add("store", container.New(NewStore, settings.Attr("DSN")))
//
// # Required Values
//
//	b.Add("greeting", container.Require())
//	inst, err := b.Build().Instance(container.Kwargs{"greeting": "hello"})
//
// Opening a container with an unfilled Required recipe fails before
// anything is realized and names every missing value.
//
// # Replacement
//
//	repl, err := container.OpenReplacement(port, 9090)
//	...
//	err = repl.Close() // port is back to its original definition
//
// # Service Providers
//
//	reg := container.NewProviderRegistry("App")
//	reg.Register(&AppServiceProvider{})
//	c := reg.Build()
//	inst, err := c.Open(ctx)
//	err = reg.Boot(ctx, inst)
package container
