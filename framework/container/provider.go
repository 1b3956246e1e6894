package container

import (
	"context"
	"fmt"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider contributes recipes to a container and, once the
// container is open, finishes wiring with the realized values.
//
// Register runs while the container is still being built: it may only add
// recipes and compose them lazily. Boot runs after the first Open, when
// every recipe is realized.
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(b *container.Builder) {
//	    cfg := b.Add("config", config.Load)
//	    b.Add("logger", container.New(logging.New, cfg.Attr("Log")))
//	}
//
//	func (p *AppServiceProvider) Boot(ctx context.Context, app *container.Instance) error {
//	    log, err := container.Get[*slog.Logger](app, "logger")
//	    if err != nil {
//	        return err
//	    }
//	    log.Info("application booted")
//	    return nil
//	}
type ServiceProvider interface {
	// Register adds recipes. Do NOT force recipes here; use Boot for that.
	Register(b *Builder)

	// Boot is called once, after the container is opened.
	Boot(ctx context.Context, app *Instance) error
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op Boot.
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(b *container.Builder) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(context.Context, *Instance) error { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry collects providers, builds the container from what they
// register and boots them in registration order.
type ProviderRegistry struct {
	builder    *Builder
	app        *Container
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry whose container will be called
// name.
func NewProviderRegistry(name string) *ProviderRegistry {
	return &ProviderRegistry{
		builder:    NewBuilder(name),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method. Registering the
// same provider twice is a no-op; registering after Build panics because
// the recipe set is fixed by then.
func (r *ProviderRegistry) Register(provider ServiceProvider) {
	if r.registered[provider] {
		return
	}
	if r.app != nil {
		panic(fmt.Sprintf("container: %s: provider %T registered after build", r.builder.name, provider))
	}
	r.registered[provider] = true
	provider.Register(r.builder)
	r.providers = append(r.providers, provider)
}

// Builder exposes the builder providers register into, for callers that
// add recipes derived from a provider after its Register ran.
func (r *ProviderRegistry) Builder() *Builder { return r.builder }

// Build returns the container holding every registered recipe. Later calls
// return the same container.
func (r *ProviderRegistry) Build(opts ...Option) *Container {
	if r.app == nil {
		r.app = r.builder.Build(opts...)
	}
	return r.app
}

// Boot calls Boot on every provider, stopping at the first error. It runs
// once; later calls return nil.
func (r *ProviderRegistry) Boot(ctx context.Context, app *Instance) error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.providers {
		if err := provider.Boot(ctx, app); err != nil {
			return err
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns all registered providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }
