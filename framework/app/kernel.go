// Package app assembles the framework providers and the application's own
// providers into one container and runs it.
//
//	application := app.New(cfg, log, &people.Provider{})
//	if err := application.Run(ctx, overrides); err != nil {
//	    log.Error("application failed", "error", err)
//	}
package app

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/go-bakery/framework/config"
	"github.com/km-arc/go-bakery/framework/container"
	"github.com/km-arc/go-bakery/framework/metrics"
	"github.com/km-arc/go-bakery/framework/providers"
)

// RouteProvider is a provider that also contributes HTTP routes. Routes is
// called after Register and returns a recipe realizing to a
// func(*routing.Router).
type RouteProvider interface {
	container.ServiceProvider
	Routes(b *container.Builder) *container.Recipe
}

// Application is the top-level container together with the providers that
// filled it.
type Application struct {
	Config    *config.Config
	Logger    container.Logger
	Registry  *prometheus.Registry
	Providers *container.ProviderRegistry

	container *container.Container
}

// Option tweaks how New assembles the application.
type Option func(*options)

type options struct {
	addr string
}

// WithAddr overrides the listen address derived from config.App.Port.
func WithAddr(addr string) Option {
	return func(o *options) { o.addr = addr }
}

// New registers the framework providers (config, logging, metrics), then
// the given ones, then routing and the HTTP server, and builds the
// container.
func New(cfg *config.Config, log container.Logger, provs []container.ServiceProvider, opts ...Option) *Application {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = container.NopLogger{}
	}
	reg := prometheus.NewRegistry()
	registry := container.NewProviderRegistry(cfg.App.Name)

	registry.Register(&providers.ConfigServiceProvider{Config: cfg})
	registry.Register(&providers.LoggingServiceProvider{Logger: log})
	registry.Register(&providers.MetricsServiceProvider{Registry: reg})

	var routes []*container.Recipe
	for _, p := range provs {
		registry.Register(p)
		if rp, ok := p.(RouteProvider); ok {
			routes = append(routes, rp.Routes(registry.Builder()))
		}
	}

	registry.Register(&providers.RoutingServiceProvider{Routes: routes})
	registry.Register(&providers.ServerServiceProvider{Addr: o.addr})

	return &Application{
		Config:    cfg,
		Logger:    log,
		Registry:  reg,
		Providers: registry,
		container: registry.Build(container.WithLogger(log), container.WithObserver(metrics.New(reg))),
	}
}

// Container returns the application container.
func (a *Application) Container() *container.Container { return a.container }

// Start applies overrides, opens the container and boots the providers.
// On a boot failure the container is closed again.
func (a *Application) Start(ctx context.Context, overrides container.Kwargs) (*container.Instance, error) {
	inst, err := a.container.Instance(overrides)
	if err != nil {
		return nil, errors.Wrap(err, "app: overrides")
	}
	if _, err := inst.Open(ctx); err != nil {
		return nil, errors.Wrap(err, "app: open")
	}
	if err := a.Providers.Boot(ctx, inst); err != nil {
		if cerr := inst.Close(ctx); cerr != nil {
			a.Logger.Error("close after failed boot", "error", cerr)
		}
		return nil, errors.Wrap(err, "app: boot")
	}
	a.Logger.Info("application started",
		"name", a.Config.App.Name, "env", a.Config.App.Env, "generation", a.container.Generation())
	return inst, nil
}

// Run starts the application and blocks until ctx is done, then closes the
// container. A canceled ctx is a normal shutdown, not an error.
func (a *Application) Run(ctx context.Context, overrides container.Kwargs) error {
	inst, err := a.Start(ctx, overrides)
	if err != nil {
		return err
	}
	<-ctx.Done()
	a.Logger.Info("application stopping", "cause", context.Cause(ctx))
	if err := inst.Close(context.WithoutCancel(ctx)); err != nil {
		return errors.Wrap(err, "app: close")
	}
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }
