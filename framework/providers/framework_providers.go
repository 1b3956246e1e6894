package providers

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/go-bakery/framework/config"
	"github.com/km-arc/go-bakery/framework/container"
	"github.com/km-arc/go-bakery/framework/logging"
	"github.com/km-arc/go-bakery/framework/metrics"
	"github.com/km-arc/go-bakery/framework/routing"
)

// Recipe names registered by the framework providers.
const (
	ConfigName          = "config"
	LoggerName          = "logger"
	MetricsRegistryName = "metrics_registry"
	MetricsHandlerName  = "metrics_handler"
	RouterName          = "router"
	ServerName          = "server"
)

// lookup returns the recipe an earlier provider registered under name.
func lookup(b *container.Builder, name string) *container.Recipe {
	r, ok := b.Lookup(name)
	if !ok {
		panic("providers: " + name + " must be registered first")
	}
	return r
}

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider registers the application configuration.
//
// Recipes:
//   - "config" → *config.Config
//
// A preloaded Config is registered as is; otherwise config.Load runs when
// the container opens.
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(b *container.Builder) {
	if p.Config != nil {
		b.Add(ConfigName, p.Config)
		return
	}
	args := make([]any, len(p.EnvFiles))
	for i, f := range p.EnvFiles {
		args[i] = f
	}
	b.Add(ConfigName, container.New(config.Load, args...))
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider registers the logger handed to application code.
//
// Recipes:
//   - "logger" → container.Logger
//
// Without an explicit Logger the sink is built from config.Log.
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger container.Logger
}

func (p *LoggingServiceProvider) Register(b *container.Builder) {
	if p.Logger != nil {
		b.Add(LoggerName, container.ForceStrategy(p.Logger, container.StrategyPassThrough))
		return
	}
	cfg := lookup(b, ConfigName)
	b.Add(LoggerName, container.New(logging.NewContainerLogger, cfg.Attr("App").Attr("Name"), cfg.Attr("Log")))
}

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider registers the Prometheus registry and its HTTP
// handler.
//
// Recipes:
//   - "metrics_registry" → *prometheus.Registry
//   - "metrics_handler"  → http.Handler
type MetricsServiceProvider struct {
	container.BaseProvider
	Registry *prometheus.Registry
}

func (p *MetricsServiceProvider) Register(b *container.Builder) {
	var reg *container.Recipe
	if p.Registry != nil {
		reg = b.Add(MetricsRegistryName, p.Registry)
	} else {
		reg = b.Add(MetricsRegistryName, container.New(prometheus.NewRegistry))
	}
	b.Add(MetricsHandlerName, container.New(func(g *prometheus.Registry) http.Handler {
		return metrics.Handler(g)
	}, reg))
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router.
//
// Recipes:
//   - "router" → *routing.Router
//
// Each recipe in Routes must realize to a func(*routing.Router); they are
// applied in order once their dependencies are realized. The metrics
// handler, when registered, is mounted at /metrics.
type RoutingServiceProvider struct {
	container.BaseProvider
	Routes []*container.Recipe
}

func (p *RoutingServiceProvider) Register(b *container.Builder) {
	args := []any{lookup(b, LoggerName), nil}
	if h, ok := b.Lookup(MetricsHandlerName); ok {
		args[1] = h
	}
	for _, r := range p.Routes {
		args = append(args, r)
	}
	b.Add(RouterName, container.New(buildRouter, args...))
}

func buildRouter(log container.Logger, metricsHandler http.Handler, routes ...func(*routing.Router)) *routing.Router {
	r := routing.New(log)
	if metricsHandler != nil {
		r.Mount("/metrics", metricsHandler)
	}
	for _, register := range routes {
		register(r)
	}
	return r
}

// ── ServerServiceProvider ─────────────────────────────────────────────────────

// ServerServiceProvider registers the HTTP server. It starts listening when
// the container opens and shuts down gracefully when it closes.
//
// Recipes:
//   - "server" → *providers.Server
//
// Addr overrides the listen address derived from config.App.Port.
type ServerServiceProvider struct {
	container.BaseProvider
	Addr string
}

func (p *ServerServiceProvider) Register(b *container.Builder) {
	var addr any = p.Addr
	if p.Addr == "" {
		addr = container.New(listenAddr, lookup(b, ConfigName).Attr("App").Attr("Port"))
	}
	server := container.New(NewServer, addr, lookup(b, RouterName), lookup(b, LoggerName))
	// the outer recipe enters the server the inner one builds
	b.Add(ServerName, container.New(server))
}

func (p *ServerServiceProvider) Boot(_ context.Context, app *container.Instance) error {
	srv, err := container.Get[*Server](app, ServerName)
	if err != nil {
		return err
	}
	log, err := container.Get[container.Logger](app, LoggerName)
	if err != nil {
		return err
	}
	log.Info("server listening", "addr", srv.Addr())
	return nil
}
