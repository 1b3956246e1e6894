// Package people is a small people service showing how an application
// composes its resources as recipes: settings, a connection, a store that
// connects while its container is open, and a controller on top.
package people

import (
	"net/http"

	"github.com/km-arc/go-bakery/framework/container"
	gohttp "github.com/km-arc/go-bakery/framework/http"
	"github.com/km-arc/go-bakery/framework/providers"
	"github.com/km-arc/go-bakery/framework/routing"
)

// Recipe names in the people container.
const (
	SettingsName   = "config"
	ConnectionName = "connection"
	DatabaseName   = "database"
	ControllerName = "controller"
)

// Define builds the people container from settings, a greeting and the
// logger handed to the controller.
func Define(s *Settings, greeting string, log container.Logger) *container.Container {
	b := container.NewBuilder("People")
	cfg := b.Add(SettingsName, s)

	conn := b.Add(ConnectionName, container.New(NewConnection, cfg.Attr("DSN"), container.Kwargs{
		"min_size": cfg.Attr("PoolMinSize"),
		"max_size": cfg.Attr("PoolMaxSize"),
	}))

	// the outer recipe enters the store the inner one builds
	database := b.Add(DatabaseName, container.New(container.New(NewStore, conn)))

	b.Add(ControllerName, container.New(NewController, database, container.Kwargs{
		"logger_name": cfg.Attr("LoggerName"),
		"greeting":    greeting,
		"logger":      log,
	}))

	return b.Build(container.WithLogger(log))
}

// Routes registers the people endpoints on r. Every request visits c, so
// the controller it reads is realized and stays so until the last
// concurrent request is done.
func Routes(c *container.Container) func(r *routing.Router) {
	return func(r *routing.Router) {
		r.Group(func(g *routing.Router) {
			g.Middleware(routing.Visit(c))
			g.Get("/people/{id}", withController(func(ctl *Controller) http.HandlerFunc { return ctl.Show }))
			g.Post("/people", withController(func(ctl *Controller) http.HandlerFunc { return ctl.Store }))
			g.Get("/info", withController(func(ctl *Controller) http.HandlerFunc { return ctl.Info }))
		})
	}
}

func withController(pick func(*Controller) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctl, err := container.Get[*Controller](routing.InstanceFrom(r), ControllerName)
		if err != nil {
			gohttp.NewResponse(w).ContainerError(err)
			return
		}
		pick(ctl)(w, r)
	}
}

// ── Provider ─────────────────────────────────────────────────────────────────

// Provider adds the people service to an application container.
//
// Recipes:
//   - "settings" → *Settings
//   - "greeting" → string, required
//   - "people"   → *container.Instance of the People container, open
//     while the application is
type Provider struct {
	container.BaseProvider
}

func (p *Provider) Register(b *container.Builder) {
	settings := b.Add("settings", container.New(LoadSettings))
	greeting := b.Add("greeting", container.Require())
	var logger any
	if l, ok := b.Lookup(providers.LoggerName); ok {
		logger = l
	}
	// the outer recipe opens the container the inner one defines
	b.Add("people", container.New(container.New(Define, settings, greeting, logger)))
}

// Routes implements app.RouteProvider.
func (p *Provider) Routes(b *container.Builder) *container.Recipe {
	people, _ := b.Lookup("people")
	return container.New(func(inst *container.Instance) func(*routing.Router) {
		return Routes(inst.Container())
	}, people)
}
