// Package metrics exports container lifecycle events to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c := b.Build(container.WithObserver(metrics.New(reg)))
//	http.Handle("/metrics", metrics.Handler(reg))
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-bakery/framework/container"
)

// Observer implements container.Observer on top of Prometheus collectors.
type Observer struct {
	realized *prometheus.CounterVec
	released *prometheus.CounterVec
	duration *prometheus.HistogramVec
	visitors *prometheus.GaugeVec
}

var _ container.Observer = (*Observer)(nil)

// New registers the bakery collectors on reg and returns an Observer that
// feeds them. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Observer {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Observer{
		realized: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bakery_recipe_realize_total",
			Help: "Recipes realized, by strategy and result",
		}, []string{"container", "recipe", "strategy", "result"}),
		released: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bakery_recipe_release_total",
			Help: "Recipes released, by result",
		}, []string{"container", "recipe", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bakery_recipe_realize_seconds",
			Help:    "Time spent realizing a recipe",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"container", "recipe"}),
		visitors: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bakery_visitors",
			Help: "Current visitors per container",
		}, []string{"container"}),
	}
}

func (o *Observer) RecipeRealized(c, recipe string, s container.Strategy, elapsed time.Duration, err error) {
	o.realized.WithLabelValues(c, recipe, s.String(), result(err)).Inc()
	o.duration.WithLabelValues(c, recipe).Observe(elapsed.Seconds())
}

func (o *Observer) RecipeReleased(c, recipe string, err error) {
	o.released.WithLabelValues(c, recipe, result(err)).Inc()
}

func (o *Observer) VisitorsChanged(c string, visitors int) {
	o.visitors.WithLabelValues(c).Set(float64(visitors))
}

// Handler serves the metrics gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
