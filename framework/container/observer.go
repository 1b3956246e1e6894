package container

import "time"

// Observer is notified of container lifecycle events. framework/metrics
// implements it with Prometheus collectors.
type Observer interface {
	// RecipeRealized runs after every realize attempt in an open pass,
	// err is nil on success.
	RecipeRealized(container, recipe string, s Strategy, elapsed time.Duration, err error)
	// RecipeReleased runs after every release in a close pass.
	RecipeReleased(container, recipe string, err error)
	// VisitorsChanged reports the visitor count after each Open and Close.
	VisitorsChanged(container string, visitors int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) RecipeRealized(string, string, Strategy, time.Duration, error) {}
func (NopObserver) RecipeReleased(string, string, error)                          {}
func (NopObserver) VisitorsChanged(string, int)                                   {}
