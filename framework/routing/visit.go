package routing

import (
	"context"
	"net/http"

	"github.com/km-arc/go-bakery/framework/container"
	gohttp "github.com/km-arc/go-bakery/framework/http"
)

type instanceKey struct{}

// Visit opens c for the duration of each request and stores the instance
// in the request context. The first concurrent request realizes the
// container, later ones only count as visitors, and the last one out
// releases it. A failed open answers 503 with a JSON body and never reaches
// next.
//
//	r.Middleware(routing.Visit(people.Container))
//	r.Get("/people/{id}", func(w http.ResponseWriter, req *http.Request) {
//	    ctl := container.MustGet[*people.Controller](routing.InstanceFrom(req), "controller")
//	    ...
//	})
func Visit(c *container.Container) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			log := c.Logger()
			inst, err := c.Open(ctx)
			if err != nil {
				log.Error("request cannot visit container", "container", c.Name(), "error", err)
				gohttp.NewResponse(w).Unavailable(err.Error())
				return
			}
			defer func() {
				// the request context may already be canceled; release anyway
				if err := inst.Close(context.WithoutCancel(ctx)); err != nil {
					log.Error("request left container dirty", "container", c.Name(), "error", err)
				}
			}()
			next.ServeHTTP(w, req.WithContext(context.WithValue(ctx, instanceKey{}, inst)))
		})
	}
}

// InstanceFrom returns the instance Visit stored on req, or nil.
func InstanceFrom(req *http.Request) *container.Instance {
	inst, _ := req.Context().Value(instanceKey{}).(*container.Instance)
	return inst
}
