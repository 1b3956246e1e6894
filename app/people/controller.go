package people

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/km-arc/go-bakery/framework/container"
	gohttp "github.com/km-arc/go-bakery/framework/http"
	"github.com/km-arc/go-bakery/framework/routing"
)

// ControllerOptions are the named arguments of NewController.
type ControllerOptions struct {
	LoggerName string
	Greeting   string
	Logger     container.Logger
}

// Controller serves people over HTTP.
type Controller struct {
	store    *Store
	name     string
	greeting string
	log      container.Logger
}

// NewController builds a controller over store.
func NewController(store *Store, o ControllerOptions) *Controller {
	if o.Logger == nil {
		o.Logger = container.NopLogger{}
	}
	return &Controller{store: store, name: o.LoggerName, greeting: o.Greeting, log: o.Logger}
}

func (c *Controller) String() string { return c.name }

// Show answers GET /people/{id}: the person, or 404 with an empty object.
func (c *Controller) Show(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	id, err := strconv.Atoi(routing.Param(r, "id"))
	if err != nil {
		res.Error(http.StatusBadRequest, "person id must be an integer")
		return
	}

	c.log.Debug("fetching person", "controller", c.name, "id", id)
	p, ok, err := c.store.FetchPerson(r.Context(), id)
	if err != nil {
		c.log.Error("fetch failed", "controller", c.name, "id", id, "error", err)
		res.ServerError()
		return
	}
	if !ok {
		c.log.Info("person not found", "controller", c.name, "id", id)
		res.JSON(http.StatusNotFound, map[string]any{})
		return
	}
	res.JSON(http.StatusOK, p)
}

// Store answers POST /people with {"person_id": id}.
func (c *Controller) Store(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	var in Person
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		res.Error(http.StatusBadRequest, "invalid person: "+err.Error())
		return
	}
	in.ID = 0

	id, err := c.store.InsertPerson(r.Context(), in)
	if err != nil {
		c.log.Error("insert failed", "controller", c.name, "error", err)
		res.ServerError()
		return
	}
	c.log.Debug("person inserted", "controller", c.name, "id", id)
	res.JSON(http.StatusCreated, map[string]int{"person_id": id})
}

// Info answers GET /info with the configured greeting.
func (c *Controller) Info(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(map[string]string{"greeting": c.greeting, "controller": c.name})
}
