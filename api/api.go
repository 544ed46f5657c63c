// Package api provides HTTP handlers for the TrackTruck maintenance engine.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/Taha-mlaiki/TrackTruck"
	"github.com/Taha-mlaiki/TrackTruck/middleware"
)

// API wires all TrackTruck HTTP handlers together.
type API struct {
	eng    *tracktruck.Engine
	router forge.Router
	authz  middleware.Authorizer
}

// New creates an API from an Engine and a Forge router. Admin routes are
// gated by authz; a nil authz leaves them open.
func New(eng *tracktruck.Engine, router forge.Router, authz middleware.Authorizer) *API {
	return &API{eng: eng, router: router, authz: authz}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("tracktruck: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerHealthRoutes,
		a.registerMaintenanceRoutes,
		a.registerAlertRoutes,
		a.registerNotificationRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
