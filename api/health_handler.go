package api

import (
	"net/http"
	"time"

	"github.com/xraph/forge"
)

func (a *API) registerHealthRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("health"))

	return g.GET("/health", a.health,
		forge.WithSummary("Health check"),
		forge.WithDescription("Reports ok when the rule store answers a ping."),
		forge.WithOperationID("health"),
		forge.WithResponseSchema(http.StatusOK, "Healthy", HealthResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) health(ctx forge.Context, _ *HealthRequest) (*HealthResponse, error) {
	resp := &HealthResponse{Status: "ok", Timestamp: time.Now().UTC()}
	if err := a.eng.Store().Ping(ctx.Context()); err != nil {
		resp.Status = "unavailable"
		return resp, ctx.JSON(http.StatusServiceUnavailable, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
