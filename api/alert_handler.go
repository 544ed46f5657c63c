package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/Taha-mlaiki/TrackTruck/alertlog"
	"github.com/Taha-mlaiki/TrackTruck/id"
)

func (a *API) registerAlertRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("alerts"))

	return g.GET("/alerts", a.listAlerts,
		forge.WithSummary("Query maintenance alerts"),
		forge.WithDescription("Returns the maintenance alert audit log, newest first."),
		forge.WithOperationID("listMaintenanceAlerts"),
		forge.WithRequestSchema(ListAlertsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Alert list", ListResponse[*alertlog.Entry]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listAlerts(ctx forge.Context, req *ListAlertsRequest) (*ListResponse[*alertlog.Entry], error) {
	filter := &alertlog.QueryFilter{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Trigger:      alertlog.Trigger(req.Trigger),
		Limit:        defaultLimit(req.Limit),
		Offset:       req.Offset,
	}

	if req.RuleID != "" {
		ruleID, err := id.ParseRuleID(req.RuleID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid rule_id: %v", err))
		}
		filter.RuleID = &ruleID
	}
	if req.After != "" {
		t, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest("invalid after timestamp")
		}
		filter.After = &t
	}
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest("invalid before timestamp")
		}
		filter.Before = &t
	}

	entries, total, err := a.eng.ListAlerts(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*alertlog.Entry]{
		Items:  entries,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
