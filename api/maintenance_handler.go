package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/Taha-mlaiki/TrackTruck/maintenance"
)

func (a *API) registerMaintenanceRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("maintenance"))

	if err := g.POST("/maintenance", a.createRule,
		forge.WithSummary("Create maintenance rule"),
		forge.WithDescription("Creates a maintenance rule for a truck, trailer or tire. Admin only."),
		forge.WithOperationID("createMaintenanceRule"),
		forge.WithRequestSchema(CreateRuleRequest{}),
		forge.WithCreatedResponse(&maintenance.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/maintenance", a.listRules,
		forge.WithSummary("List maintenance rules"),
		forge.WithDescription("Lists maintenance rules, optionally filtered by asset."),
		forge.WithOperationID("listMaintenanceRules"),
		forge.WithRequestSchema(ListRulesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Rule list", ListResponse[*maintenance.Rule]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/maintenance/check", a.checkRules,
		forge.WithSummary("Run maintenance check"),
		forge.WithDescription("Evaluates every rule now and publishes due alerts. Admin only."),
		forge.WithOperationID("checkMaintenanceRules"),
		forge.WithResponseSchema(http.StatusOK, "Pass report", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/maintenance/:ruleId", a.getRule,
		forge.WithSummary("Get maintenance rule"),
		forge.WithDescription("Returns a single maintenance rule."),
		forge.WithOperationID("getMaintenanceRule"),
		forge.WithResponseSchema(http.StatusOK, "Rule details", &maintenance.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PATCH("/maintenance/:ruleId", a.updateRule,
		forge.WithSummary("Update maintenance rule"),
		forge.WithDescription("Applies a partial update to a maintenance rule. Admin only."),
		forge.WithOperationID("updateMaintenanceRule"),
		forge.WithRequestSchema(UpdateRuleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated rule", &maintenance.Rule{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/maintenance/:ruleId", a.deleteRule,
		forge.WithSummary("Delete maintenance rule"),
		forge.WithDescription("Deletes a maintenance rule. Admin only."),
		forge.WithOperationID("deleteMaintenanceRule"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRule(ctx forge.Context, req *CreateRuleRequest) (*maintenance.Rule, error) {
	if err := a.requireAdmin(ctx); err != nil {
		return nil, err
	}

	r := &maintenance.Rule{
		ResourceType: maintenance.ResourceType(req.ResourceType),
		ResourceID:   req.ResourceID,
		IntervalKm:   req.IntervalKm,
		IntervalDays: req.IntervalDays,
		LastRun:      req.LastRun,
		Description:  req.Description,
	}
	if err := a.eng.CreateRule(ctx.Context(), r); err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) listRules(ctx forge.Context, req *ListRulesRequest) (*ListResponse[*maintenance.Rule], error) {
	filter := &maintenance.ListFilter{
		ResourceType: maintenance.ResourceType(req.ResourceType),
		ResourceID:   req.ResourceID,
		Limit:        defaultLimit(req.Limit),
		Offset:       req.Offset,
	}
	if filter.ResourceType != "" && !filter.ResourceType.Valid() {
		return nil, forge.BadRequest("resource_type must be truck, trailer or tire")
	}

	rules, err := a.eng.ListRules(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}
	total, err := a.eng.CountRules(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ListResponse[*maintenance.Rule]{
		Items:  rules,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getRule(ctx forge.Context, _ *GetRuleRequest) (*maintenance.Rule, error) {
	ruleID, err := parseRuleID(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.eng.GetRule(ctx.Context(), ruleID)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) updateRule(ctx forge.Context, req *UpdateRuleRequest) (*maintenance.Rule, error) {
	if err := a.requireAdmin(ctx); err != nil {
		return nil, err
	}
	ruleID, err := parseRuleID(ctx)
	if err != nil {
		return nil, err
	}

	patch := &maintenance.Patch{
		ResourceID:   req.ResourceID,
		IntervalKm:   req.IntervalKm,
		IntervalDays: req.IntervalDays,
		LastRun:      req.LastRun,
		ClearLastRun: req.ClearLastRun,
		Description:  req.Description,
	}
	if req.ResourceType != nil {
		rt := maintenance.ResourceType(*req.ResourceType)
		patch.ResourceType = &rt
	}

	r, err := a.eng.UpdateRule(ctx.Context(), ruleID, patch)
	if err != nil {
		return nil, mapError(err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) deleteRule(ctx forge.Context, _ *GetRuleRequest) (*struct{}, error) {
	if err := a.requireAdmin(ctx); err != nil {
		return nil, err
	}
	ruleID, err := parseRuleID(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.eng.DeleteRule(ctx.Context(), ruleID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) checkRules(ctx forge.Context, _ *CheckRulesRequest) (*CheckResponse, error) {
	if err := a.requireAdmin(ctx); err != nil {
		return nil, err
	}

	report, err := a.eng.CheckAllRules(ctx.Context())
	if err != nil {
		return nil, mapError(err)
	}

	resp := toCheckResponse(report)
	return resp, ctx.JSON(http.StatusOK, resp)
}
