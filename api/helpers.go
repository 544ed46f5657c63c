package api

import (
	"errors"
	"fmt"

	"github.com/xraph/forge"

	"github.com/Taha-mlaiki/TrackTruck"
	"github.com/Taha-mlaiki/TrackTruck/id"
	"github.com/Taha-mlaiki/TrackTruck/middleware"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, tracktruck.ErrRuleNotFound) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, tracktruck.ErrInvalidResourceType) ||
		errors.Is(err, tracktruck.ErrInvalidResourceID) ||
		errors.Is(err, tracktruck.ErrInvalidInterval) ||
		errors.Is(err, tracktruck.ErrIntervalRequired) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, tracktruck.ErrForbidden) {
		return forge.Forbidden(err.Error())
	}
	return err
}

// requireAdmin gates an admin-only handler.
func (a *API) requireAdmin(ctx forge.Context) error {
	return mapError(middleware.Authorize(ctx.Context(), a.authz))
}

func parseRuleID(ctx forge.Context) (id.RuleID, error) {
	ruleID, err := id.ParseRuleID(ctx.Param("ruleId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid rule ID: %v", err))
	}
	return ruleID, nil
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
