// Package middleware provides the admin gate for TrackTruck HTTP routes.
// Authentication happens upstream: the gate only reads the user ID that an
// auth layer has placed on the request context.
package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/forge"

	"github.com/Taha-mlaiki/TrackTruck"
)

// Authorizer decides whether a user may perform admin operations.
type Authorizer interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, userID string) (bool, error)

// IsAdmin calls f.
func (f AuthorizerFunc) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return f(ctx, userID)
}

// StaticAuthorizer grants admin rights to a fixed set of user IDs. With an
// empty set every caller, including anonymous ones, is an admin.
type StaticAuthorizer struct {
	admins map[string]struct{}
}

// NewStaticAuthorizer returns an authorizer for userIDs. Blank entries are
// ignored.
func NewStaticAuthorizer(userIDs ...string) *StaticAuthorizer {
	a := &StaticAuthorizer{admins: make(map[string]struct{}, len(userIDs))}
	for _, u := range userIDs {
		if u = strings.TrimSpace(u); u != "" {
			a.admins[u] = struct{}{}
		}
	}
	return a
}

// Open reports whether the authorizer admits everyone.
func (a *StaticAuthorizer) Open() bool { return len(a.admins) == 0 }

// IsAdmin implements Authorizer.
func (a *StaticAuthorizer) IsAdmin(_ context.Context, userID string) (bool, error) {
	if a.Open() {
		return true, nil
	}
	_, ok := a.admins[userID]
	return ok, nil
}

// Authorize resolves the caller from ctx and returns an error wrapping
// tracktruck.ErrForbidden unless authz accepts it as an admin. A nil
// authz admits everyone.
func Authorize(ctx context.Context, authz Authorizer) error {
	if authz == nil {
		return nil
	}
	userID := forge.UserIDFromContext(ctx)
	ok, err := authz.IsAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("tracktruck: authorize %q: %w", userID, err)
	}
	if !ok {
		if userID == "" {
			userID = "anonymous"
		}
		return fmt.Errorf("%w: %s is not an admin", tracktruck.ErrForbidden, userID)
	}
	return nil
}
