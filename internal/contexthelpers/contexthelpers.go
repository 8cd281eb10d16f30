// Package contexthelpers provides typed accessors for request-scoped values.
package contexthelpers

import (
	"context"
)

type contextKey string

const IsAuthenticatedContextKey = contextKey("isAuthenticated")
const AuthenticatedUserIDContextKey = contextKey("authenticatedUserID")

// IsAuthenticated reports whether the request carries an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	isAuthenticated, ok := ctx.Value(IsAuthenticatedContextKey).(bool)
	if !ok {
		return false
	}

	return isAuthenticated
}

// AuthenticatedUserID returns the signed-in user's id or 0 when anonymous.
func AuthenticatedUserID(ctx context.Context) int64 {
	userID, ok := ctx.Value(AuthenticatedUserIDContextKey).(int64)
	if !ok {
		return 0
	}

	return userID
}

// AuthenticateContext stores the authenticated user in the context.
func AuthenticateContext(ctx context.Context, userID int64) context.Context {
	ctx = context.WithValue(ctx, IsAuthenticatedContextKey, true)
	return context.WithValue(ctx, AuthenticatedUserIDContextKey, userID)
}
