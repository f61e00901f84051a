// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/omnierp/omnicore/internal/auth"
)

type contextKey string

const (
	// UserIDKey holds the authenticated user's id.
	UserIDKey = contextKey("omni_user_id")
	// OrgIDKey holds the organization id resolved from the bearer
	// token. This is the only tenant input downstream code may trust;
	// request bodies and query parameters never select the tenant.
	OrgIDKey = contextKey("omni_org_id")
	// RoleKey holds the caller's role code, also taken from the signed
	// token rather than anything client-editable.
	RoleKey = contextKey("omni_role")
)

// AuthMiddleware validates the bearer token and stamps the caller's
// identity and organization into the request context before any database
// access can happen.
func AuthMiddleware(tokenManager *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "No authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			claims, err := tokenManager.Validate(parts[1])
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, OrgIDKey, claims.OrgID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OrgIDFromContext returns the organization id stamped by
// AuthMiddleware, or false when the request is unauthenticated.
func OrgIDFromContext(ctx context.Context) (uint, bool) {
	orgID, ok := ctx.Value(OrgIDKey).(uint)
	return orgID, ok
}

// UserIDFromContext returns the authenticated user id.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// RoleFromContext returns the caller's role code.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
