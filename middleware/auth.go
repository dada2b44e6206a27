// Package middleware holds the request gates composed explicitly per route.
// Token verification itself happens at the identity gateway in front of this
// service; by the time a request lands here the user id header is trusted.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

// userIDKey carries the authenticated user id through the request context.
const userIDKey contextKey = "userId"

// UserIDHeader is set by the identity gateway after token verification.
const UserIDHeader = "X-User-Id"

// RequireUser rejects requests without an authenticated user id and stores
// the id in the request context for handlers.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(r *http.Request) string {
	if id, ok := r.Context().Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
