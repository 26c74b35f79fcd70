package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is a private type for context keys. Using an unexported type
// guarantees no other package can read or collide with our context values.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth returns middleware that extracts and validates the bearer
// token from the Authorization header. On success the request context
// carries the authenticated user's ID; on failure the request is rejected
// with 401 before reaching the handler.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			userID, err := tokens.Validate(token)
			if err != nil {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the authenticated user's ID placed in the
// context by RequireAuth. The bool reports whether one was present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}
