package http

import (
	"context"
	"net/http"
	"strings"

	"tally/internal/auth"
	"tally/internal/core"
)

type contextKey string

const userIDKey contextKey = "user_id"

// requireAuth verifies the Bearer token and stamps the request context
// with the authenticated user ID.
func requireAuth(tokens *auth.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// userIDFrom returns the authenticated user ID placed by requireAuth.
func userIDFrom(ctx context.Context) core.UserID {
	id, _ := ctx.Value(userIDKey).(core.UserID)
	return id
}

// extractClientIP resolves the client address, honoring proxy headers.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.Index(ip, ","); idx >= 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
