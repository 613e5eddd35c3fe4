package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lmsportal/backend/internal/models"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie that carries the session token
const SessionCookieName = "token"

const userKey contextKey = "user"

// TokenVerifier resolves a session token into its user
type TokenVerifier interface {
	// Method Verify returns models.ErrInvalidToken for malformed, expired or orphaned tokens.
	Verify(ctx context.Context, token string) (*models.User, error)
}

// SessionMiddleware reads the session token from the "token" cookie or an
// "Authorization: Bearer" header and stores the verified user in the request context.
//
// Requests without a valid token pass through anonymously. A token that
// cannot be checked because of a storage failure gets 500.
func SessionMiddleware(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if errors.Is(err, models.ErrInvalidToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.Error("failed to verify session token",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// extractToken returns the bearer token if present, otherwise the cookie value
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AdminWritesMiddleware requires an admin user for every request with an unsafe method.
//
// Anonymous requests get 401, authenticated non-admins get 403.
func AdminWritesMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		user, ok := UserFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !user.IsAdmin {
			writeJSONError(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// UserFromContext retrieves the authenticated user from context
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// ContextWithUser stores an authenticated user in context
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
