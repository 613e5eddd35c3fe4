package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"go.uber.org/zap"
)

const (
	// CSRFCookieName is the cookie carrying the double-submit token
	CSRFCookieName = "csrf_token"
	// CSRFFieldName is the form field the pages submit the token in
	CSRFFieldName = "csrf_token"
	// CSRFHeaderName is accepted instead of the form field
	CSRFHeaderName = "X-CSRF-Token"
)

const csrfTokenKey contextKey = "csrfToken"

// CSRFMiddleware guards form submissions with a double-submit token.
//
// Safe methods get the token cookie issued if it is missing. Other methods must
// echo the cookie value in the form field or the header, otherwise they get 403.
func CSRFMiddleware(cookieSecure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				token := ensureCSRFCookie(w, r, cookieSecure, logger)
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey, token)))
				return
			}

			cookie, err := r.Cookie(CSRFCookieName)
			if err != nil || cookie.Value == "" {
				rejectCSRF(w, r, logger, "missing cookie token")
				return
			}

			submitted := r.Header.Get(CSRFHeaderName)
			if submitted == "" {
				submitted = r.PostFormValue(CSRFFieldName)
			}
			if submitted == "" {
				rejectCSRF(w, r, logger, "missing submitted token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(submitted)) != 1 {
				rejectCSRF(w, r, logger, "token mismatch")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey, cookie.Value)))
		})
	}
}

// CSRFToken returns the token pages embed in their forms
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey).(string)
	return token
}

func rejectCSRF(w http.ResponseWriter, r *http.Request, logger *zap.Logger, reason string) {
	logger.Warn("CSRF validation failed",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("reason", reason),
	)
	http.Error(w, "CSRF token validation failed", http.StatusForbidden)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// ensureCSRFCookie returns the current token, issuing a new cookie when there is none
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, cookieSecure bool, logger *zap.Logger) string {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := generateCSRFToken()
	if err != nil {
		logger.Error("failed to generate CSRF token", zap.Error(err))
		return ""
	}

	// Not HttpOnly so that scripted clients can copy it into the header
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
