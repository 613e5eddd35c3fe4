package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCSRFMiddleware_SafeMethodIssuesToken(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var seen string
	handler := CSRFMiddleware(true, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CSRFToken(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, CSRFCookieName, cookie.Name)
	assert.Len(t, cookie.Value, 64)
	assert.Equal(t, "/", cookie.Path)
	assert.False(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, cookie.Value, seen)
}

func TestCSRFMiddleware_SafeMethodKeepsExistingToken(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var seen string
	handler := CSRFMiddleware(false, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CSRFToken(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Result().Cookies())
	assert.Equal(t, "existing", seen)
}

func TestCSRFMiddleware_UnsafeMethods(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	tests := []struct {
		name           string
		cookie         string
		field          string
		header         string
		expectedStatus int
	}{
		{name: "matching form field", cookie: "tok", field: "tok", expectedStatus: http.StatusOK},
		{name: "matching header", cookie: "tok", header: "tok", expectedStatus: http.StatusOK},
		{name: "missing cookie", field: "tok", expectedStatus: http.StatusForbidden},
		{name: "missing submitted token", cookie: "tok", expectedStatus: http.StatusForbidden},
		{name: "mismatched form field", cookie: "tok", field: "other", expectedStatus: http.StatusForbidden},
		{name: "mismatched header wins over field", cookie: "tok", field: "tok", header: "other", expectedStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			var seen string
			handler := CSRFMiddleware(false, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				seen = CSRFToken(r.Context())
				assert.Equal(t, "7", r.PostFormValue("course_id"))
				w.WriteHeader(http.StatusOK)
			}))

			form := url.Values{"course_id": {"7"}}
			if tt.field != "" {
				form.Set(CSRFFieldName, tt.field)
			}
			req := httptest.NewRequest(http.MethodPost, "/enroll", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(CSRFHeaderName, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, called)
			if called {
				assert.Equal(t, tt.cookie, seen)
			} else {
				assert.Contains(t, w.Body.String(), "CSRF token validation failed")
			}
		})
	}
}

func TestCSRFToken_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, CSRFToken(req.Context()))
}
