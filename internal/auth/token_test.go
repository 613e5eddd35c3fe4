package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "b8a3c2267dc85f855dea9b46b452bf20"

func TestNewTokenGenerator(t *testing.T) {
	tg := NewTokenGenerator("test-secret-key", 4*time.Hour)

	assert.NotNil(t, tg)
	assert.Equal(t, "test-secret-key", tg.secret)
	assert.Equal(t, 4*time.Hour, tg.tokenExpiry)
	assert.NotNil(t, tg.now)
}

func TestTokenGenerator_Generate(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tg := NewTokenGenerator(testSecret, 4*time.Hour)
	tg.now = func() time.Time { return issuedAt }

	token, expiresAt, err := tg.Generate(123)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, issuedAt.Add(4*time.Hour), expiresAt)
	assert.Len(t, strings.Split(token, "."), 3)

	// Claims are readable with the same secret
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte(testSecret), nil },
		jwt.WithTimeFunc(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(123), claims["uid"])
	assert.Equal(t, float64(issuedAt.Unix()), claims["iat"])
	assert.Equal(t, float64(issuedAt.Add(4*time.Hour).Unix()), claims["exp"])
}

func TestTokenGenerator_Validate(t *testing.T) {
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		token         func(t *testing.T) string
		validateAt    time.Time
		expectedID    int
		expectedError bool
	}{
		{
			name: "valid token",
			token: func(t *testing.T) string {
				tg := NewTokenGenerator(testSecret, 4*time.Hour)
				tg.now = func() time.Time { return issuedAt }
				token, _, err := tg.Generate(42)
				require.NoError(t, err)
				return token
			},
			validateAt: issuedAt.Add(3*time.Hour + 59*time.Minute),
			expectedID: 42,
		},
		{
			name: "expired after four hours",
			token: func(t *testing.T) string {
				tg := NewTokenGenerator(testSecret, 4*time.Hour)
				tg.now = func() time.Time { return issuedAt }
				token, _, err := tg.Generate(42)
				require.NoError(t, err)
				return token
			},
			validateAt:    issuedAt.Add(4*time.Hour + time.Second),
			expectedError: true,
		},
		{
			name: "expiry before issue time",
			token: func(t *testing.T) string {
				tg := NewTokenGenerator(testSecret, -time.Second)
				tg.now = func() time.Time { return issuedAt }
				token, _, err := tg.Generate(42)
				require.NoError(t, err)
				return token
			},
			validateAt:    issuedAt,
			expectedError: true,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				tg := NewTokenGenerator("another-secret", 4*time.Hour)
				tg.now = func() time.Time { return issuedAt }
				token, _, err := tg.Generate(42)
				require.NoError(t, err)
				return token
			},
			validateAt:    issuedAt,
			expectedError: true,
		},
		{
			name:          "malformed token",
			token:         func(t *testing.T) string { return "not.a.token" },
			validateAt:    issuedAt,
			expectedError: true,
		},
		{
			name:          "empty token",
			token:         func(t *testing.T) string { return "" },
			validateAt:    issuedAt,
			expectedError: true,
		},
		{
			name: "unsupported signing method",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
					"uid": 42,
					"exp": issuedAt.Add(time.Hour).Unix(),
				})
				s, err := token.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			validateAt:    issuedAt,
			expectedError: true,
		},
		{
			name: "missing uid claim",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"exp": issuedAt.Add(time.Hour).Unix(),
				})
				s, err := token.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			validateAt:    issuedAt,
			expectedError: true,
		},
		{
			name: "missing exp claim",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": 42})
				s, err := token.SignedString([]byte(testSecret))
				require.NoError(t, err)
				return s
			},
			validateAt:    issuedAt,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token(t)

			tg := NewTokenGenerator(testSecret, 4*time.Hour)
			tg.now = func() time.Time { return tt.validateAt }

			userID, err := tg.Validate(token)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Zero(t, userID)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedID, userID)
			}
		})
	}
}
