package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator is a test implementation of TokenValidator for unit tests.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func newTestTokenValidator() *testTokenValidator {
	return &testTokenValidator{
		validTokens: make(map[string]uuid.UUID),
	}
}

func (v *testTokenValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}
	userID, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return &testClaims{userID: userID}, nil
}

type testClaims struct {
	userID uuid.UUID
}

func (c *testClaims) GetUserID() uuid.UUID {
	return c.userID
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	validator := newTestTokenValidator()
	validator.validTokens["valid-token"] = userID

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{name: "bearer token", header: "Bearer valid-token", wantStatus: http.StatusOK},
		{name: "lowercase bearer", header: "bearer valid-token", wantStatus: http.StatusOK},
		{name: "session cookie", cookie: "valid-token", wantStatus: http.StatusOK},
		{name: "header wins over cookie", header: "Bearer valid-token", cookie: "stale", wantStatus: http.StatusOK},
		{name: "nothing", wantStatus: http.StatusUnauthorized},
		{name: "missing bearer prefix", header: "valid-token", wantStatus: http.StatusUnauthorized},
		{name: "only bearer", header: "Bearer", wantStatus: http.StatusUnauthorized},
		{name: "three parts", header: "Bearer valid-token extra", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer forged", wantStatus: http.StatusUnauthorized},
		{name: "unknown cookie", cookie: "forged", wantStatus: http.StatusUnauthorized},
		{name: "malformed header with good cookie", header: "Token x", cookie: "valid-token", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID uuid.UUID
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, err := GetUserID(r)
				require.NoError(t, err)
				gotUserID = id
				w.WriteHeader(http.StatusOK)
			})

			wrapped := AuthMiddleware(validator, WithSessionCookie("session"))(handler)

			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, userID, gotUserID)
			} else {
				assert.Contains(t, w.Body.String(), "Unauthorized")
			}
		})
	}
}

func TestAuthMiddleware_CookieIgnoredWithoutOption(t *testing.T) {
	validator := newTestTokenValidator()
	validator.validTokens["valid-token"] = uuid.New()

	called := false
	wrapped := AuthMiddleware(validator)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "valid-token"})
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetUserID(req)
	assert.Error(t, err)

	id := uuid.New()
	req = req.WithContext(WithUserID(context.Background(), id))
	got, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
