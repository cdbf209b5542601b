package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whwh2000/translator-robot/internal/auth"
)

func subjectEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("sub=" + auth.SubjectFromContext(r.Context())))
	})
}

func TestAuthenticateDisabled(t *testing.T) {
	t.Parallel()

	m := auth.NewJWTMiddleware("")
	assert.False(t, m.Enabled())

	rec := httptest.NewRecorder()
	m.Authenticate(subjectEcho()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sub=", rec.Body.String())
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	m := auth.NewJWTMiddleware("s3cret")
	good, err := m.Issue("learner-7", time.Hour)
	require.NoError(t, err)
	expired, err := m.Issue("learner-7", -time.Minute)
	require.NoError(t, err)
	other, err := auth.NewJWTMiddleware("different").Issue("learner-7", time.Hour)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid", "Bearer " + good, http.StatusOK, "sub=learner-7"},
		{"missing", "", http.StatusUnauthorized, "missing authorization token"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "missing authorization token"},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, "token expired"},
		{"wrong key", "Bearer " + other, http.StatusUnauthorized, "invalid token"},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, "invalid token"},
		{"no subject", "Bearer " + noSub, http.StatusUnauthorized, "token has no subject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.Authenticate(subjectEcho()).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
