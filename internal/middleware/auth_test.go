package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/omnierp/omnicore/internal/auth"
	"github.com/omnierp/omnicore/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareStampsIdentity(t *testing.T) {
	tm := auth.NewTokenManager("test_secret", time.Hour)
	token, err := tm.Generate("user-9", 3, "u@example.com", "manager")
	require.NoError(t, err)

	var gotOrg uint
	var gotUser, gotRole string
	handler := middleware.AuthMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg, _ = middleware.OrgIDFromContext(r.Context())
		gotUser, _ = middleware.UserIDFromContext(r.Context())
		gotRole, _ = middleware.RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(3), gotOrg)
	assert.Equal(t, "user-9", gotUser)
	assert.Equal(t, "manager", gotRole)
}

func TestAuthMiddlewareRejects(t *testing.T) {
	tm := auth.NewTokenManager("test_secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for unauthenticated requests")
	})
	handler := middleware.AuthMiddleware(tm)(next)

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage token":  "Bearer not.a.token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestOrgIDFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := middleware.OrgIDFromContext(req.Context())
	assert.False(t, ok)
}
