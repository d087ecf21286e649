package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	service, _, _, _ := newTestService(t)
	mw := NewMiddleware(service)

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	service, _, _, _ := newTestService(t)
	mw := NewMiddleware(service)

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateAttachesClaims(t *testing.T) {
	service, _, _, id := newTestService(t)
	mw := NewMiddleware(service)

	pair, err := service.Login(t.Context(), LoginRequest{
		ProfessionalEmail: "ada@clearance.test",
		Password:          "correct horse",
	})
	require.NoError(t, err)

	var seen *Claims
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		seen = claims
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	subject, err := seen.EmployeeID()
	require.NoError(t, err)
	require.Equal(t, id, subject)
}

func TestRequirePermissions(t *testing.T) {
	service, _, resolver, id := newTestService(t)
	mw := NewMiddleware(service)
	resolver.permissions[id] = []int32{1, 2}

	pair, err := service.Login(t.Context(), LoginRequest{
		ProfessionalEmail: "ada@clearance.test",
		Password:          "correct horse",
	})
	require.NoError(t, err)

	run := func(required ...int32) int {
		reached := false
		handler := mw.Authenticate(mw.RequirePermissions(required...)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { reached = true })))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if reached {
			require.Equal(t, http.StatusOK, rec.Code)
		}
		return rec.Code
	}

	require.Equal(t, http.StatusOK, run(1))
	require.Equal(t, http.StatusOK, run(1, 2))
	require.Equal(t, http.StatusForbidden, run(3))
}
