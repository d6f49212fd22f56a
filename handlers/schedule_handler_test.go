package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steamcup/tournament-engine/middleware"
	"github.com/steamcup/tournament-engine/services"
)

type stubScheduleService struct {
	services.ScheduleService

	resolvedConflictID int
	resolvedMethod     string
	resolvedResolverID int
}

func (s *stubScheduleService) ResolveConflict(ctx context.Context, conflictID int, method string, resolverID int) error {
	s.resolvedConflictID = conflictID
	s.resolvedMethod = method
	s.resolvedResolverID = resolverID
	return nil
}

const testSecret = "test-secret"

func signedToken(t *testing.T, userID float64, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func resolveRouter(svc services.ScheduleService) *chi.Mux {
	h := NewScheduleHandler(svc)
	auth := middleware.NewAuthenticator(testSecret)

	router := chi.NewRouter()
	router.With(auth.Authenticate).Post("/conflicts/{conflictID}/resolve", h.ResolveConflictHandler)
	return router
}

func TestResolveConflictUsesAuthenticatedResolver(t *testing.T) {
	svc := &stubScheduleService{}
	router := resolveRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/conflicts/7/resolve",
		bytes.NewBufferString(`{"method":"manual"}`))
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 42, "admin"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, svc.resolvedConflictID)
	assert.Equal(t, "manual", svc.resolvedMethod)
	// The resolver recorded is the token's user, not body input.
	assert.Equal(t, 42, svc.resolvedResolverID)
}

func TestResolveConflictRejectsCallerSuppliedResolver(t *testing.T) {
	svc := &stubScheduleService{}
	router := resolveRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/conflicts/7/resolve",
		bytes.NewBufferString(`{"method":"manual","resolver_id":999}`))
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 42, "admin"))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.resolvedConflictID)
}
