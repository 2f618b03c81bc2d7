package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/medtrax-api/internal/application/auth"
	"github.com/medtrax-api/internal/application/reminder"
	"github.com/medtrax-api/internal/config"
	"github.com/medtrax-api/internal/domain"
	jwtinfra "github.com/medtrax-api/internal/infrastructure/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReminders struct {
	reminder.Service
	listed string
}

func (s *stubReminders) List(_ context.Context, userID, _ string) ([]domain.Reminder, error) {
	s.listed = userID
	return []domain.Reminder{}, nil
}

type stubAuth struct {
	auth.Service
}

func (stubAuth) SignIn(context.Context, domain.SignInRequest) (string, *domain.User, error) {
	return "", nil, fmt.Errorf("invalid credentials: %w", domain.ErrInvalidCredentials)
}

func newTestRouter(t *testing.T) (http.Handler, *jwtinfra.Provider, *stubReminders) {
	t.Helper()
	p, err := jwtinfra.NewProvider("router-test-secret-0123456789abcd", time.Hour)
	require.NoError(t, err)
	rem := &stubReminders{}
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	return NewRouter(cfg, &Deps{Auth: stubAuth{}, Reminders: rem, JWTProvider: p}), p, rem
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	router, _, _ := newTestRouter(t)
	for _, target := range []string{"/api/auth/me", "/api/auth/profile", "/api/health/weight/latest", "/api/health/reminder"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, target)
	}
}

func TestRouter_ReminderPathBeatsMetricKind(t *testing.T) {
	router, p, rem := newTestRouter(t)
	token, err := p.Sign("u42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/health/reminder", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u42", rem.listed)
}

func TestRouter_SigninThrottleIgnoresForwardedFor(t *testing.T) {
	router, _, _ := newTestRouter(t)

	throttled := 0
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", strings.NewReader(`{"email":"a@b.com","password":"x"}`))
		req.RemoteAddr = "203.0.113.7:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	assert.GreaterOrEqual(t, throttled, 80)
}
