package testutils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/studybuddy/studybuddy-api/internal/config"
	"github.com/studybuddy/studybuddy-api/internal/service/auth"
)

// TestJWTSecret signs every token minted by these helpers.
// This must never be used in production.
const TestJWTSecret = "test-jwt-secret-that-is-32-chars-long"

// TestAuthConfig returns the auth settings matching TestJWTSecret.
func TestAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            TestJWTSecret,
		TokenLifetimeMinutes: 60,
	}
}

// NewTestJWTService returns a real JWT service keyed with TestJWTSecret.
func NewTestJWTService(t testing.TB) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(TestAuthConfig())
	require.NoError(t, err)
	return svc
}

// AuthHeader returns an Authorization header value for userID.
func AuthHeader(t testing.TB, userID uuid.UUID) string {
	t.Helper()
	token, err := NewTestJWTService(t).GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	return "Bearer " + token
}
