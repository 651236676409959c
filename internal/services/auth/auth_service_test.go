package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
)

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "correct horse battery staple")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ACCESS_TOKEN_TTL", "1h")

	svc, err := NewAuthService()
	require.NoError(t, err)
	return svc
}

func TestLoginAndValidateRoundTrip(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Login(&models.LoginRequest{
		Username: "admin",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	info, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", info.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), info.ExpiresAt, time.Minute)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Login(&models.LoginRequest{Username: "admin", Password: "wrong"})
	assert.Error(t, err)

	_, err = svc.Login(&models.LoginRequest{Username: "root", Password: "correct horse battery staple"})
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestNewAuthServiceRequiresAdminCredentials(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := NewAuthService()
	assert.Error(t, err)
}
