package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/killrace-tournament/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestAuthService(t *testing.T) *authService {
	t.Helper()
	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	svc := NewAuthService(AdminCredentials{Username: "admin", PasswordHash: hash}, testSecret, discardLogger()).(*authService)
	svc.now = func() time.Time { return time.Now().Truncate(time.Second) }
	return svc
}

func TestLoginIssuesAdminToken(t *testing.T) {
	svc := newTestAuthService(t)

	result, err := svc.Login(context.Background(), LoginInput{Username: " admin ", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, result.Role)
	assert.Equal(t, "admin", result.Username)

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(result.Token, claims, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, "HS256", token.Method.Alg())
	assert.Equal(t, "admin", claims["sub"])
	assert.Equal(t, RoleAdmin, claims["role"])
	assert.InDelta(t, float64(result.ExpiresAt.Unix()), claims["exp"], 0)
	assert.WithinDuration(t, time.Now().Add(defaultTokenTTL), result.ExpiresAt, time.Minute)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginInput{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Username: "root", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Username: "admin"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
