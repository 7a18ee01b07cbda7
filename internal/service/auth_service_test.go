package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/checkout-next/internal/config"
	"github.com/checkout-next/internal/constants"
	"github.com/checkout-next/internal/models"
	"github.com/checkout-next/internal/repository"

	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func setupAuthServiceTest(t *testing.T) *AuthService {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := models.Open("sqlite", dsn, gormlogger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "auth-service-test-secret-0123456789", ExpireHours: 2}}
	svc := NewAuthService(cfg, repository.NewUserRepository(db))

	for _, u := range []struct {
		email  string
		role   string
		status string
	}{
		{"buyer@example.com", constants.UserRoleUser, constants.UserStatusActive},
		{"admin@example.com", constants.UserRoleAdmin, constants.UserStatusActive},
		{"gone@example.com", constants.UserRoleUser, constants.UserStatusDisabled},
	} {
		hash, err := svc.HashPassword("secret-pass")
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.User{Email: u.email, PasswordHash: hash, Role: u.role, Status: u.status}).Error)
	}
	return svc
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := setupAuthServiceTest(t)

	user, token, expiresAt, err := svc.Login(" Buyer@Example.com ", "secret-pass")
	require.NoError(t, err)
	require.Equal(t, "buyer@example.com", user.Email)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(2*time.Hour), expiresAt, time.Minute)

	claims, err := svc.ParseJWT(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, constants.UserRoleUser, claims.Role)
	require.False(t, claims.IsAdmin())

	_, adminToken, _, err := svc.Login("admin@example.com", "secret-pass")
	require.NoError(t, err)
	adminClaims, err := svc.ParseJWT(adminToken)
	require.NoError(t, err)
	require.True(t, adminClaims.IsAdmin())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := setupAuthServiceTest(t)

	for _, tc := range []struct{ email, password string }{
		{"buyer@example.com", "wrong"},
		{"nobody@example.com", "secret-pass"},
		{"gone@example.com", "secret-pass"},
		{"", "secret-pass"},
		{"buyer@example.com", ""},
	} {
		_, _, _, err := svc.Login(tc.email, tc.password)
		require.ErrorIs(t, err, ErrInvalidCredentials, "email=%q", tc.email)
	}
}

func TestParseJWTRejectsForeignSecret(t *testing.T) {
	svc := setupAuthServiceTest(t)
	other := NewAuthService(&config.Config{JWT: config.JWTConfig{SecretKey: "different-secret-0123456789abcdef"}}, nil)

	token, _, err := other.GenerateJWT(&models.User{ID: 1, Email: "buyer@example.com", Role: constants.UserRoleAdmin})
	require.NoError(t, err)
	_, err = svc.ParseJWT(token)
	require.Error(t, err)
}
