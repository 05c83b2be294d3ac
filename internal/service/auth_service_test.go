package service

import (
	"context"
	"testing"
	"time"

	"github.com/gatherly/eventhub/internal/domain"
	"github.com/gatherly/eventhub/pkg/auth"
	"github.com/gatherly/eventhub/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	welcomes []string
	sendErr  error
}

func (m *mockMailer) SendWelcomeEmail(toEmail, toName string) error {
	m.welcomes = append(m.welcomes, toEmail)
	return m.sendErr
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret",
			SessionTTL: time.Hour,
			CookieName: "token",
		},
	}
}

func newAuthServiceFixture() (AuthService, *mockUserRepo, *mockMailer, *config.Config) {
	userRepo := newMockUserRepo()
	mail := &mockMailer{}
	cfg := testConfig()
	return NewAuthService(userRepo, mail, cfg), userRepo, mail, cfg
}

func registerReq() *domain.RegisterRequest {
	return &domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@test.dev",
		Password: "correct-horse",
	}
}

func TestRegisterIssuesSessionToken(t *testing.T) {
	svc, _, mail, cfg := newAuthServiceFixture()

	user, token, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, domain.RoleUser, user.Role)

	claims, err := auth.Parse(token, cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Sub)
	assert.Equal(t, string(domain.RoleUser), claims.Role)

	assert.Equal(t, []string{"alice@test.dev"}, mail.welcomes)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAuthServiceFixture()

	_, _, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), registerReq())
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newAuthServiceFixture()

	tests := []struct {
		name  string
		req   *domain.RegisterRequest
		field string
	}{
		{"short username", &domain.RegisterRequest{Username: "ab", Email: "a@b.dev", Password: "secret1"}, "username"},
		{"bad email", &domain.RegisterRequest{Username: "alice", Email: "nope", Password: "secret1"}, "email"},
		{"short password", &domain.RegisterRequest{Username: "alice", Email: "a@b.dev", Password: "short"}, "password"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tc.req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestRegisterMailFailureIsNotFatal(t *testing.T) {
	svc, _, mail, _ := newAuthServiceFixture()
	mail.sendErr = assert.AnError

	_, token, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newAuthServiceFixture()

	_, _, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "alice@test.dev",
		Password: "wrong-horse",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _, _ := newAuthServiceFixture()

	_, _, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "ghost@test.dev",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _, _, cfg := newAuthServiceFixture()

	registered, _, err := svc.Register(context.Background(), registerReq())
	require.NoError(t, err)

	user, token, err := svc.Login(context.Background(), &domain.LoginRequest{
		Email:    "alice@test.dev",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	claims, err := auth.Parse(token, cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Sub)
}

func TestGuestLogin(t *testing.T) {
	svc, userRepo, _, cfg := newAuthServiceFixture()

	user, token, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RoleGuest, user.Role)
	assert.Contains(t, user.Username, "guest-")
	assert.Contains(t, userRepo.users, user.ID)

	claims, err := auth.Parse(token, cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, string(domain.RoleGuest), claims.Role)
}

func TestCheckAuthExpiredToken(t *testing.T) {
	svc, _, _, cfg := newAuthServiceFixture()

	user, _, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)

	expired, err := auth.NewSessionToken(user.ID, string(user.Role), cfg.Auth.JWTSecret, -time.Hour)
	require.NoError(t, err)

	_, err = svc.CheckAuth(context.Background(), expired)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCheckAuthUnknownSubject(t *testing.T) {
	svc, _, _, cfg := newAuthServiceFixture()

	token, err := auth.NewSessionToken(999, "user", cfg.Auth.JWTSecret, time.Hour)
	require.NoError(t, err)

	_, err = svc.CheckAuth(context.Background(), token)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCheckAuthValidToken(t *testing.T) {
	svc, _, _, _ := newAuthServiceFixture()

	user, token, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)

	got, err := svc.CheckAuth(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}
