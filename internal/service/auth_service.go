package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gatherly/eventhub/internal/domain"
	"github.com/gatherly/eventhub/internal/mailer"
	"github.com/gatherly/eventhub/internal/repository"
	"github.com/gatherly/eventhub/pkg/auth"
	"github.com/gatherly/eventhub/pkg/config"
	"github.com/gatherly/eventhub/pkg/logger"
	"github.com/google/uuid"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error)
	GuestLogin(ctx context.Context) (*domain.User, string, error)
	CheckAuth(ctx context.Context, token string) (*domain.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	mailer   mailer.Service
	config   *config.Config
}

func NewAuthService(userRepo repository.UserRepository, mailer mailer.Service, config *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		config:   config,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", domain.ErrUserExists
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req.Username, req.Email, passwordHash, domain.RoleUser)
	if err != nil {
		return nil, "", err
	}

	// Welcome mail is best-effort; registration already succeeded.
	if err := s.mailer.SendWelcomeEmail(user.Email, user.Username); err != nil {
		logger.WarnContext(ctx, "failed to send welcome email", "error", err, "user_id", user.ID)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GuestLogin creates a throwaway persisted user with the guest role. The
// generated password is discarded; guests authenticate only by session token.
func (s *authService) GuestLogin(ctx context.Context) (*domain.User, string, error) {
	stamp := time.Now().UnixNano()
	username := fmt.Sprintf("guest-%d", stamp)
	email := fmt.Sprintf("guest-%d@guest.gatherly.app", stamp)

	passwordHash, err := argon2id.CreateHash(uuid.NewString(), argon2id.DefaultParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, username, email, passwordHash, domain.RoleGuest)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) CheckAuth(ctx context.Context, token string) (*domain.User, error) {
	claims, err := auth.Parse(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	user, err := s.userRepo.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *authService) issueToken(user *domain.User) (string, error) {
	token, err := auth.NewSessionToken(user.ID, string(user.Role), s.config.Auth.JWTSecret, s.config.Auth.SessionTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue session token: %w", err)
	}
	return token, nil
}
