package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"dealdesk/internal/authz"
	"dealdesk/internal/config"
	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
	"dealdesk/internal/utils"
)

type AuthService interface {
	HashPassword(password string) (string, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, userID string) error
}

type authService struct {
	users  repositories.UserRepository
	cfg    config.AuthConfig
	now    Clock
	logger *zap.Logger
}

func NewAuthService(users repositories.UserRepository, cfg config.AuthConfig, now Clock, logger *zap.Logger) AuthService {
	return &authService{users: users, cfg: cfg, now: now, logger: logger}
}

func (s *authService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, models.Invalid("email and password are required")
	}
	s.logger.Debug("login attempt", zap.String("email", email))

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Info("login rejected: unknown email", zap.String("email", email))
		return nil, fmt.Errorf("login: %w", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login rejected: bad password", zap.String("user_id", user.ID))
		return nil, fmt.Errorf("login: %w", models.ErrUnauthorized)
	}

	now := s.now()
	refresh, err := utils.NewToken(32)
	if err != nil {
		return nil, fmt.Errorf("new refresh token: %w", err)
	}
	if err := s.users.UpdateRefresh(ctx, user.ID, refresh, now.Add(s.cfg.RefreshTTL)); err != nil {
		return nil, err
	}
	s.logger.Info("login succeeded", zap.String("user_id", user.ID), zap.String("role", user.Role))
	return s.issue(user, refresh, now)
}

// Refresh redeems a refresh token for a new pair. The presented token is
// replaced, so it cannot be used again.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, models.Invalid("refresh_token is required")
	}
	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("refresh: %w", models.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	now := s.now()
	if user.RefreshRevoked || user.RefreshExpiresAt == nil || now.After(*user.RefreshExpiresAt) {
		return nil, fmt.Errorf("refresh: expired or revoked: %w", models.ErrUnauthorized)
	}

	next, err := utils.NewToken(32)
	if err != nil {
		return nil, fmt.Errorf("new refresh token: %w", err)
	}
	rotated, err := s.users.RotateRefresh(ctx, refreshToken, next, now.Add(s.cfg.RefreshTTL))
	if err != nil {
		return nil, err
	}
	return s.issue(rotated, next, now)
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	return s.users.ClearRefresh(ctx, userID)
}

func (s *authService) issue(user *models.User, refresh string, now time.Time) (*models.TokenPair, error) {
	access, exp, err := authz.NewAccessToken([]byte(s.cfg.JWTSecret), user.ID, user.Role, now, s.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(exp.Sub(now).Seconds()),
	}, nil
}
