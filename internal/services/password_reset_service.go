package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"dealdesk/internal/models"
	"dealdesk/internal/repositories"
	"dealdesk/internal/utils"
)

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type passwordResetService struct {
	userRepo repositories.UserRepository
	repo     repositories.PasswordResetRepository
	emails   EmailService
	auth     AuthService
	ttl      time.Duration
	now      Clock
	logger   *zap.Logger
}

func NewPasswordResetService(userRepo repositories.UserRepository, repo repositories.PasswordResetRepository, emails EmailService, auth AuthService, ttl time.Duration, now Clock, logger *zap.Logger) PasswordResetService {
	return &passwordResetService{
		userRepo: userRepo,
		repo:     repo,
		emails:   emails,
		auth:     auth,
		ttl:      ttl,
		now:      now,
		logger:   logger,
	}
}

// RequestReset answers the same way whether or not the email is known.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return models.Invalid("email is required")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Info("password reset for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := utils.NewToken(32)
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}
	now := s.now()
	pr := &models.PasswordReset{
		ID:        newID(),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, pr); err != nil {
		return err
	}

	if s.emails != nil {
		if err := s.emails.SendPasswordResetEmail(user.Email, token); err != nil {
			s.logger.Warn("password reset email failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// ResetPassword consumes the token before touching the password, so two
// concurrent redemptions cannot both succeed.
func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return models.Invalid("token and password are required")
	}
	if len(newPassword) < minPasswordLength {
		return models.Invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	pr, err := s.repo.GetByToken(ctx, token)
	if errors.Is(err, models.ErrNotFound) {
		return models.Invalid("invalid or expired token")
	}
	if err != nil {
		return err
	}
	if pr.UsedAt != nil {
		return models.Invalid("token already used")
	}
	now := s.now()
	if now.After(pr.ExpiresAt) {
		return models.Invalid("token expired")
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.MarkUsed(ctx, pr.ID, now); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return models.Invalid("token already used")
		}
		return err
	}
	return s.userRepo.UpdatePassword(ctx, pr.UserID, hash, now)
}
