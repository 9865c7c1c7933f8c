package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"github.com/avyhea/avyhea-backend/pkg/mailer"
	"github.com/avyhea/avyhea-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidResetToken = errors.New("invalid reset token")
	ErrResetTokenExpired = errors.New("reset token has expired")
	ErrResetTokenUsed    = errors.New("reset token has already been used")
)

const (
	resetTokenExpiry = 1 * time.Hour
	resetTokenBytes  = 32
)

type PasswordResetService interface {
	RequestReset(email string) error
	ResetPassword(token, newPassword string) error
}

type passwordResetService struct {
	resetRepo repository.PasswordResetRepository
	userRepo  repository.UserRepository
	mail      Mailer
}

func NewPasswordResetService(
	resetRepo repository.PasswordResetRepository,
	userRepo repository.UserRepository,
	mail Mailer,
) PasswordResetService {
	return &passwordResetService{
		resetRepo: resetRepo,
		userRepo:  userRepo,
		mail:      mail,
	}
}

// RequestReset issues a reset token and emails it to the account. The
// result is the same whether or not the email is registered, so the
// endpoint cannot be used to enumerate accounts.
func (s *passwordResetService) RequestReset(email string) error {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for unknown email", map[string]interface{}{
				"email": email,
			})
			return nil
		}
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}

	reset := &model.PasswordReset{
		Email:     email,
		Token:     token,
		ExpiresAt: time.Now().Add(resetTokenExpiry),
	}
	if err := s.resetRepo.Create(reset); err != nil {
		return err
	}

	s.sendResetEmail(user, token)

	logger.Info("Password reset token issued", map[string]interface{}{
		"user_id":    user.ID,
		"expires_at": reset.ExpiresAt,
	})
	return nil
}

// ResetPassword trades a valid token for a new password. Tokens are
// single use and expire an hour after issue.
func (s *passwordResetService) ResetPassword(token, newPassword string) error {
	reset, err := s.resetRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	if time.Now().After(reset.ExpiresAt) {
		return ErrResetTokenExpired
	}
	if reset.Used {
		return ErrResetTokenUsed
	}

	user, err := s.userRepo.FindByEmail(reset.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	// Password already changed; a failed flag update just means the
	// token dies by expiry instead.
	if err := s.resetRepo.MarkAsUsed(reset.ID); err != nil {
		logger.Error("Failed to mark reset token as used", err, map[string]interface{}{
			"reset_id": reset.ID,
		})
	}

	logger.Info("Password reset completed", map[string]interface{}{
		"user_id": user.ID,
	})
	return nil
}

func (s *passwordResetService) sendResetEmail(user *model.User, token string) {
	if s.mail == nil {
		return
	}

	body := mailer.PasswordResetBody(user.Name, token, int(resetTokenExpiry.Minutes()))

	ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
	defer cancel()

	if err := s.mail.Send(ctx, user.Email, "Reset your password", body); err != nil {
		logger.Error("Failed to send password reset email", err, map[string]interface{}{
			"user_id": user.ID,
		})
	}
}

func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
