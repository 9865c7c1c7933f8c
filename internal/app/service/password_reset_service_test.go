package service

import (
	"testing"
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/internal/db"
	"github.com/avyhea/avyhea-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPasswordResetTest(t *testing.T) (PasswordResetService, *gorm.DB, *fakeMailer, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	resetRepo := repository.NewPasswordResetRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	mail := &fakeMailer{}
	resetService := NewPasswordResetService(resetRepo, userRepo, mail)

	hash, err := util.HashPassword("old-password")
	require.NoError(t, err)
	user := &model.User{
		Email:        "forgetful@example.com",
		PasswordHash: hash,
		Name:         "Forgetful User",
	}
	testDB.Create(user)

	return resetService, testDB, mail, user
}

func latestResetToken(t *testing.T, testDB *gorm.DB) *model.PasswordReset {
	t.Helper()
	var reset model.PasswordReset
	require.NoError(t, testDB.Order("id DESC").First(&reset).Error)
	return &reset
}

func TestPasswordResetService_RequestReset(t *testing.T) {
	resetService, testDB, mail, user := setupPasswordResetTest(t)

	require.NoError(t, resetService.RequestReset(user.Email))

	reset := latestResetToken(t, testDB)
	assert.Equal(t, user.Email, reset.Email)
	assert.NotEmpty(t, reset.Token)
	assert.False(t, reset.Used)
	assert.True(t, reset.ExpiresAt.After(time.Now()))

	require.Len(t, mail.sent, 1)
	assert.Equal(t, user.Email, mail.sent[0].To)
	assert.Contains(t, mail.sent[0].Body, reset.Token)
}

func TestPasswordResetService_RequestReset_UnknownEmail(t *testing.T) {
	resetService, testDB, mail, _ := setupPasswordResetTest(t)

	// Same outcome as a known email, so callers cannot enumerate accounts
	require.NoError(t, resetService.RequestReset("nobody@example.com"))

	var count int64
	testDB.Model(&model.PasswordReset{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, mail.sent)
}

func TestPasswordResetService_ResetPassword(t *testing.T) {
	resetService, testDB, _, user := setupPasswordResetTest(t)

	require.NoError(t, resetService.RequestReset(user.Email))
	reset := latestResetToken(t, testDB)

	require.NoError(t, resetService.ResetPassword(reset.Token, "new-password"))

	var updated model.User
	testDB.First(&updated, user.ID)
	assert.True(t, util.VerifyPassword(updated.PasswordHash, "new-password"))
	assert.False(t, util.VerifyPassword(updated.PasswordHash, "old-password"))

	// Token is single use
	err := resetService.ResetPassword(reset.Token, "another-password")
	assert.ErrorIs(t, err, ErrResetTokenUsed)
}

func TestPasswordResetService_ResetPassword_InvalidToken(t *testing.T) {
	resetService, _, _, _ := setupPasswordResetTest(t)

	err := resetService.ResetPassword("no-such-token", "new-password")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestPasswordResetService_ResetPassword_ExpiredToken(t *testing.T) {
	resetService, testDB, _, user := setupPasswordResetTest(t)

	require.NoError(t, resetService.RequestReset(user.Email))
	reset := latestResetToken(t, testDB)

	testDB.Model(&model.PasswordReset{}).Where("id = ?", reset.ID).
		Update("expires_at", time.Now().Add(-time.Minute))

	err := resetService.ResetPassword(reset.Token, "new-password")
	assert.ErrorIs(t, err, ErrResetTokenExpired)

	// Old password still works
	var unchanged model.User
	testDB.First(&unchanged, user.ID)
	assert.True(t, util.VerifyPassword(unchanged.PasswordHash, "old-password"))
}
