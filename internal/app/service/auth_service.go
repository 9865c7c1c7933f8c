package service

import (
	"context"
	"errors"
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"github.com/avyhea/avyhea-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid user role")
)

// TokenBlacklist revokes access tokens on logout
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, token string, expiry time.Duration) error
}

type UpdateProfileInput struct {
	Name         *string
	Password     *string
	ShippingInfo *model.ShippingInfo
}

// AdminUpdateUserInput is the admin-side edit surface for an account.
// Unlike UpdateProfileInput it can change the role.
type AdminUpdateUserInput struct {
	Name         *string
	Role         *model.UserRole
	ShippingInfo *model.ShippingInfo
}

type AuthService interface {
	Register(email, password, name string) (*model.User, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Logout(ctx context.Context, token string, expiry time.Duration) error
	GetProfile(userID uint) (*model.User, error)
	UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error)
	GetAllUsers() ([]model.User, error)
	UpdateUser(userID uint, input AdminUpdateUserInput) (*model.User, error)
	DeleteUser(userID uint) error
}

type authService struct {
	userRepo      repository.UserRepository
	blacklist     TokenBlacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	blacklist TokenBlacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

func (s *authService) Register(email, password, name string) (*model.User, error) {
	logger.Info("Registering user", map[string]interface{}{
		"email": email,
	})

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, nil)
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: unknown email", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := util.GenerateTokenPair(
		user.ID, user.Email, string(user.Role),
		s.jwtSecret, s.accessExpiry, s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}

// Logout revokes the presented access token until it would have expired
func (s *authService) Logout(ctx context.Context, token string, expiry time.Duration) error {
	if s.blacklist == nil {
		return nil
	}
	return s.blacklist.BlacklistToken(ctx, token, expiry)
}

func (s *authService) GetProfile(userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Password != nil {
		hash, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if input.ShippingInfo != nil {
		user.ShippingInfo = *input.ShippingInfo
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("Profile updated", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) GetAllUsers() ([]model.User, error) {
	return s.userRepo.FindAll()
}

func (s *authService) UpdateUser(userID uint, input AdminUpdateUserInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Role != nil {
		if *input.Role != model.RoleUser && *input.Role != model.RoleAdmin {
			return nil, ErrInvalidRole
		}
		user.Role = *input.Role
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.ShippingInfo != nil {
		user.ShippingInfo = *input.ShippingInfo
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User updated by admin", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

func (s *authService) DeleteUser(userID uint) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.userRepo.Delete(userID); err != nil {
		return err
	}

	logger.Info("User deleted by admin", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
