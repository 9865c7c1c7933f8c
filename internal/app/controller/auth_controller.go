package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/service"
	apperrors "github.com/avyhea/avyhea-backend/internal/errors"
	"github.com/avyhea/avyhea-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService  service.AuthService
	resetService service.PasswordResetService
	accessExpiry time.Duration
}

func NewAuthController(authService service.AuthService, resetService service.PasswordResetService, accessExpiry time.Duration) *AuthController {
	return &AuthController{
		authService:  authService,
		resetService: resetService,
		accessExpiry: accessExpiry,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ShippingInfoRequest struct {
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type UpdateProfileRequest struct {
	Name         string               `json:"name"`
	Password     string               `json:"password"`
	ShippingInfo *ShippingInfoRequest `json:"shipping_info"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

type AdminUpdateUserRequest struct {
	Name         string               `json:"name"`
	Role         string               `json:"role"`
	ShippingInfo *ShippingInfoRequest `json:"shipping_info"`
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please check the registration details")
		return
	}

	user, err := ctrl.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "This email is already registered")
			return
		}
		log.Error("Registration failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    user,
	})
}

// Login authenticates a user and returns a token pair
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email and password are required")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}

// Logout revokes the presented access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), parts[1], ctrl.accessExpiry); err != nil {
		log.Error("Logout failed", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// GetProfile returns the authenticated user's profile
// GET /api/v1/auth/profile
func (ctrl *AuthController) GetProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to fetch profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// UpdateProfile updates name, password or shipping information
// PUT /api/v1/auth/profile
func (ctrl *AuthController) UpdateProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please check the profile details")
		return
	}

	input := service.UpdateProfileInput{}
	if req.Name != "" {
		input.Name = &req.Name
	}
	if req.Password != "" {
		input.Password = &req.Password
	}
	if req.ShippingInfo != nil {
		input.ShippingInfo = &model.ShippingInfo{
			Address:    req.ShippingInfo.Address,
			City:       req.ShippingInfo.City,
			PostalCode: req.ShippingInfo.PostalCode,
			Country:    req.ShippingInfo.Country,
		}
	}

	user, err := ctrl.authService.UpdateProfile(userID, input)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated",
		"user":    user,
	})
}

// ForgotPassword emails a single-use reset token. The response never
// reveals whether the address is registered.
// POST /api/v1/auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "A valid email is required")
		return
	}

	if err := ctrl.resetService.RequestReset(req.Email); err != nil {
		log.Error("Failed to process password reset request", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If that email is registered, a reset code is on its way",
	})
}

// ResetPassword trades a reset token for a new password
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Token and a new password of at least 6 characters are required")
		return
	}

	err := ctrl.resetService.ResetPassword(req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken):
			apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "This reset code is not valid")
		case errors.Is(err, service.ErrResetTokenExpired):
			apperrors.BadRequest(c, apperrors.AuthResetTokenExpired, "This reset code has expired. Please request a new one")
		case errors.Is(err, service.ErrResetTokenUsed):
			apperrors.BadRequest(c, apperrors.AuthResetTokenUsed, "This reset code has already been used")
		default:
			log.Error("Failed to reset password", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated. You can now log in",
	})
}

// GetAllUsers lists every account (admin)
// GET /api/v1/admin/users
func (ctrl *AuthController) GetAllUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	users, err := ctrl.authService.GetAllUsers()
	if err != nil {
		log.Error("Failed to fetch users", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}

// UpdateUser edits an account's name, role or shipping details (admin)
// PUT /api/v1/admin/users/:id
func (ctrl *AuthController) UpdateUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user ID")
		return
	}

	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please check the user details")
		return
	}

	input := service.AdminUpdateUserInput{}
	if req.Name != "" {
		input.Name = &req.Name
	}
	if req.Role != "" {
		role := model.UserRole(req.Role)
		input.Role = &role
	}
	if req.ShippingInfo != nil {
		input.ShippingInfo = &model.ShippingInfo{
			Address:    req.ShippingInfo.Address,
			City:       req.ShippingInfo.City,
			PostalCode: req.ShippingInfo.PostalCode,
			Country:    req.ShippingInfo.Country,
		}
	}

	user, err := ctrl.authService.UpdateUser(uint(userID), input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
		case errors.Is(err, service.ErrInvalidRole):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Role must be user or admin")
		default:
			log.Error("Failed to update user", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

// DeleteUser removes an account (admin)
// DELETE /api/v1/admin/users/:id
func (ctrl *AuthController) DeleteUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user ID")
		return
	}

	if err := ctrl.authService.DeleteUser(uint(userID)); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to delete user", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User deleted",
	})
}
