package handler

import (
	"errors"
	"net/http"

	"github.com/SergeiKhy/link-shortener/internal/auth"
	"github.com/SergeiKhy/link-shortener/internal/middleware"
	"github.com/SergeiKhy/link-shortener/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(service service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger,
	}
}

type TokenPairRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenRefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

type TokenVerifyRequest struct {
	Token string `json:"token" binding:"required"`
}

// LoginRequest форма входа для браузера
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterRequest принимает и JSON, и форму
type RegisterRequest struct {
	Username  string `json:"username" form:"username"`
	Password1 string `json:"password1" form:"password1"`
	Password2 string `json:"password2" form:"password2"`
}

// TokenPair выдаёт access и refresh токены по логину и паролю
func (h *AuthHandler) TokenPair(c *gin.Context) {
	var req TokenPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	pair, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "no_active_account",
				Message: "No active account found with the given credentials",
			})
			return
		}
		h.logger.Error("Failed to issue token pair", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to issue tokens",
		})
		return
	}

	c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) TokenRefresh(c *gin.Context) {
	var req TokenRefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	access, err := h.service.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		if isTokenError(err) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "token_not_valid",
				Message: "Token is invalid or expired",
			})
			return
		}
		h.logger.Error("Failed to refresh token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}

func (h *AuthHandler) TokenVerify(c *gin.Context) {
	var req TokenVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if err := h.service.Verify(c.Request.Context(), req.Token); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "token_not_valid",
			Message: "Token is invalid or expired",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// Register создаёт учётную запись
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	user, err := h.service.Register(c.Request.Context(), &service.RegisterInput{
		Username:  req.Username,
		Password1: req.Password1,
		Password2: req.Password2,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUsername):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_username",
				Message: "Username must be 3-150 characters: letters, digits and @/./+/-/_",
			})
		case errors.Is(err, service.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "weak_password",
				Message: "Password must contain at least 8 characters",
			})
		case errors.Is(err, service.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "password_mismatch",
				Message: "The two password fields didn't match",
			})
		case errors.Is(err, service.ErrUsernameTaken):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "username_taken",
				Message: "A user with that username already exists",
			})
		default:
			h.logger.Error("Failed to register user", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to register user",
			})
		}
		return
	}

	h.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	c.JSON(http.StatusCreated, user)
}

// Login выполняет вход из браузера: access-токен кладётся в HttpOnly cookie,
// которую читают OptionalAuth и RequireAuth
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	pair, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Please enter a correct username and password",
			})
			return
		}
		h.logger.Error("Failed to log in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to log in",
		})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, pair.Access, 0, "/", "", false, true)
	c.Redirect(http.StatusFound, "/dashboard/")
}

// Logout удаляет cookie с токеном
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func isTokenError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrWrongTokenType)
}
