package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/service"
	"github.com/milith0kun/Portafolio-sub000/pkg/response"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	authSvc service.AuthService
	userSvc service.UserService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc service.AuthService, userSvc service.UserService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userSvc: userSvc}
}

// Login authenticates with email and password.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, 10010, "email or password incorrect")
		case errors.Is(err, service.ErrUserInactive):
			response.Forbidden(c, 10011, "account is deactivated")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, result)
}

// RefreshToken rotates the refresh token and issues a new pair.
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			response.Unauthorized(c, 10012, "refresh token invalid or revoked")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// Logout revokes the presented refresh token.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			response.Unauthorized(c, 10012, "refresh token invalid or revoked")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}

// GetCurrentUser returns the authenticated identity.
// GET /api/v1/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, 11001, "user not found")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, user)
}

// ChangePassword updates the caller's own password.
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		if errors.Is(err, service.ErrPasswordMismatch) {
			response.BadRequest(c, 10013, "old password incorrect")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
