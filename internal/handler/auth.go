package handler

import (
	"net/http"

	"contribuddy/internal/common"
	"contribuddy/internal/middleware"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/pkg/response"
	"contribuddy/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	log  *logger.Logger
	auth *service.AuthService
}

func NewAuthHandler(log *logger.Logger, auth *service.AuthService) *AuthHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthHandler{log: log.With("handler", "AuthHandler"), auth: auth}
}

// GitHubURL GET /api/auth/github/url
func (h *AuthHandler) GitHubURL(c *gin.Context) {
	url, state, err := h.auth.AuthorizeURL()
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"url": url, "state": state})
}

type callbackRequest struct {
	Code string `json:"code"`
}

// Callback POST /api/auth/github/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		response.FailWith(c, http.StatusBadRequest, common.ErrCodeInvalidInput, "Authorization code is required")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Code)
	if err != nil {
		h.log.Error("GitHub 登录失败", "error", err)
		response.Fail(c, err)
		return
	}
	response.OK(c, result)
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.FailWith(c, http.StatusUnauthorized, common.ErrCodeNotAuthenticated, "User not authenticated")
		return
	}
	user, err := h.auth.CurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, user)
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.FailWith(c, http.StatusUnauthorized, common.ErrCodeNotAuthenticated, "User not authenticated")
		return
	}
	if err := h.auth.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, err)
		return
	}
	response.OKMessage(c, nil, "Logged out successfully")
}
