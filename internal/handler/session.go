package handler

import (
	"net/http"

	"contribuddy/internal/common"
	"contribuddy/internal/middleware"
	"contribuddy/internal/pkg/response"
	"contribuddy/internal/service"

	"github.com/gin-gonic/gin"
)

// session 已登录请求的用户与 GitHub 访问令牌
type session struct {
	claims *service.Claims
	token  string
}

// requireSession 取出载荷与令牌，失败时已写入响应
// missingStatus/missingMsg 为找不到 GitHub 令牌时的响应
func requireSession(c *gin.Context, auth *service.AuthService, missingStatus int, missingMsg string) (*session, bool) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.FailWith(c, http.StatusUnauthorized, common.ErrCodeNotAuthenticated, "Authentication required")
		return nil, false
	}
	token, found, err := auth.AccessToken(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, err)
		return nil, false
	}
	if !found {
		response.RequireAuth(c, missingStatus, missingMsg)
		return nil, false
	}
	return &session{claims: claims, token: token}, true
}
