package middleware

import (
	"net/http"
	"strings"

	"contribuddy/internal/common"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/pkg/response"
	"contribuddy/internal/service"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// TokenParser 校验 JWT
type TokenParser interface {
	ParseToken(raw string) (*service.Claims, error)
}

type AuthMiddleware struct {
	log    *logger.Logger
	parser TokenParser
}

func NewAuthMiddleware(log *logger.Logger, parser TokenParser) *AuthMiddleware {
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), parser: parser}
}

// RequireAuth 校验 Bearer 令牌，把载荷放进 gin.Context
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			response.FailWith(c, http.StatusUnauthorized, common.ErrCodeNotAuthenticated, "Access token required")
			return
		}
		claims, err := am.parser.ParseToken(raw)
		if err != nil {
			am.log.Debug("令牌校验失败", "error", err)
			response.Fail(c, err)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom 取出 RequireAuth 写入的载荷
func ClaimsFrom(c *gin.Context) (*service.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*service.Claims)
	return claims, ok && claims != nil
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
