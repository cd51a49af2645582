package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contribuddy/internal/common"
	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthService() *service.AuthService {
	return service.NewAuthService(nil, nil, nil, "mw-secret", time.Hour, nil)
}

func TestRequireAuth(t *testing.T) {
	auth := newAuthService()
	valid, err := auth.IssueToken(&domain.User{ID: 7, GitHubID: 7, Login: "octo"})
	require.NoError(t, err)

	r := gin.New()
	r.Use(NewAuthMiddleware(logger.NewNop(), auth).RequireAuth())
	r.GET("/me", func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Login)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"有效令牌", "Bearer " + valid, http.StatusOK, "octo"},
		{"小写 bearer", "bearer " + valid, http.StatusOK, "octo"},
		{"缺少令牌", "", http.StatusUnauthorized, common.ErrCodeNotAuthenticated},
		{"格式错误", "Token " + valid, http.StatusUnauthorized, "Access token required"},
		{"伪造令牌", "Bearer abc.def.ghi", http.StatusUnauthorized, "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger.NewNop()))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("生成新的请求 ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("沿用客户端的请求 ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		allowed bool
	}{
		{"默认允许本地开发", nil, "http://localhost:5173", true},
		{"配置的域名", []string{"https://contribuddy.dev"}, "https://contribuddy.dev", true},
		{"未配置的域名", []string{"https://contribuddy.dev"}, "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.origins))
			r.POST("/api/recommendations/generate", func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodOptions, "/api/recommendations/generate", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(50 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
