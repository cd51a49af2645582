package response

import (
	"errors"
	"net/http"

	"contribuddy/internal/common"

	"github.com/gin-gonic/gin"
)

// Envelope 成功响应
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope 失败响应
type ErrorEnvelope struct {
	Success      bool     `json:"success"`
	Error        APIError `json:"error"`
	RequiresAuth bool     `json:"requiresAuth,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func OKMessage(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Message: message})
}

// Fail 按错误码映射状态码，非 AppError 的错误不把内部信息返回给客户端
func Fail(c *gin.Context, err error) {
	status := common.HTTPStatus(err)
	code := common.CodeOf(err)
	msg := "Internal server error"
	if appErr := asAppError(err); appErr != nil {
		msg = appErr.Message
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Code: code, Message: msg},
	})
}

// FailWith 直接指定状态码与错误码
func FailWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Code: code, Message: message},
	})
}

// RequireAuth 需要重新走 GitHub 授权
func RequireAuth(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error:        APIError{Code: common.ErrCodeNotAuthenticated, Message: message},
		RequiresAuth: true,
	})
}

func asAppError(err error) *common.AppError {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
