package common

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError 应用级错误结构
// Status 为上游或对外的 HTTP 状态码，0 表示未知
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError 包装错误
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError 创建新错误
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewStatusError 创建带 HTTP 状态码的错误
func NewStatusError(code string, status int, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 错误码常量
const (
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeGitHubAPI        = "GITHUB_API_ERROR"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeDatabase         = "DATABASE_ERROR"
	ErrCodeAIProcessing     = "AI_PROCESSING_ERROR"
	ErrCodeNotification     = "NOTIFICATION_ERROR"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// CodeOf 返回错误链中第一个 AppError 的错误码，没有则为 ErrCodeInternal
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// StatusOf 返回错误链中第一个 AppError 的状态码
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

func IsRateLimited(err error) bool {
	return CodeOf(err) == ErrCodeRateLimited
}

func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// HTTPStatus 把错误码映射为对外的 HTTP 状态码
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeNotAuthenticated:
		return http.StatusUnauthorized
	case ErrCodeGitHubAPI:
		if s := StatusOf(err); s >= 500 || s == 0 {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
