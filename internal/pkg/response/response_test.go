package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"contribuddy/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"限流", common.NewError(common.ErrCodeRateLimited, "slow down"), http.StatusTooManyRequests, common.ErrCodeRateLimited, "slow down"},
		{"参数错误", common.NewError(common.ErrCodeInvalidInput, "bad"), http.StatusBadRequest, common.ErrCodeInvalidInput, "bad"},
		{"包装后的错误", fmt.Errorf("外层: %w", common.NewError(common.ErrCodeNotFound, "missing")), http.StatusNotFound, common.ErrCodeNotFound, "missing"},
		{"未知错误不泄露细节", errors.New("pq: password=secret"), http.StatusInternalServerError, common.ErrCodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Fail(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
			assert.True(t, c.IsAborted())
		})
	}
}

func TestOKMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	OKMessage(c, nil, "done")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":null,"message":"done"}`, w.Body.String())
}

func TestRequireAuth(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	RequireAuth(c, http.StatusBadRequest, "re-authenticate")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_AUTHENTICATED","message":"re-authenticate"},"requiresAuth":true}`, w.Body.String())
}
