package handler

import (
	"net/http"

	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/pkg/response"
	"contribuddy/internal/service"

	"github.com/gin-gonic/gin"
)

const missingTokenMsg = "GitHub access token not found. Please re-authenticate."

type ContributionHandler struct {
	log     *logger.Logger
	contrib *service.ContributionService
	auth    *service.AuthService
}

func NewContributionHandler(log *logger.Logger, contrib *service.ContributionService, auth *service.AuthService) *ContributionHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ContributionHandler{log: log.With("handler", "ContributionHandler"), contrib: contrib, auth: auth}
}

// Mine GET /api/contribution-history
func (h *ContributionHandler) Mine(c *gin.Context) {
	sess, ok := requireSession(c, h.auth, http.StatusUnauthorized, missingTokenMsg)
	if !ok {
		return
	}
	history, err := h.contrib.GetMyContributionHistory(c.Request.Context(), sess.token)
	if err != nil {
		h.log.Error("获取贡献历史失败", "userId", sess.claims.UserID, "error", err)
		response.Fail(c, err)
		return
	}
	response.OK(c, history)
}

// ByUser GET /api/contribution-history/:username
func (h *ContributionHandler) ByUser(c *gin.Context) {
	sess, ok := requireSession(c, h.auth, http.StatusUnauthorized, missingTokenMsg)
	if !ok {
		return
	}
	username := c.Param("username")
	history, err := h.contrib.GetContributionHistory(c.Request.Context(), sess.token, username)
	if err != nil {
		h.log.Error("获取贡献历史失败", "username", username, "error", err)
		response.Fail(c, err)
		return
	}
	response.OK(c, history)
}

// Summary GET /api/contribution-history/stats/summary
func (h *ContributionHandler) Summary(c *gin.Context) {
	sess, ok := requireSession(c, h.auth, http.StatusUnauthorized, missingTokenMsg)
	if !ok {
		return
	}
	summary, err := h.contrib.GetStatsSummary(c.Request.Context(), sess.token)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, summary)
}
