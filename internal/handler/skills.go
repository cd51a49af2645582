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

const reauthenticateMsg = "GitHub access token not found. Please re-authenticate with GitHub."

type SkillHandler struct {
	log    *logger.Logger
	skills *service.SkillService
	auth   *service.AuthService
}

func NewSkillHandler(log *logger.Logger, skills *service.SkillService, auth *service.AuthService) *SkillHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &SkillHandler{log: log.With("handler", "SkillHandler"), skills: skills, auth: auth}
}

// Analyze POST /api/skills/analyze
func (h *SkillHandler) Analyze(c *gin.Context) {
	sess, ok := requireSession(c, h.auth, http.StatusBadRequest, reauthenticateMsg)
	if !ok {
		return
	}

	h.log.Info("开始技能分析", "userId", sess.claims.UserID, "login", sess.claims.Login)
	stored, err := h.skills.AnalyzeAndStore(c.Request.Context(), sess.claims.UserID, sess.token)
	if err != nil {
		h.log.Error("技能分析失败", "userId", sess.claims.UserID, "error", err)
		response.Fail(c, err)
		return
	}
	response.OK(c, stored)
}

// MyAnalysis GET /api/skills/my-analysis
func (h *SkillHandler) MyAnalysis(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.FailWith(c, http.StatusUnauthorized, common.ErrCodeNotAuthenticated, "Authentication required")
		return
	}
	stored, err := h.skills.GetStored(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if stored == nil {
		response.OKMessage(c, nil, "No analysis found. Please run an analysis first.")
		return
	}
	response.OK(c, stored)
}

// DeleteAnalysis DELETE /api/skills/my-analysis
func (h *SkillHandler) DeleteAnalysis(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.FailWith(c, http.StatusUnauthorized, common.ErrCodeNotAuthenticated, "Authentication required")
		return
	}
	deleted, err := h.skills.DeleteStored(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if deleted {
		response.OKMessage(c, nil, "Analysis deleted successfully")
		return
	}
	response.OKMessage(c, nil, "No analysis found to delete")
}

// Status GET /api/skills/status
func (h *SkillHandler) Status(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		response.FailWith(c, http.StatusUnauthorized, common.ErrCodeNotAuthenticated, "Authentication required")
		return
	}
	ctx := c.Request.Context()

	status, err := h.skills.Status(ctx, claims.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	_, hasToken, err := h.auth.AccessToken(ctx, claims.UserID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	status.HasGitHubToken = hasToken
	response.OK(c, status)
}
