package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contribuddy/internal/common"
	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/pkg/response"
	"contribuddy/internal/service"

	"github.com/gin-gonic/gin"
)

const emptyProfileMsg = "At least one skill, framework, or interest must be provided"

type RecommendationHandler struct {
	log         *logger.Logger
	recs        *service.RecommendationService
	skills      *service.SkillService
	auth        *service.AuthService
	serverToken string
}

// NewRecommendationHandler serverToken 用于未登录的请求，可以为空
func NewRecommendationHandler(log *logger.Logger, recs *service.RecommendationService, skills *service.SkillService, auth *service.AuthService, serverToken string) *RecommendationHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RecommendationHandler{
		log:         log.With("handler", "RecommendationHandler"),
		recs:        recs,
		skills:      skills,
		auth:        auth,
		serverToken: serverToken,
	}
}

type skillsInput struct {
	Languages       []string `json:"languages"`
	Frameworks      []string `json:"frameworks"`
	Interests       []string `json:"interests"`
	ExperienceLevel string   `json:"experienceLevel"`
}

type recommendationRequest struct {
	Skills  skillsInput             `json:"skills"`
	Filters *domain.FilterOverrides `json:"filters"`
}

type recommendationData struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	TotalCount      int                     `json:"totalCount"`
	ProcessingTime  int64                   `json:"processingTime"`
}

// profile 校验输入并转换成技能画像，经验等级缺省为 beginner
func (in skillsInput) profile() (domain.SkillProfile, error) {
	p := domain.SkillProfile{
		Languages:       cleanList(in.Languages),
		Frameworks:      cleanList(in.Frameworks),
		Interests:       cleanList(in.Interests),
		ExperienceLevel: domain.LevelBeginner,
	}
	if in.ExperienceLevel != "" {
		level, err := domain.ParseExperienceLevel(in.ExperienceLevel)
		if err != nil {
			return p, common.NewStatusError(common.ErrCodeInvalidInput, http.StatusBadRequest, "Invalid request data: "+err.Error(), err)
		}
		p.ExperienceLevel = level
	}
	return p, nil
}

func validateOverrides(f *domain.FilterOverrides) error {
	if f == nil {
		return nil
	}
	if (f.MinStars != nil && *f.MinStars < 0) || (f.MaxStars != nil && *f.MaxStars < 0) {
		return common.NewStatusError(common.ErrCodeInvalidInput, http.StatusBadRequest, "Invalid request data: stars must be non-negative", nil)
	}
	return nil
}

// Generate POST /api/recommendations/generate
func (h *RecommendationHandler) Generate(c *gin.Context) {
	start := time.Now()

	var req recommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailWith(c, http.StatusBadRequest, common.ErrCodeInvalidInput, "Invalid request data")
		return
	}
	profile, err := req.Skills.profile()
	if err == nil {
		err = validateOverrides(req.Filters)
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	if profile.IsEmpty() {
		response.FailWith(c, http.StatusBadRequest, common.ErrCodeInvalidInput, emptyProfileMsg)
		return
	}

	h.log.Info("📝 生成推荐", "languages", profile.Languages, "frameworks", profile.Frameworks,
		"interests", profile.Interests, "level", profile.ExperienceLevel)
	recs, err := h.recs.GetRecommendations(c.Request.Context(), h.serverToken, profile, req.Filters)
	if err != nil {
		h.log.Error("❌ 生成推荐失败", "error", err)
		response.Fail(c, err)
		return
	}
	respondRecommendations(c, recs, start)
}

// Personalized POST /api/recommendations/personalized
// 请求体中的技能为空时使用缓存或现场分析的画像
func (h *RecommendationHandler) Personalized(c *gin.Context) {
	start := time.Now()
	sess, ok := requireSession(c, h.auth, http.StatusUnauthorized, "GitHub access token not found. Please re-authenticate.")
	if !ok {
		return
	}

	var req recommendationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.FailWith(c, http.StatusBadRequest, common.ErrCodeInvalidInput, "Invalid request data")
			return
		}
	}
	profile, err := req.Skills.profile()
	if err == nil {
		err = validateOverrides(req.Filters)
	}
	if err != nil {
		response.Fail(c, err)
		return
	}

	ctx := c.Request.Context()
	if profile.IsEmpty() {
		profile, err = h.skills.ProfileFor(ctx, sess.claims.UserID, sess.token, sess.claims.Login)
		if err != nil {
			response.Fail(c, err)
			return
		}
		if profile.ExperienceLevel == "" {
			profile.ExperienceLevel = domain.LevelBeginner
		}
	}

	recs, err := h.recs.GetPersonalizedRecommendations(ctx, sess.token, sess.claims.Login, profile, req.Filters)
	if err != nil {
		h.log.Error("❌ 生成个性化推荐失败", "login", sess.claims.Login, "error", err)
		response.Fail(c, err)
		return
	}
	respondRecommendations(c, recs, start)
}

func respondRecommendations(c *gin.Context, recs []domain.Recommendation, start time.Time) {
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	elapsed := time.Since(start).Milliseconds()
	response.OKMessage(c, recommendationData{
		Recommendations: recs,
		TotalCount:      len(recs),
		ProcessingTime:  elapsed,
	}, fmt.Sprintf("Generated %d recommendations in %dms", len(recs), elapsed))
}

// Trending GET /api/recommendations/trending/:language?limit=
func (h *RecommendationHandler) Trending(c *gin.Context) {
	language := c.Param("language")
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.FailWith(c, http.StatusBadRequest, common.ErrCodeInvalidInput, "limit must be a positive integer")
			return
		}
		limit = n
	}

	repos, err := h.recs.GetTrending(c.Request.Context(), h.serverToken, language, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"language":     language,
		"repositories": repos,
		"count":        len(repos),
	})
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
