package handler

import (
	"net/http"
	"time"

	"contribuddy/internal/common"
	"contribuddy/internal/middleware"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Log            *logger.Logger
	AllowedOrigins []string
	RequestTimeout time.Duration

	AuthMiddleware        *middleware.AuthMiddleware
	HealthHandler         *HealthHandler
	AuthHandler           *AuthHandler
	SkillHandler          *SkillHandler
	RecommendationHandler *RecommendationHandler
	GitHubHandler         *GitHubHandler
	ContributionHandler   *ContributionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(cfg.Log))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.NoRoute(func(c *gin.Context) {
		response.FailWith(c, http.StatusNotFound, common.ErrCodeNotFound, "Route not found")
	})

	if cfg.HealthHandler != nil {
		r.GET("/health", cfg.HealthHandler.Health)
	}

	requireAuth := func(c *gin.Context) { c.Next() }
	if cfg.AuthMiddleware != nil {
		requireAuth = cfg.AuthMiddleware.RequireAuth()
	}

	api := r.Group("/api")

	if h := cfg.AuthHandler; h != nil {
		auth := api.Group("/auth")
		auth.GET("/github/url", h.GitHubURL)
		auth.POST("/github/callback", h.Callback)
		auth.GET("/me", requireAuth, h.Me)
		auth.POST("/logout", requireAuth, h.Logout)
	}

	if h := cfg.SkillHandler; h != nil {
		skills := api.Group("/skills", requireAuth)
		skills.POST("/analyze", h.Analyze)
		skills.GET("/my-analysis", h.MyAnalysis)
		skills.DELETE("/my-analysis", h.DeleteAnalysis)
		skills.GET("/status", h.Status)
	}

	if h := cfg.RecommendationHandler; h != nil {
		recs := api.Group("/recommendations")
		recs.POST("/generate", h.Generate)
		recs.POST("/personalized", requireAuth, h.Personalized)
		recs.GET("/trending/:language", h.Trending)
		if cfg.HealthHandler != nil {
			recs.GET("/health", cfg.HealthHandler.RecommendationsHealth)
		}
	}

	if h := cfg.GitHubHandler; h != nil {
		gh := api.Group("/github/repositories")
		gh.GET("/search", h.SearchRepositories)
		gh.GET("/:owner/:repo", h.Repository)
		gh.GET("/:owner/:repo/issues", h.Issues)
		gh.GET("/:owner/:repo/good-first-issues", h.GoodFirstIssues)
	}

	if h := cfg.ContributionHandler; h != nil {
		history := api.Group("/contribution-history", requireAuth)
		history.GET("", h.Mine)
		history.GET("/stats/summary", h.Summary)
		history.GET("/:username", h.ByUser)
	}

	return r
}
