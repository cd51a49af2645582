package handler

import (
	"net/http"
	"strconv"
	"strings"

	"contribuddy/internal/adapter/filter"
	"contribuddy/internal/common"
	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/response"
	"contribuddy/internal/port"
	"contribuddy/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	rawSearchPerPage = 50
	rawIssuesPerPage = 20
)

// GitHubHandler 直接代理 GitHub 查询，使用服务端令牌
type GitHubHandler struct {
	github      port.GitHubProvider
	recs        *service.RecommendationService
	serverToken string
}

func NewGitHubHandler(github port.GitHubProvider, recs *service.RecommendationService, serverToken string) *GitHubHandler {
	return &GitHubHandler{github: github, recs: recs, serverToken: serverToken}
}

// SearchRepositories GET /api/github/repositories/search
func (h *GitHubHandler) SearchRepositories(c *gin.Context) {
	var f domain.SearchFilter
	f.Language = c.Query("language")
	for _, p := range []struct {
		key string
		dst *int
	}{{"minStars", &f.MinStars}, {"maxStars", &f.MaxStars}} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.FailWith(c, http.StatusBadRequest, common.ErrCodeInvalidInput, p.key+" must be a non-negative integer")
			return
		}
		*p.dst = n
	}
	f.GoodFirstIssues = c.Query("hasGoodFirstIssues") == "true"
	if topics := c.Query("topics"); topics != "" {
		f.Topics = splitCSV(topics)
	}

	repos, err := h.github.ForToken(h.serverToken).SearchRepositories(c.Request.Context(), filter.BuildQuery(f), rawSearchPerPage)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"repositories": repos, "count": len(repos)})
}

// Repository GET /api/github/repositories/:owner/:repo
func (h *GitHubHandler) Repository(c *gin.Context) {
	owner, name := c.Param("owner"), c.Param("repo")
	repo, err := h.github.ForToken(h.serverToken).GetRepository(c.Request.Context(), owner, name)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, repo)
}

// Issues GET /api/github/repositories/:owner/:repo/issues?labels=a,b
func (h *GitHubHandler) Issues(c *gin.Context) {
	owner, name := c.Param("owner"), c.Param("repo")
	var labels []string
	if raw := c.Query("labels"); raw != "" {
		labels = splitCSV(raw)
	}

	issues, err := h.github.ForToken(h.serverToken).ListOpenIssues(c.Request.Context(), owner, name, labels, rawIssuesPerPage)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"issues": issues, "count": len(issues)})
}

// GoodFirstIssues GET /api/github/repositories/:owner/:repo/good-first-issues
func (h *GitHubHandler) GoodFirstIssues(c *gin.Context) {
	issues, err := h.recs.GoodFirstIssues(c.Request.Context(), h.serverToken, c.Param("owner"), c.Param("repo"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"issues": issues, "count": len(issues)})
}

func splitCSV(raw string) []string {
	return cleanList(strings.Split(raw, ","))
}
