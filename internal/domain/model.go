package domain

import (
	"fmt"
	"strings"
	"time"
)

// ExperienceLevel 经验等级
type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
)

// ParseExperienceLevel 解析经验等级，大小写不敏感
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	switch ExperienceLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LevelBeginner:
		return LevelBeginner, nil
	case LevelIntermediate:
		return LevelIntermediate, nil
	case LevelAdvanced:
		return LevelAdvanced, nil
	}
	return "", fmt.Errorf("未知的经验等级: %q", s)
}

// SkillProfile 推荐打分的输入：语言、框架、兴趣与经验等级
type SkillProfile struct {
	Languages       []string        `json:"languages"`
	Frameworks      []string        `json:"frameworks"`
	Interests       []string        `json:"interests"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`
}

// IsEmpty 语言、框架、兴趣都为空时返回 true
func (p SkillProfile) IsEmpty() bool {
	return len(p.Languages) == 0 && len(p.Frameworks) == 0 && len(p.Interests) == 0
}

// Owner 仓库所有者
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	Type      string `json:"type"`
}

// Repository 代表一个候选开源项目，以 GitHub 仓库 ID 作为唯一标识
type Repository struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"` // 例如 "gin-gonic/gin"
	Description   string    `json:"description"`
	HTMLURL       string    `json:"html_url"`
	Language      string    `json:"language"`
	Topics        []string  `json:"topics"`
	Stars         int       `json:"stargazers_count"`
	Forks         int       `json:"forks_count"`
	OpenIssues    int       `json:"open_issues_count"`
	Size          int       `json:"size"`
	Owner         Owner     `json:"owner"`
	UpdatedAt     time.Time `json:"updated_at"`
	PushedAt      time.Time `json:"pushed_at"`
	DefaultBranch string    `json:"default_branch"`
	License       string    `json:"license,omitempty"`
	Fork          bool      `json:"fork"`
}

// SplitFullName 把 "owner/repo" 拆成两部分
func SplitFullName(fullName string) (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", false
	}
	return owner, repo, true
}

// SearchFilter 一次仓库搜索的条件，MaxStars 为 0 表示不设上限
type SearchFilter struct {
	Language        string   `json:"language,omitempty"`
	MinStars        int      `json:"minStars,omitempty"`
	MaxStars        int      `json:"maxStars,omitempty"`
	GoodFirstIssues bool     `json:"hasGoodFirstIssues"`
	Topics          []string `json:"topics,omitempty"`
}

// FilterOverrides 调用方显式指定的过滤条件，非 nil 字段覆盖计算出的条件
type FilterOverrides struct {
	Language        *string  `json:"language,omitempty"`
	MinStars        *int     `json:"minStars,omitempty"`
	MaxStars        *int     `json:"maxStars,omitempty"`
	GoodFirstIssues *bool    `json:"hasGoodFirstIssues,omitempty"`
	Topics          []string `json:"topics,omitempty"`
}

// Apply 把覆盖字段合并到 f 上
func (o *FilterOverrides) Apply(f SearchFilter) SearchFilter {
	if o == nil {
		return f
	}
	if o.Language != nil {
		f.Language = *o.Language
	}
	if o.MinStars != nil {
		f.MinStars = *o.MinStars
	}
	if o.MaxStars != nil {
		f.MaxStars = *o.MaxStars
	}
	if o.GoodFirstIssues != nil {
		f.GoodFirstIssues = *o.GoodFirstIssues
	}
	if o.Topics != nil {
		f.Topics = o.Topics
	}
	return f
}

// Label issue 标签
type Label struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// Issue 仓库中的一个 issue
type Issue struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	HTMLURL   string    `json:"html_url"`
	State     string    `json:"state"`
	Labels    []Label   `json:"labels"`
	User      string    `json:"user"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recommendation 打分后的推荐结果
type Recommendation struct {
	Repository      Repository `json:"repo"`
	MatchScore      int        `json:"matchScore"`
	Reasons         []string   `json:"reasons"`
	SuggestedIssues []Issue    `json:"suggestedIssues"`
	Pitch           string     `json:"pitch,omitempty"`
}

// GitHubUser GitHub 用户资料
type GitHubUser struct {
	ID          int64     `json:"id"`
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// User 本系统的用户，用户 ID 直接取 GitHub ID
type User struct {
	ID          int64     `json:"id"`
	GitHubID    int64     `json:"githubId"`
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Event 公开事件流中的一条记录
type Event struct {
	Type      string    `json:"type"`
	RepoName  string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
}
