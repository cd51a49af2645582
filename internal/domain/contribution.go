package domain

import "time"

// RepoRef 贡献记录所属的仓库上下文
type RepoRef struct {
	FullName string `json:"fullName"`
	Language string `json:"language"`
	Stars    int    `json:"stars"`
}

// PullRequest 用户发起的 PR
type PullRequest struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	State        string     `json:"state"`
	HTMLURL      string     `json:"htmlUrl"`
	Repository   RepoRef    `json:"repository"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	MergedAt     *time.Time `json:"mergedAt,omitempty"`
	ClosedAt     *time.Time `json:"closedAt,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changedFiles"`
	Labels       []string   `json:"labels"`
}

// IssueRecord 用户创建的 issue
type IssueRecord struct {
	ID         int64      `json:"id"`
	Number     int        `json:"number"`
	Title      string     `json:"title"`
	State      string     `json:"state"`
	HTMLURL    string     `json:"htmlUrl"`
	Repository RepoRef    `json:"repository"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	Comments   int        `json:"comments"`
	Labels     []string   `json:"labels"`
}

// CommitStats 单个提交的增删行数
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// Commit 用户的提交
type Commit struct {
	SHA        string       `json:"sha"`
	Message    string       `json:"message"`
	HTMLURL    string       `json:"htmlUrl"`
	Repository RepoRef      `json:"repository"`
	CreatedAt  time.Time    `json:"createdAt"`
	Stats      *CommitStats `json:"stats,omitempty"`
}

type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

type RepositoryCount struct {
	Repository string `json:"repository"`
	Count      int    `json:"count"`
}

// MonthlyActivity 某个月 (YYYY-MM) 的贡献数量
type MonthlyActivity struct {
	Month        string `json:"month"`
	PullRequests int    `json:"pullRequests"`
	Issues       int    `json:"issues"`
	Commits      int    `json:"commits"`
	Total        int    `json:"total"`
}

// ContributionStats 由 PR、issue、commit 推导出的统计
type ContributionStats struct {
	TopLanguages         []LanguageCount   `json:"topLanguages"`
	TopRepositories      []RepositoryCount `json:"topRepositories"`
	MonthlyActivity      []MonthlyActivity `json:"monthlyActivity"`
	TotalAdditions       int               `json:"totalAdditions"`
	TotalDeletions       int               `json:"totalDeletions"`
	AveragePRSize        float64           `json:"averagePRSize"`
	ContributionStreak   int               `json:"contributionStreak"`
	FirstContribution    *time.Time        `json:"firstContribution"`
	MostActiveRepository *string           `json:"mostActiveRepository"`
}

type ContributionSummary struct {
	TotalContributions int    `json:"totalContributions"`
	PullRequests       int    `json:"pullRequests"`
	Issues             int    `json:"issues"`
	Commits            int    `json:"commits"`
	MergedPRs          int    `json:"mergedPRs"`
	ClosedIssues       int    `json:"closedIssues"`
	RecentActivity     string `json:"recentActivity"`
}

// ContributionHistory 贡献历史的完整结果
type ContributionHistory struct {
	Username     string              `json:"username"`
	PullRequests []PullRequest       `json:"pullRequests"`
	Issues       []IssueRecord       `json:"issues"`
	Commits      []Commit            `json:"commits"`
	Stats        ContributionStats   `json:"stats"`
	Summary      ContributionSummary `json:"summary"`
	AnalyzedAt   time.Time           `json:"analyzedAt"`
}

// StatsSummary 贡献统计的精简视图
type StatsSummary struct {
	Username   string              `json:"username"`
	AnalyzedAt time.Time           `json:"analyzedAt"`
	Summary    ContributionSummary `json:"summary"`
	Stats      CondensedStats      `json:"stats"`
}

// CondensedStats 前 5 的语言与仓库，最近 6 个月的活动
type CondensedStats struct {
	TopLanguages         []LanguageCount   `json:"topLanguages"`
	TopRepositories      []RepositoryCount `json:"topRepositories"`
	MonthlyActivity      []MonthlyActivity `json:"monthlyActivity"`
	TotalAdditions       int               `json:"totalAdditions"`
	TotalDeletions       int               `json:"totalDeletions"`
	ContributionStreak   int               `json:"contributionStreak"`
	FirstContribution    *time.Time        `json:"firstContribution"`
	MostActiveRepository *string           `json:"mostActiveRepository"`
}

// Condense 生成统计摘要
func (h *ContributionHistory) Condense() StatsSummary {
	s := h.Stats
	return StatsSummary{
		Username:   h.Username,
		AnalyzedAt: h.AnalyzedAt,
		Summary:    h.Summary,
		Stats: CondensedStats{
			TopLanguages:         head(s.TopLanguages, 5),
			TopRepositories:      head(s.TopRepositories, 5),
			MonthlyActivity:      tail(s.MonthlyActivity, 6),
			TotalAdditions:       s.TotalAdditions,
			TotalDeletions:       s.TotalDeletions,
			ContributionStreak:   s.ContributionStreak,
			FirstContribution:    s.FirstContribution,
			MostActiveRepository: s.MostActiveRepository,
		},
	}
}

func head[T any](in []T, n int) []T {
	if len(in) > n {
		return in[:n]
	}
	return in
}

func tail[T any](in []T, n int) []T {
	if len(in) > n {
		return in[len(in)-n:]
	}
	return in
}
