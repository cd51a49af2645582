package analyzer

import (
	"testing"
	"time"

	"contribuddy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedAnalyzer(now time.Time) *RepoAnalyzer {
	a := NewRepoAnalyzer(nil)
	a.SetNowFunc(func() time.Time { return now })
	return a
}

func TestAnalyzeSkills_NoRepositories(t *testing.T) {
	got := NewRepoAnalyzer(nil).AnalyzeSkills(nil)

	assert.Equal(t, 0, got.Confidence)
	assert.Empty(t, got.Languages)
	assert.Empty(t, got.Frameworks)
	assert.Empty(t, got.Interests)
	assert.NotNil(t, got.Interests)
	assert.Equal(t, domain.LevelBeginner, got.ExperienceLevel)
	assert.Equal(t, "No activity", got.Summary.RecentActivity)
	assert.Equal(t, 0, got.Summary.TotalRepositories)
}

func TestAnalyzeSkills_Languages(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	evidence := []RepoEvidence{
		{Repo: domain.Repository{Name: "small", Language: "Go", Size: 50, UpdatedAt: now}},
		{
			Repo:      domain.Repository{Name: "starred", Language: "Go", Stars: 5, UpdatedAt: now},
			Languages: map[string]int{"Go": 20000, "Shell": 1000},
		},
		{Repo: domain.Repository{Name: "script", Language: "Python", Size: 10, UpdatedAt: now}},
	}

	got := fixedAnalyzer(now).AnalyzeSkills(evidence)

	require.Len(t, got.Languages, 3)
	assert.Equal(t, domain.LanguageSkill{Name: "Go", Level: domain.LevelAdvanced, Confidence: 90}, got.Languages[0])
	assert.Equal(t, domain.LanguageSkill{Name: "Shell", Level: domain.LevelIntermediate, Confidence: 61}, got.Languages[1])
	assert.Equal(t, domain.LanguageSkill{Name: "Python", Level: domain.LevelBeginner, Confidence: 61}, got.Languages[2])

	assert.Equal(t, 51, got.Confidence)
	assert.Equal(t, domain.LevelBeginner, got.ExperienceLevel)
	assert.Equal(t, 3, got.Summary.TotalRepositories)
	assert.Equal(t, 3, got.Summary.PublicRepositories)
	assert.Equal(t, "High activity", fixedRecentActivity(now, 6))
}

func fixedRecentActivity(now time.Time, n int) string {
	repos := make([]domain.Repository, n)
	for i := range repos {
		repos[i].UpdatedAt = now
	}
	return repoActivity(repos, now)
}

func TestAnalyzeSkills_Frameworks(t *testing.T) {
	evidence := []RepoEvidence{
		{
			Repo: domain.Repository{
				Name:        "my-react",
				Description: "A React app",
				Topics:      []string{"react", "react-hooks"},
				Language:    "JavaScript",
			},
			Dependencies: []string{"jest", "webpack"},
		},
		{Repo: domain.Repository{Name: "service", Topics: []string{"docker"}}},
		{Repo: domain.Repository{Name: "tools", Topics: []string{"docker", "k8s"}}},
	}

	got := NewRepoAnalyzer(nil).AnalyzeSkills(evidence)

	names := make([]string, 0, len(got.Frameworks))
	for _, f := range got.Frameworks {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Docker", "React", "Jest", "Webpack", "Kubernetes"}, names)
	assert.Equal(t, 85, got.Frameworks[0].Confidence)
	assert.Equal(t, 68, got.Frameworks[1].Confidence)
	assert.Equal(t, domain.LevelAdvanced, got.Frameworks[1].Level)
	assert.Equal(t, domain.LevelIntermediate, got.Frameworks[2].Level)
	assert.Equal(t, domain.LevelBeginner, got.Frameworks[4].Level)
}

func TestExtractInterests(t *testing.T) {
	repos := []domain.Repository{
		{Topics: []string{"machine-learning", "cli"}, Description: "Fast CLI for machine learning pipelines"},
		{Topics: []string{"machine-learning"}, Description: "Data pipelines made simple"},
		{Topics: []string{"web"}, Description: "The web framework"},
	}

	assert.Equal(t, []string{"machine learning", "pipelines"}, extractInterests(repos))
	assert.Equal(t, []string{}, extractInterests(nil))
}

func TestKeywords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"去掉标点与停用词", "Hello, World! A tiny-tool for you & me", []string{"hello", "world", "tiny", "tool", "you"}},
		{"最多 5 个", "alpha beta gamma delta epsilon zeta", []string{"alpha", "beta", "gamma", "delta", "epsilon"}},
		{"空描述", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Keywords(tt.text))
		})
	}
}

func TestExperienceLevel(t *testing.T) {
	makeRepos := func(n, starsEach, sizeEach int) []domain.Repository {
		repos := make([]domain.Repository, n)
		for i := range repos {
			repos[i] = domain.Repository{Stars: starsEach, Size: sizeEach}
		}
		return repos
	}

	tests := []struct {
		name      string
		repos     []domain.Repository
		languages int
		expected  domain.ExperienceLevel
	}{
		{"各项都满分", makeRepos(20, 3, 1000), 5, domain.LevelAdvanced},
		{"中等", makeRepos(10, 1, 0), 3, domain.LevelIntermediate},
		{"仓库少", makeRepos(5, 0, 500), 0, domain.LevelBeginner},
		{"只有数量与语言", makeRepos(20, 0, 0), 5, domain.LevelIntermediate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, experienceLevel(tt.repos, tt.languages))
		})
	}
}

func TestOverallConfidence(t *testing.T) {
	assert.Equal(t, 30, overallConfidence(0, 0))
	assert.Equal(t, 51, overallConfidence(3, 3))
	assert.Equal(t, 85, overallConfidence(50, 10))
}

func TestEstimateCommitsAndActivity(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	repos := []domain.Repository{
		{Size: 300, UpdatedAt: now.AddDate(0, 0, -60)},
		{Size: 50, UpdatedAt: now.AddDate(0, 0, -15)},
	}

	assert.Equal(t, 13, estimateCommits(repos, now))
	assert.Equal(t, "Low activity", repoActivity(repos, now))
	assert.Equal(t, "No recent activity", repoActivity([]domain.Repository{{UpdatedAt: now.AddDate(-1, 0, 0)}}, now))
	assert.Equal(t, "Moderate activity", fixedRecentActivity(now, 5))
}

func TestNeedsLanguageBreakdown(t *testing.T) {
	assert.False(t, NeedsLanguageBreakdown(domain.Repository{Size: 100}))
	assert.True(t, NeedsLanguageBreakdown(domain.Repository{Size: 101}))
	assert.True(t, NeedsLanguageBreakdown(domain.Repository{Stars: 1}))
}
