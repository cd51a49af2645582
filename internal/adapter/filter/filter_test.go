package filter

import (
	"testing"

	"contribuddy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name      string
		profile   domain.SkillProfile
		overrides *domain.FilterOverrides
		expected  []domain.SearchFilter
	}{
		{
			name: "新手每种语言一个条件",
			profile: domain.SkillProfile{
				Languages:       []string{"Python", "Go"},
				Interests:       []string{"machine-learning"},
				ExperienceLevel: domain.LevelBeginner,
			},
			expected: []domain.SearchFilter{
				{Language: "python", GoodFirstIssues: true, MinStars: 10, MaxStars: 5000, Topics: []string{"machine-learning"}},
				{Language: "go", GoodFirstIssues: true, MinStars: 10, MaxStars: 5000, Topics: []string{"machine-learning"}},
			},
		},
		{
			name:    "中级不要求 good first issue",
			profile: domain.SkillProfile{Languages: []string{"rust"}, ExperienceLevel: domain.LevelIntermediate},
			expected: []domain.SearchFilter{
				{Language: "rust", MinStars: 50, MaxStars: 20000},
			},
		},
		{
			name:    "高级不设 star 上限",
			profile: domain.SkillProfile{Languages: []string{"c"}, ExperienceLevel: domain.LevelAdvanced},
			expected: []domain.SearchFilter{
				{Language: "c", MinStars: 100, MaxStars: 0},
			},
		},
		{
			name:    "只有兴趣时生成 topic 条件",
			profile: domain.SkillProfile{Interests: []string{"cli", "devops"}, ExperienceLevel: domain.LevelAdvanced},
			expected: []domain.SearchFilter{
				{MinStars: 100, Topics: []string{"cli", "devops"}},
			},
		},
		{
			name:     "什么都没有时使用默认条件",
			profile:  domain.SkillProfile{ExperienceLevel: domain.LevelAdvanced},
			expected: []domain.SearchFilter{{GoodFirstIssues: true, MinStars: 10, MaxStars: 1000}},
		},
		{
			name:      "显式条件覆盖计算结果",
			profile:   domain.SkillProfile{Languages: []string{"go"}, ExperienceLevel: domain.LevelBeginner},
			overrides: &domain.FilterOverrides{MinStars: intPtr(100), GoodFirstIssues: boolPtr(false)},
			expected: []domain.SearchFilter{
				{Language: "go", GoodFirstIssues: false, MinStars: 100, MaxStars: 5000},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildFilters(tt.profile, tt.overrides))
		})
	}
}

func TestStarBounds_UnknownLevel(t *testing.T) {
	min, max := StarBounds("expert")
	assert.Equal(t, 10, min)
	assert.Equal(t, 5000, max)
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   domain.SearchFilter
		expected string
	}{
		{
			name:     "完整条件",
			filter:   domain.SearchFilter{Language: "python", GoodFirstIssues: true, Topics: []string{"machine-learning", "ai"}, MinStars: 10, MaxStars: 5000},
			expected: "is:public archived:false language:python good-first-issues:>0 topic:machine-learning topic:ai stars:>=10 stars:<=5000",
		},
		{
			name:     "不设上限",
			filter:   domain.SearchFilter{Language: "c", MinStars: 100},
			expected: "is:public archived:false language:c stars:>=100",
		},
		{
			name:     "空条件",
			filter:   domain.SearchFilter{},
			expected: "is:public archived:false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildQuery(tt.filter))
		})
	}
}

func TestDedupe(t *testing.T) {
	repos := []domain.Repository{
		{ID: 1, FullName: "a/first"},
		{ID: 2, FullName: "b/b"},
		{ID: 1, FullName: "a/second"},
		{ID: 3, FullName: "c/c"},
		{ID: 2, FullName: "b/again"},
	}

	out := Dedupe(repos)
	require.Len(t, out, 3)
	assert.Equal(t, "a/first", out[0].FullName)
	assert.Equal(t, "b/b", out[1].FullName)
	assert.Equal(t, "c/c", out[2].FullName)

	seen := map[int64]bool{}
	for _, r := range out {
		assert.False(t, seen[r.ID], "duplicate id %d", r.ID)
		seen[r.ID] = true
	}
}

func TestExcludeOwnerAndRepos(t *testing.T) {
	repos := []domain.Repository{
		{ID: 1, FullName: "Octocat/hello", Owner: domain.Owner{Login: "Octocat"}},
		{ID: 2, FullName: "gin-gonic/gin", Owner: domain.Owner{Login: "gin-gonic"}},
		{ID: 3, FullName: "Spf13/Cobra", Owner: domain.Owner{Login: "spf13"}},
	}

	out := ExcludeOwner(repos, "octocat")
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)

	out = ExcludeRepos(out, map[string]struct{}{"spf13/cobra": {}})
	require.Len(t, out, 1)
	assert.Equal(t, "gin-gonic/gin", out[0].FullName)

	assert.Len(t, ExcludeOwner(repos, ""), 3)
	assert.Len(t, ExcludeRepos(repos, nil), 3)
}
