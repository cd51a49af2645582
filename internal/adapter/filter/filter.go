package filter

import (
	"fmt"
	"strings"

	"contribuddy/internal/domain"
)

// StarBounds 根据经验等级返回 star 数的上下限，max 为 0 表示不设上限
func StarBounds(level domain.ExperienceLevel) (min, max int) {
	switch level {
	case domain.LevelBeginner:
		return 10, 5000
	case domain.LevelIntermediate:
		return 50, 20000
	case domain.LevelAdvanced:
		return 100, 0
	default:
		return 10, 5000
	}
}

// DefaultFilter 没有语言也没有兴趣时使用的兜底条件
func DefaultFilter() domain.SearchFilter {
	return domain.SearchFilter{
		GoodFirstIssues: true,
		MinStars:        10,
		MaxStars:        1000,
	}
}

// BuildFilters 把技能画像转换成一组搜索条件:
// 每种语言一个条件；没有语言时按兴趣生成一个 topic 条件；都没有时使用 DefaultFilter。
// overrides 中的非空字段覆盖每个计算出的条件。
func BuildFilters(profile domain.SkillProfile, overrides *domain.FilterOverrides) []domain.SearchFilter {
	minStars, maxStars := StarBounds(profile.ExperienceLevel)
	beginner := profile.ExperienceLevel == domain.LevelBeginner

	var filters []domain.SearchFilter
	switch {
	case len(profile.Languages) > 0:
		for _, lang := range profile.Languages {
			filters = append(filters, domain.SearchFilter{
				Language:        strings.ToLower(lang),
				GoodFirstIssues: beginner,
				MinStars:        minStars,
				MaxStars:        maxStars,
				Topics:          copyStrings(profile.Interests),
			})
		}
	case len(profile.Interests) > 0:
		filters = append(filters, domain.SearchFilter{
			GoodFirstIssues: beginner,
			MinStars:        minStars,
			MaxStars:        maxStars,
			Topics:          copyStrings(profile.Interests),
		})
	default:
		filters = append(filters, DefaultFilter())
	}

	for i := range filters {
		filters[i] = overrides.Apply(filters[i])
	}
	return filters
}

// BuildQuery 生成 GitHub 仓库搜索的 q 参数
func BuildQuery(f domain.SearchFilter) string {
	parts := []string{"is:public", "archived:false"}
	if f.Language != "" {
		parts = append(parts, "language:"+f.Language)
	}
	if f.GoodFirstIssues {
		parts = append(parts, "good-first-issues:>0")
	}
	for _, topic := range f.Topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			parts = append(parts, "topic:"+topic)
		}
	}
	if f.MinStars > 0 {
		parts = append(parts, fmt.Sprintf("stars:>=%d", f.MinStars))
	}
	if f.MaxStars > 0 {
		parts = append(parts, fmt.Sprintf("stars:<=%d", f.MaxStars))
	}
	return strings.Join(parts, " ")
}

// Dedupe 按仓库 ID 去重，保留第一次出现的顺序
func Dedupe(repos []domain.Repository) []domain.Repository {
	seen := make(map[int64]struct{}, len(repos))
	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// ExcludeOwner 去掉 login 自己拥有的仓库
func ExcludeOwner(repos []domain.Repository, login string) []domain.Repository {
	if login == "" {
		return repos
	}
	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		if strings.EqualFold(r.Owner.Login, login) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ExcludeRepos 去掉 full_name (小写) 在 names 中的仓库
func ExcludeRepos(repos []domain.Repository, names map[string]struct{}) []domain.Repository {
	if len(names) == 0 {
		return repos
	}
	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		if _, ok := names[strings.ToLower(r.FullName)]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return append([]string(nil), in...)
}
