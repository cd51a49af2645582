package analyzer

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"contribuddy/internal/domain"
)

const (
	maxLanguages  = 10
	maxFrameworks = 15
	maxInterests  = 10
	maxKeywords   = 5
	monthDuration = 30 * 24 * time.Hour
)

var (
	nonWord   = regexp.MustCompile(`[^\w\s]`)
	stopWords = toSet(
		"a", "an", "the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with", "by",
		"is", "are", "was", "were", "be", "been", "being", "have", "has", "had", "do", "does", "did",
		"this", "that", "these", "those", "my", "your", "his", "her", "its", "our", "their",
	)
)

// RepoEvidence 一个仓库用于技能推断的全部证据
type RepoEvidence struct {
	Repo domain.Repository
	// Languages /languages 返回的字节数，未拉取或失败时为 nil
	Languages map[string]int
	// Dependencies package.json / requirements.txt 中的依赖名
	Dependencies []string
}

// NeedsLanguageBreakdown 只有有 star 或 size 大于 100 的仓库才拉取语言明细
func NeedsLanguageBreakdown(r domain.Repository) bool {
	return r.Stars > 0 || r.Size > 100
}

// EmptyAnalysis 没有任何仓库时的分析结果
func EmptyAnalysis() *domain.SkillAnalysis {
	return &domain.SkillAnalysis{
		Confidence:      0,
		Languages:       []domain.LanguageSkill{},
		Frameworks:      []domain.FrameworkSkill{},
		Interests:       []string{},
		ExperienceLevel: domain.LevelBeginner,
		Summary: domain.AnalysisSummary{
			RecentActivity: "No activity",
		},
	}
}

// AnalyzeSkills 由仓库证据推断技能画像
func (a *RepoAnalyzer) AnalyzeSkills(evidence []RepoEvidence) *domain.SkillAnalysis {
	if len(evidence) == 0 {
		return EmptyAnalysis()
	}

	repos := make([]domain.Repository, 0, len(evidence))
	for _, e := range evidence {
		repos = append(repos, e.Repo)
	}

	languages := rankLanguages(evidence)
	now := a.now()
	return &domain.SkillAnalysis{
		Confidence:      overallConfidence(len(repos), len(languages)),
		Languages:       languages,
		Frameworks:      detectFrameworks(evidence),
		Interests:       extractInterests(repos),
		ExperienceLevel: experienceLevel(repos, len(languages)),
		Summary: domain.AnalysisSummary{
			TotalRepositories:  len(repos),
			PublicRepositories: len(repos),
			EstimatedCommits:   estimateCommits(repos, now),
			RecentActivity:     repoActivity(repos, now),
		},
	}
}

// rankLanguages 主语言计 1 分，语言明细按 bytes/1000 累加
func rankLanguages(evidence []RepoEvidence) []domain.LanguageSkill {
	scores := newCounter()
	for _, e := range evidence {
		if e.Repo.Language != "" {
			scores.add(e.Repo.Language, 1)
		}
		for _, lang := range sortedByBytes(e.Languages) {
			scores.add(lang, float64(e.Languages[lang])/1000)
		}
	}

	ranked := scores.top(maxLanguages)
	out := make([]domain.LanguageSkill, 0, len(ranked))
	for i, entry := range ranked {
		out = append(out, domain.LanguageSkill{
			Name:       entry.key,
			Level:      levelByRank(i, len(ranked)),
			Confidence: scaledConfidence(entry.score, ranked[0].score, 60, 30, 90),
		})
	}
	return out
}

// detectFrameworks 每个仓库对同一框架最多计一次
func detectFrameworks(evidence []RepoEvidence) []domain.FrameworkSkill {
	scores := newCounter()
	for _, e := range evidence {
		texts := make([]string, 0, len(e.Repo.Topics)+2+len(e.Dependencies))
		texts = append(texts, e.Repo.Topics...)
		texts = append(texts, e.Repo.Description, e.Repo.Name)
		texts = append(texts, e.Dependencies...)

		matched := make(map[string]struct{})
		for _, text := range texts {
			text = strings.ToLower(text)
			if text == "" {
				continue
			}
			for _, fw := range frameworkDictionary {
				if _, ok := matched[fw.Name]; ok {
					continue
				}
				for _, p := range fw.Patterns {
					if strings.Contains(text, p) {
						matched[fw.Name] = struct{}{}
						scores.add(fw.Name, 1)
						break
					}
				}
			}
		}
	}

	ranked := scores.top(maxFrameworks)
	out := make([]domain.FrameworkSkill, 0, len(ranked))
	for i, entry := range ranked {
		out = append(out, domain.FrameworkSkill{
			Name:       entry.key,
			Level:      levelByRank(i, len(ranked)),
			Confidence: scaledConfidence(entry.score, ranked[0].score, 50, 35, 85),
		})
	}
	return out
}

// extractInterests topic 与描述关键词，至少出现在两个仓库中
func extractInterests(repos []domain.Repository) []string {
	counts := newCounter()
	for _, r := range repos {
		seen := make(map[string]struct{})
		terms := make([]string, 0, len(r.Topics)+maxKeywords)
		for _, topic := range r.Topics {
			terms = append(terms, strings.ToLower(strings.ReplaceAll(topic, "-", " ")))
		}
		terms = append(terms, Keywords(r.Description)...)
		for _, term := range terms {
			if _, ok := seen[term]; ok || term == "" {
				continue
			}
			seen[term] = struct{}{}
			counts.add(term, 1)
		}
	}

	out := []string{}
	for _, entry := range counts.top(len(counts.order)) {
		if entry.score < 2 {
			continue
		}
		out = append(out, entry.key)
		if len(out) == maxInterests {
			break
		}
	}
	return out
}

// Keywords 从描述中取前 5 个关键词
func Keywords(text string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	var out []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		out = append(out, w)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}

func experienceLevel(repos []domain.Repository, languageCount int) domain.ExperienceLevel {
	stars, size := 0, 0
	for _, r := range repos {
		stars += r.Stars
		size += r.Size
	}
	avgSize := float64(size) / float64(len(repos))

	score := 0
	switch n := len(repos); {
	case n >= 20:
		score += 3
	case n >= 10:
		score += 2
	case n >= 5:
		score += 1
	}
	switch {
	case languageCount >= 5:
		score += 2
	case languageCount >= 3:
		score += 1
	}
	switch {
	case stars >= 50:
		score += 2
	case stars >= 10:
		score += 1
	}
	switch {
	case avgSize >= 1000:
		score += 2
	case avgSize >= 500:
		score += 1
	}

	switch {
	case score >= 7:
		return domain.LevelAdvanced
	case score >= 4:
		return domain.LevelIntermediate
	}
	return domain.LevelBeginner
}

func overallConfidence(repoCount, languageCount int) int {
	return min(95, 30+min(30, repoCount*2)+min(25, languageCount*5))
}

// levelByRank 前 30% advanced，接下来 30% intermediate
func levelByRank(index, total int) domain.ExperienceLevel {
	pos := float64(index) / float64(total)
	switch {
	case pos <= 0.3:
		return domain.LevelAdvanced
	case pos <= 0.6:
		return domain.LevelIntermediate
	}
	return domain.LevelBeginner
}

func scaledConfidence(score, top, base, span, ceiling float64) int {
	if top <= 0 {
		return int(base)
	}
	return int(math.Round(math.Min(ceiling, base+score/top*span)))
}

func estimateCommits(repos []domain.Repository, now time.Time) int {
	total := 0
	for _, r := range repos {
		months := monthsSince(r.UpdatedAt, now)
		size := math.Max(1, float64(r.Size)/100)
		total += int(math.Floor(months * size * 2))
	}
	return total
}

// repoActivity 最近 3 个月内更新过的仓库数量
func repoActivity(repos []domain.Repository, now time.Time) string {
	recent := 0
	for _, r := range repos {
		if monthsSince(r.UpdatedAt, now) <= 3 {
			recent++
		}
	}
	return activityLabel(recent, 2, 5)
}

func monthsSince(t, now time.Time) float64 {
	return float64(now.Sub(t)) / float64(monthDuration)
}

// activityLabel 0 为无活动，<= low 低，<= moderate 中，其余为高
func activityLabel(n, low, moderate int) string {
	switch {
	case n == 0:
		return "No recent activity"
	case n <= low:
		return "Low activity"
	case n <= moderate:
		return "Moderate activity"
	}
	return "High activity"
}

func sortedByBytes(langs map[string]int) []string {
	keys := make([]string, 0, len(langs))
	for k := range langs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if langs[keys[i]] != langs[keys[j]] {
			return langs[keys[i]] > langs[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// counter 保留首次出现顺序的计数器，排序时分数相同按出现顺序
type counter struct {
	order  []string
	scores map[string]float64
}

type counterEntry struct {
	key   string
	score float64
}

func newCounter() *counter {
	return &counter{scores: make(map[string]float64)}
}

func (c *counter) add(key string, delta float64) {
	if _, ok := c.scores[key]; !ok {
		c.order = append(c.order, key)
	}
	c.scores[key] += delta
}

func (c *counter) top(n int) []counterEntry {
	entries := make([]counterEntry, 0, len(c.order))
	for _, k := range c.order {
		entries = append(entries, counterEntry{key: k, score: c.scores[k]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
