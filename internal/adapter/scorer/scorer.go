package scorer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"contribuddy/internal/domain"
)

// 各维度的分值
const (
	languageWeight   = 40
	topicPerMatch    = 10
	topicCap         = 30
	frameworkPerHit  = 7
	frameworkCap     = 20
	maxScore         = 100
	maxReasonTopics  = 3
	popularThreshold = 1000
)

// MatchScore 计算仓库与技能画像的匹配分，范围 [0, 100]
func MatchScore(repo domain.Repository, profile domain.SkillProfile) int {
	score := 0

	if languageMatches(repo, profile) {
		score += languageWeight
	}

	score += min(topicCap, len(matchingTopics(repo.Topics, profile.Interests))*topicPerMatch)

	text := strings.ToLower(repo.Name + " " + repo.Description + " " + strings.Join(repo.Topics, " "))
	hits := 0
	for _, fw := range profile.Frameworks {
		if fw = strings.ToLower(fw); fw != "" && strings.Contains(text, fw) {
			hits++
		}
	}
	score += min(frameworkCap, hits*frameworkPerHit)

	// 仓库质量
	if repo.Stars > 100 {
		score += 2
	}
	if repo.Stars > 1000 {
		score += 3
	}
	if repo.OpenIssues > 0 {
		score += 2
	}
	if len(repo.Description) > 50 {
		score += 1
	}
	if len(repo.Topics) > 3 {
		score += 2
	}

	return max(0, min(maxScore, score))
}

// Reasons 生成推荐理由，顺序固定为: 语言、兴趣、热度、活跃度
func Reasons(repo domain.Repository, profile domain.SkillProfile) []string {
	reasons := make([]string, 0, 4)

	if languageMatches(repo, profile) {
		reasons = append(reasons, fmt.Sprintf("Matches your %s skills", repo.Language))
	}

	var topics []string
	for _, topic := range repo.Topics {
		lt := strings.ToLower(topic)
		for _, interest := range profile.Interests {
			if li := strings.ToLower(interest); li != "" && strings.Contains(lt, li) {
				topics = append(topics, strings.ReplaceAll(topic, "-", " "))
				break
			}
		}
		if len(topics) == maxReasonTopics {
			break
		}
	}
	if len(topics) > 0 {
		reasons = append(reasons, "Aligns with your interests: "+strings.Join(topics, ", "))
	}

	if repo.Stars > popularThreshold {
		reasons = append(reasons, fmt.Sprintf("Popular project (%s stars)", Thousands(repo.Stars)))
	}
	if repo.OpenIssues > 0 {
		reasons = append(reasons, fmt.Sprintf("Active development (%d open issues)", repo.OpenIssues))
	}
	return reasons
}

// Score 给一批仓库打分并按分数从高到低稳定排序
func Score(repos []domain.Repository, profile domain.SkillProfile) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(repos))
	for _, r := range repos {
		recs = append(recs, domain.Recommendation{
			Repository:      r,
			MatchScore:      MatchScore(r, profile),
			Reasons:         Reasons(r, profile),
			SuggestedIssues: []domain.Issue{},
		})
	}
	Rank(recs)
	return recs
}

// Rank 按匹配分降序稳定排序，分数相同保持原顺序
func Rank(recs []domain.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].MatchScore > recs[j].MatchScore
	})
}

// Thousands 用逗号分隔千位，例如 1500 -> "1,500"
func Thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func languageMatches(repo domain.Repository, profile domain.SkillProfile) bool {
	if repo.Language == "" {
		return false
	}
	lang := strings.ToLower(repo.Language)
	for _, l := range profile.Languages {
		if strings.ToLower(l) == lang {
			return true
		}
	}
	return false
}

// matchingTopics topic 与兴趣互相包含即算命中
func matchingTopics(topics, interests []string) []string {
	var out []string
	for _, topic := range topics {
		lt := strings.ToLower(topic)
		for _, interest := range interests {
			li := strings.ToLower(interest)
			if li == "" {
				continue
			}
			if strings.Contains(lt, li) || strings.Contains(li, lt) {
				out = append(out, topic)
				break
			}
		}
	}
	return out
}
