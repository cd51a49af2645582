package service

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"contribuddy/internal/adapter/analyzer"
	"contribuddy/internal/adapter/filter"
	"contribuddy/internal/adapter/scorer"
	"contribuddy/internal/common"
	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/port"
)

const (
	searchPerPage      = 50
	maxCandidates      = 20
	issuesPerPage      = 20
	maxSuggestedIssues = 3
	starredPerPage     = 100
	followingPerPage   = 100
	eventsPerPage      = 100
	maxStarredTopics   = 5
	maxStarredLangs    = 3
	maxStarredOwners   = 5
	maxFollowedUsers   = 10
	ownerReposPerPage  = 30
	defaultTrending    = 10
)

var beginnerLabels = []string{"good first issue", "good-first-issue", "beginner-friendly"}

// 这些事件类型表示用户最近参与过该仓库
var contributionEvents = map[string]struct{}{
	"PushEvent":         {},
	"PullRequestEvent":  {},
	"IssuesEvent":       {},
	"CreateEvent":       {},
	"IssueCommentEvent": {},
}

// RecommendationService 推荐引擎: 搜索 -> 去重 -> 打分 -> 补充 issue -> (可选) 推荐语
type RecommendationService struct {
	github   port.GitHubProvider
	analyzer *analyzer.RepoAnalyzer
	narrator port.Narrator
	log      *logger.Logger
}

// NewRecommendationService narrator 可以为 nil
func NewRecommendationService(github port.GitHubProvider, a *analyzer.RepoAnalyzer, narrator port.Narrator, log *logger.Logger) *RecommendationService {
	if log == nil {
		log = logger.NewNop()
	}
	if a == nil {
		a = analyzer.NewRepoAnalyzer(log)
	}
	return &RecommendationService{
		github:   github,
		analyzer: a,
		narrator: narrator,
		log:      log.With("service", "RecommendationService"),
	}
}

// GetRecommendations 基于技能画像的推荐
func (s *RecommendationService) GetRecommendations(ctx context.Context, token string, profile domain.SkillProfile, overrides *domain.FilterOverrides) ([]domain.Recommendation, error) {
	gh := s.github.ForToken(token)

	repos, err := s.search(ctx, gh, filter.BuildFilters(profile, overrides))
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, gh, filter.Dedupe(repos), profile)
}

// GetPersonalizedRecommendations 在基础搜索之外，结合 star、关注的人和最近的贡献
// 任何一步扩展失败只记录日志
func (s *RecommendationService) GetPersonalizedRecommendations(ctx context.Context, token, login string, profile domain.SkillProfile, overrides *domain.FilterOverrides) ([]domain.Recommendation, error) {
	gh := s.github.ForToken(token)
	log := s.log.With("login", login)

	starred, err := gh.ListStarred(ctx, starredPerPage)
	if err != nil {
		log.Warn("获取 star 列表失败", "error", err)
		starred = nil
	}
	following, err := gh.ListFollowing(ctx, followingPerPage)
	if err != nil {
		log.Warn("获取关注列表失败", "error", err)
		following = nil
	}

	// 每个来源单独成列，轮流取出，保证截断后候选里仍有 star 与关注带来的仓库
	sources, err := s.searchEach(ctx, gh, filter.BuildFilters(profile, overrides))
	if err != nil {
		return nil, err
	}
	extra, err := s.searchEach(ctx, gh, starredFilters(starred, profile, overrides))
	if err != nil {
		log.Warn("按 star 推导的搜索全部失败", "error", err)
	}
	sources = append(sources, extra...)

	for _, owner := range starredOwners(starred, login) {
		sources = append(sources, s.ownerRepos(ctx, gh, owner))
	}
	for i, user := range following {
		if i >= maxFollowedUsers {
			break
		}
		sources = append(sources, s.ownerRepos(ctx, gh, user))
	}

	repos := interleave(sources)
	repos = filter.Dedupe(repos)
	repos = filter.ExcludeOwner(repos, login)
	repos = filter.ExcludeRepos(repos, s.recentRepos(ctx, gh, login))

	log.Info("个性化候选仓库", "starred", len(starred), "following", len(following), "candidates", len(repos))
	return s.finish(ctx, gh, repos, profile)
}

// GetTrending 某种语言下的热门项目
func (s *RecommendationService) GetTrending(ctx context.Context, token, language string, limit int) ([]domain.Repository, error) {
	if strings.TrimSpace(language) == "" {
		return nil, common.NewStatusError(common.ErrCodeInvalidInput, http.StatusBadRequest, "Language is required", nil)
	}
	if limit <= 0 {
		limit = defaultTrending
	}

	minStars, gfi := 100, false
	profile := domain.SkillProfile{
		Languages:       []string{language},
		ExperienceLevel: domain.LevelIntermediate,
	}
	recs, err := s.GetRecommendations(ctx, token, profile, &domain.FilterOverrides{MinStars: &minStars, GoodFirstIssues: &gfi})
	if err != nil {
		return nil, err
	}

	if len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]domain.Repository, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Repository)
	}
	return out, nil
}

// SuggestedIssues 为仓库挑选最多 3 个 issue
// 新手优先找带新手标签的 issue，找不到时退回最新的 issue
func (s *RecommendationService) SuggestedIssues(ctx context.Context, gh port.GitHub, repo domain.Repository, level domain.ExperienceLevel) ([]domain.Issue, error) {
	owner, name, ok := domain.SplitFullName(repo.FullName)
	if !ok {
		return []domain.Issue{}, nil
	}

	if level == domain.LevelBeginner {
		picked, _ := s.labeledIssues(ctx, gh, owner, name, maxSuggestedIssues)
		if len(picked) > 0 {
			return picked, nil
		}
	}

	issues, err := gh.ListOpenIssues(ctx, owner, name, nil, issuesPerPage)
	if err != nil {
		return nil, err
	}
	if len(issues) > maxSuggestedIssues {
		issues = issues[:maxSuggestedIssues]
	}
	return issues, nil
}

// GoodFirstIssues 带任一新手标签的 open issue
func (s *RecommendationService) GoodFirstIssues(ctx context.Context, token, owner, repo string) ([]domain.Issue, error) {
	return s.labeledIssues(ctx, s.github.ForToken(token), owner, repo, 0)
}

// labeledIssues 按新手标签逐个查询并去重，GitHub 的 labels 参数是 AND 关系
// limit 为 0 表示不限制；所有标签都查询失败时返回最后一个错误
func (s *RecommendationService) labeledIssues(ctx context.Context, gh port.GitHub, owner, name string, limit int) ([]domain.Issue, error) {
	picked := []domain.Issue{}
	seen := make(map[int64]struct{})
	var lastErr error
	failed := 0
	for _, label := range beginnerLabels {
		issues, err := gh.ListOpenIssues(ctx, owner, name, []string{label}, issuesPerPage)
		if err != nil {
			s.log.Debug("按标签获取 issue 失败", "repo", owner+"/"+name, "label", label, "error", err)
			lastErr = err
			failed++
			continue
		}
		for _, is := range issues {
			if _, dup := seen[is.ID]; dup {
				continue
			}
			seen[is.ID] = struct{}{}
			picked = append(picked, is)
			if limit > 0 && len(picked) >= limit {
				return picked, nil
			}
		}
	}
	if failed == len(beginnerLabels) {
		return nil, lastErr
	}
	return picked, nil
}

// search 依次执行每个搜索条件并按顺序拼接结果，只有全部失败时才返回错误
func (s *RecommendationService) search(ctx context.Context, gh port.GitHub, filters []domain.SearchFilter) ([]domain.Repository, error) {
	results, err := s.searchEach(ctx, gh, filters)
	if err != nil {
		return nil, err
	}
	var repos []domain.Repository
	for _, found := range results {
		repos = append(repos, found...)
	}
	return repos, nil
}

// searchEach 每个搜索条件的结果单独返回，失败的条件对应空列表
func (s *RecommendationService) searchEach(ctx context.Context, gh port.GitHub, filters []domain.SearchFilter) ([][]domain.Repository, error) {
	var (
		results = make([][]domain.Repository, 0, len(filters))
		lastErr error
		failed  int
	)
	for _, f := range filters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		query := filter.BuildQuery(f)
		found, err := gh.SearchRepositories(ctx, query, searchPerPage)
		if err != nil {
			s.log.Warn("搜索仓库失败", "query", query, "error", err)
			lastErr = err
			failed++
			continue
		}
		s.log.Debug("搜索仓库", "query", query, "count", len(found))
		results = append(results, found)
	}
	if len(filters) > 0 && failed == len(filters) {
		return nil, lastErr
	}
	return results, nil
}

// interleave 轮流从每个来源取一个仓库
func interleave(sources [][]domain.Repository) []domain.Repository {
	total, longest := 0, 0
	for _, src := range sources {
		total += len(src)
		longest = max(longest, len(src))
	}
	out := make([]domain.Repository, 0, total)
	for i := 0; i < longest; i++ {
		for _, src := range sources {
			if i < len(src) {
				out = append(out, src[i])
			}
		}
	}
	return out
}

// finish 截取前 20 个候选，打分排序后补充 issue 与推荐语
func (s *RecommendationService) finish(ctx context.Context, gh port.GitHub, repos []domain.Repository, profile domain.SkillProfile) ([]domain.Recommendation, error) {
	start := time.Now()
	if len(repos) > maxCandidates {
		repos = repos[:maxCandidates]
	}

	recs := scorer.Score(repos, profile)
	recs, err := s.analyzer.AttachIssues(ctx, recs, func(ctx context.Context, repo domain.Repository) ([]domain.Issue, error) {
		return s.SuggestedIssues(ctx, gh, repo, profile.ExperienceLevel)
	})
	if err != nil {
		return nil, err
	}

	if s.narrator != nil && len(recs) > 0 {
		narrated, err := s.narrator.Narrate(ctx, profile, recs)
		if err != nil {
			s.log.Warn("生成推荐语失败", "error", err)
		} else {
			recs = narrated
		}
	}

	s.log.Info("推荐完成", "count", len(recs), "elapsed", time.Since(start).String())
	return recs, nil
}

func (s *RecommendationService) ownerRepos(ctx context.Context, gh port.GitHub, owner string) []domain.Repository {
	repos, err := gh.ListUserRepos(ctx, owner, port.RepoListOptions{Type: "owner", Sort: "updated", PerPage: ownerReposPerPage})
	if err != nil {
		s.log.Warn("获取用户仓库失败", "owner", owner, "error", err)
		return nil
	}
	return repos
}

// recentRepos 最近公开事件中参与过的仓库，全名小写
func (s *RecommendationService) recentRepos(ctx context.Context, gh port.GitHub, login string) map[string]struct{} {
	names := make(map[string]struct{})
	if login == "" {
		return names
	}
	events, err := gh.ListPublicEvents(ctx, login, eventsPerPage)
	if err != nil {
		s.log.Warn("获取公开事件失败", "login", login, "error", err)
		return names
	}
	for _, e := range events {
		if _, ok := contributionEvents[e.Type]; ok && e.RepoName != "" {
			names[strings.ToLower(e.RepoName)] = struct{}{}
		}
	}
	return names
}

// starredFilters 由 star 过的仓库推导额外的搜索条件:
// 出现最多的 5 个 topic 合成一个条件，画像中没有的前 3 种语言各一个条件
func starredFilters(starred []domain.Repository, profile domain.SkillProfile, overrides *domain.FilterOverrides) []domain.SearchFilter {
	if len(starred) == 0 {
		return nil
	}

	var topicList, langList []string
	for _, r := range starred {
		topicList = append(topicList, r.Topics...)
		if r.Language != "" {
			langList = append(langList, r.Language)
		}
	}

	known := make(map[string]struct{}, len(profile.Languages))
	for _, l := range profile.Languages {
		known[strings.ToLower(l)] = struct{}{}
	}
	var newLangs []string
	for _, l := range byFrequency(langList) {
		if _, ok := known[strings.ToLower(l)]; ok {
			continue
		}
		newLangs = append(newLangs, l)
		if len(newLangs) == maxStarredLangs {
			break
		}
	}

	minStars, maxStars := filter.StarBounds(profile.ExperienceLevel)
	beginner := profile.ExperienceLevel == domain.LevelBeginner

	var filters []domain.SearchFilter
	if topics := byFrequency(topicList); len(topics) > 0 {
		if len(topics) > maxStarredTopics {
			topics = topics[:maxStarredTopics]
		}
		// 多个 topic 在搜索里是 AND 关系，逐个 topic 搜索
		for _, t := range topics {
			filters = append(filters, overrides.Apply(domain.SearchFilter{
				GoodFirstIssues: beginner,
				MinStars:        minStars,
				MaxStars:        maxStars,
				Topics:          []string{t},
			}))
		}
	}
	for _, l := range newLangs {
		filters = append(filters, overrides.Apply(domain.SearchFilter{
			Language:        strings.ToLower(l),
			GoodFirstIssues: beginner,
			MinStars:        minStars,
			MaxStars:        maxStars,
		}))
	}
	return filters
}

// starredOwners star 过的仓库的前 5 个不同所有者，排除用户自己
func starredOwners(starred []domain.Repository, login string) []string {
	var owners []string
	seen := make(map[string]struct{})
	for _, r := range starred {
		o := r.Owner.Login
		if o == "" || strings.EqualFold(o, login) {
			continue
		}
		key := strings.ToLower(o)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		owners = append(owners, o)
		if len(owners) == maxStarredOwners {
			break
		}
	}
	return owners
}

// byFrequency 去重后按出现次数降序，次数相同保持首次出现的顺序
func byFrequency(items []string) []string {
	counts := make(map[string]int)
	var order []string
	for _, it := range items {
		if it == "" {
			continue
		}
		if _, ok := counts[it]; !ok {
			order = append(order, it)
		}
		counts[it]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return order
}
