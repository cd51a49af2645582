package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"contribuddy/internal/adapter/analyzer"
	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/port"

	"golang.org/x/sync/errgroup"
)

const (
	prPages          = 5
	issuePages       = 3
	searchPageSize   = 100
	commitRepoPage   = 50
	commitRepoLimit  = 20
	commitsPerRepo   = 20
	commitWorkers    = 1
	historyCommitCap = 100
)

// ContributionService 汇总用户的 PR、issue 与提交
type ContributionService struct {
	github   port.GitHubProvider
	analyzer *analyzer.RepoAnalyzer
	log      *logger.Logger
	nowFunc  func() time.Time
}

func NewContributionService(github port.GitHubProvider, a *analyzer.RepoAnalyzer, log *logger.Logger) *ContributionService {
	if log == nil {
		log = logger.NewNop()
	}
	if a == nil {
		a = analyzer.NewRepoAnalyzer(log)
	}
	return &ContributionService{
		github:   github,
		analyzer: a,
		log:      log.With("service", "ContributionService"),
		nowFunc:  time.Now,
	}
}

// GetContributionHistory 三类数据并发获取，任何一类失败都保留已拿到的部分
func (s *ContributionService) GetContributionHistory(ctx context.Context, token, username string) (*domain.ContributionHistory, error) {
	gh := s.github.ForToken(token)
	log := s.log.With("username", username)

	var (
		prs     []domain.PullRequest
		issues  []domain.IssueRecord
		commits []domain.Commit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prs = s.pullRequests(gctx, gh, username)
		return nil
	})
	g.Go(func() error {
		issues = s.issues(gctx, gh, username)
		return nil
	})
	g.Go(func() error {
		commits = s.commits(gctx, gh, username)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if prs == nil {
		prs = []domain.PullRequest{}
	}
	if issues == nil {
		issues = []domain.IssueRecord{}
	}
	if commits == nil {
		commits = []domain.Commit{}
	}

	history := &domain.ContributionHistory{
		Username:     username,
		PullRequests: prs,
		Issues:       issues,
		Stats:        s.analyzer.ContributionStats(prs, issues, commits),
		Summary:      s.analyzer.Summarize(prs, issues, commits),
		AnalyzedAt:   s.nowFunc(),
	}
	if len(commits) > historyCommitCap {
		history.Commits = commits[:historyCommitCap]
	} else {
		history.Commits = commits
	}

	log.Info("贡献历史汇总完成", "prs", len(prs), "issues", len(issues), "commits", len(commits))
	return history, nil
}

// GetMyContributionHistory 令牌所属用户的贡献历史
func (s *ContributionService) GetMyContributionHistory(ctx context.Context, token string) (*domain.ContributionHistory, error) {
	user, err := s.github.ForToken(token).AuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取当前 GitHub 用户失败: %w", err)
	}
	return s.GetContributionHistory(ctx, token, user.Login)
}

// GetStatsSummary 贡献统计摘要
func (s *ContributionService) GetStatsSummary(ctx context.Context, token string) (*domain.StatsSummary, error) {
	history, err := s.GetMyContributionHistory(ctx, token)
	if err != nil {
		return nil, err
	}
	summary := history.Condense()
	return &summary, nil
}

// pullRequests 逐页搜索，遇到空页或失败停止，再逐个补充代码行数
func (s *ContributionService) pullRequests(ctx context.Context, gh port.GitHub, username string) []domain.PullRequest {
	var prs []domain.PullRequest
	for page := 1; page <= prPages; page++ {
		items, err := gh.SearchPullRequests(ctx, username, page, searchPageSize)
		if err != nil {
			s.log.Warn("搜索 PR 失败", "username", username, "page", page, "error", err)
			break
		}
		if len(items) == 0 {
			break
		}
		prs = append(prs, items...)
	}

	for i := range prs {
		if ctx.Err() != nil {
			break
		}
		owner, repo, ok := domain.SplitFullName(prs[i].Repository.FullName)
		if !ok {
			continue
		}
		detail, err := gh.GetPullRequest(ctx, owner, repo, prs[i].Number)
		if err != nil {
			s.log.Debug("获取 PR 详情失败", "repo", prs[i].Repository.FullName, "number", prs[i].Number, "error", err)
			continue
		}
		prs[i].Additions = detail.Additions
		prs[i].Deletions = detail.Deletions
		prs[i].ChangedFiles = detail.ChangedFiles
		if detail.MergedAt != nil {
			prs[i].MergedAt = detail.MergedAt
		}
		prs[i].Repository.Language = detail.Repository.Language
		prs[i].Repository.Stars = detail.Repository.Stars
	}
	return prs
}

func (s *ContributionService) issues(ctx context.Context, gh port.GitHub, username string) []domain.IssueRecord {
	var issues []domain.IssueRecord
	for page := 1; page <= issuePages; page++ {
		items, err := gh.SearchIssues(ctx, username, page, searchPageSize)
		if err != nil {
			s.log.Warn("搜索 issue 失败", "username", username, "page", page, "error", err)
			break
		}
		if len(items) == 0 {
			break
		}
		issues = append(issues, items...)
	}
	return issues
}

// commits 最近更新的 20 个仓库中用户的提交，按时间倒序
func (s *ContributionService) commits(ctx context.Context, gh port.GitHub, username string) []domain.Commit {
	repos, err := gh.ListUserRepos(ctx, username, port.RepoListOptions{Type: "all", Sort: "updated", PerPage: commitRepoPage})
	if err != nil {
		s.log.Warn("获取仓库列表失败", "username", username, "error", err)
		return nil
	}
	if len(repos) > commitRepoLimit {
		repos = repos[:commitRepoLimit]
	}

	// 逐个仓库请求，节奏交给客户端的限流器
	perRepo := make([][]domain.Commit, len(repos))
	var g errgroup.Group
	g.SetLimit(commitWorkers)
	for i, repo := range repos {
		owner, name, ok := domain.SplitFullName(repo.FullName)
		if !ok {
			continue
		}
		g.Go(func() error {
			commits, err := gh.ListCommits(ctx, owner, name, username, commitsPerRepo)
			if err != nil {
				s.log.Debug("获取提交失败", "repo", repo.FullName, "error", err)
				return nil
			}
			for j := range commits {
				commits[j].Repository.Language = repo.Language
				commits[j].Repository.Stars = repo.Stars
			}
			perRepo[i] = commits
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.Commit
	for _, c := range perRepo {
		all = append(all, c...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}
