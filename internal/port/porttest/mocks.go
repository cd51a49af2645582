// Package porttest 提供 port 接口的 testify mock，供各层测试共用
package porttest

import (
	"context"
	"sync"

	"contribuddy/internal/domain"
	"contribuddy/internal/port"

	"github.com/stretchr/testify/mock"
)

// MockGitHub port.GitHub 的 mock
type MockGitHub struct {
	mock.Mock
}

func (m *MockGitHub) AuthenticatedUser(ctx context.Context) (*domain.GitHubUser, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).(*domain.GitHubUser)
	return u, args.Error(1)
}

func (m *MockGitHub) GetUser(ctx context.Context, login string) (*domain.GitHubUser, error) {
	args := m.Called(ctx, login)
	u, _ := args.Get(0).(*domain.GitHubUser)
	return u, args.Error(1)
}

func (m *MockGitHub) ListUserRepos(ctx context.Context, user string, opts port.RepoListOptions) ([]domain.Repository, error) {
	args := m.Called(ctx, user, opts)
	repos, _ := args.Get(0).([]domain.Repository)
	return repos, args.Error(1)
}

func (m *MockGitHub) GetRepository(ctx context.Context, owner, repo string) (*domain.Repository, error) {
	args := m.Called(ctx, owner, repo)
	r, _ := args.Get(0).(*domain.Repository)
	return r, args.Error(1)
}

func (m *MockGitHub) ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	args := m.Called(ctx, owner, repo)
	langs, _ := args.Get(0).(map[string]int)
	return langs, args.Error(1)
}

func (m *MockGitHub) GetFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	args := m.Called(ctx, owner, repo, path)
	return args.String(0), args.Error(1)
}

func (m *MockGitHub) ListOpenIssues(ctx context.Context, owner, repo string, labels []string, perPage int) ([]domain.Issue, error) {
	args := m.Called(ctx, owner, repo, labels, perPage)
	issues, _ := args.Get(0).([]domain.Issue)
	return issues, args.Error(1)
}

func (m *MockGitHub) SearchRepositories(ctx context.Context, query string, perPage int) ([]domain.Repository, error) {
	args := m.Called(ctx, query, perPage)
	repos, _ := args.Get(0).([]domain.Repository)
	return repos, args.Error(1)
}

func (m *MockGitHub) SearchPullRequests(ctx context.Context, author string, page, perPage int) ([]domain.PullRequest, error) {
	args := m.Called(ctx, author, page, perPage)
	prs, _ := args.Get(0).([]domain.PullRequest)
	return prs, args.Error(1)
}

func (m *MockGitHub) SearchIssues(ctx context.Context, author string, page, perPage int) ([]domain.IssueRecord, error) {
	args := m.Called(ctx, author, page, perPage)
	issues, _ := args.Get(0).([]domain.IssueRecord)
	return issues, args.Error(1)
}

func (m *MockGitHub) GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
	args := m.Called(ctx, owner, repo, number)
	pr, _ := args.Get(0).(*domain.PullRequest)
	return pr, args.Error(1)
}

func (m *MockGitHub) ListCommits(ctx context.Context, owner, repo, author string, perPage int) ([]domain.Commit, error) {
	args := m.Called(ctx, owner, repo, author, perPage)
	commits, _ := args.Get(0).([]domain.Commit)
	return commits, args.Error(1)
}

func (m *MockGitHub) ListPublicEvents(ctx context.Context, user string, perPage int) ([]domain.Event, error) {
	args := m.Called(ctx, user, perPage)
	events, _ := args.Get(0).([]domain.Event)
	return events, args.Error(1)
}

func (m *MockGitHub) ListStarred(ctx context.Context, perPage int) ([]domain.Repository, error) {
	args := m.Called(ctx, perPage)
	repos, _ := args.Get(0).([]domain.Repository)
	return repos, args.Error(1)
}

func (m *MockGitHub) ListFollowing(ctx context.Context, perPage int) ([]string, error) {
	args := m.Called(ctx, perPage)
	users, _ := args.Get(0).([]string)
	return users, args.Error(1)
}

// StaticProvider 任何令牌都返回同一个 GitHub 实现，并记录收到的令牌
type StaticProvider struct {
	GitHub port.GitHub

	mu     sync.Mutex
	tokens []string
}

func (p *StaticProvider) ForToken(token string) port.GitHub {
	p.mu.Lock()
	p.tokens = append(p.tokens, token)
	p.mu.Unlock()
	return p.GitHub
}

// Tokens 按调用顺序返回收到的令牌
func (p *StaticProvider) Tokens() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tokens...)
}

type MockNarrator struct {
	mock.Mock
}

func (m *MockNarrator) Narrate(ctx context.Context, profile domain.SkillProfile, recs []domain.Recommendation) ([]domain.Recommendation, error) {
	args := m.Called(ctx, profile, recs)
	out, _ := args.Get(0).([]domain.Recommendation)
	return out, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyDigest(ctx context.Context, login string, recs []domain.Recommendation) error {
	args := m.Called(ctx, login, recs)
	return args.Error(0)
}

var (
	_ port.GitHub         = (*MockGitHub)(nil)
	_ port.GitHubProvider = (*StaticProvider)(nil)
	_ port.Narrator       = (*MockNarrator)(nil)
	_ port.Notifier       = (*MockNotifier)(nil)
)
