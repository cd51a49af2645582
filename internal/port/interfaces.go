package port

import (
	"context"
	"time"

	"contribuddy/internal/domain"
)

// RepoListOptions 列出某个用户仓库时的参数
type RepoListOptions struct {
	Type    string // public / all / owner
	Sort    string // updated / created / pushed
	PerPage int
	Page    int
}

// GitHub 对 GitHub REST 与 Search 接口的只读访问
// 所有返回值都已经转换成 domain 类型
type GitHub interface {
	AuthenticatedUser(ctx context.Context) (*domain.GitHubUser, error)
	GetUser(ctx context.Context, login string) (*domain.GitHubUser, error)
	ListUserRepos(ctx context.Context, user string, opts RepoListOptions) ([]domain.Repository, error)
	GetRepository(ctx context.Context, owner, repo string) (*domain.Repository, error)
	ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error)
	// GetFileContent 返回解码后的文件内容
	GetFileContent(ctx context.Context, owner, repo, path string) (string, error)
	// ListOpenIssues 按创建时间倒序列出 open issue，已排除 PR
	ListOpenIssues(ctx context.Context, owner, repo string, labels []string, perPage int) ([]domain.Issue, error)
	SearchRepositories(ctx context.Context, query string, perPage int) ([]domain.Repository, error)
	SearchPullRequests(ctx context.Context, author string, page, perPage int) ([]domain.PullRequest, error)
	SearchIssues(ctx context.Context, author string, page, perPage int) ([]domain.IssueRecord, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error)
	ListCommits(ctx context.Context, owner, repo, author string, perPage int) ([]domain.Commit, error)
	ListPublicEvents(ctx context.Context, user string, perPage int) ([]domain.Event, error)
	// ListStarred 列出当前 token 用户 star 过的仓库
	ListStarred(ctx context.Context, perPage int) ([]domain.Repository, error)
	// ListFollowing 列出当前 token 用户关注的用户 login
	ListFollowing(ctx context.Context, perPage int) ([]string, error)
}

// GitHubProvider 按访问令牌创建 GitHub 客户端，空令牌表示匿名访问
type GitHubProvider interface {
	ForToken(token string) GitHub
}

// KVStore 键值存储，所有实现必须并发安全
// ttl 为 0 表示永不过期
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Narrator (解说员): 调用 LLM 给推荐结果写一句推荐语
type Narrator interface {
	Narrate(ctx context.Context, profile domain.SkillProfile, recs []domain.Recommendation) ([]domain.Recommendation, error)
}

// Notifier (信使): 负责把推荐摘要推送出去 (飞书)
type Notifier interface {
	NotifyDigest(ctx context.Context, login string, recs []domain.Recommendation) error
}
