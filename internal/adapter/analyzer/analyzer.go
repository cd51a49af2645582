package analyzer

import (
	"context"
	"sync"
	"time"

	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
)

// IssueFetcher 为一个仓库拉取推荐 issue
type IssueFetcher func(ctx context.Context, repo domain.Repository) ([]domain.Issue, error)

// RepoAnalyzer 负责技能推断、贡献统计，以及并发为推荐结果补充 issue
type RepoAnalyzer struct {
	log           *logger.Logger
	maxGoroutines int           // 最大并发数
	itemTimeout   time.Duration // 单个仓库的超时时间
	nowFunc       func() time.Time
}

// NewRepoAnalyzer 创建新的分析器实例
func NewRepoAnalyzer(log *logger.Logger) *RepoAnalyzer {
	if log == nil {
		log = logger.NewNop()
	}
	return &RepoAnalyzer{
		log:           log,
		maxGoroutines: 3,
		itemTimeout:   30 * time.Second,
		nowFunc:       time.Now, // 便于测试注入当前时间
	}
}

// SetMaxGoroutines 设置最大并发数
func (a *RepoAnalyzer) SetMaxGoroutines(max int) {
	if max > 0 {
		a.maxGoroutines = max
	}
}

// SetItemTimeout 设置单个仓库的超时时间
func (a *RepoAnalyzer) SetItemTimeout(d time.Duration) {
	if d > 0 {
		a.itemTimeout = d
	}
}

// SetNowFunc 替换时间来源
func (a *RepoAnalyzer) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		a.nowFunc = fn
	}
}

func (a *RepoAnalyzer) now() time.Time {
	if a == nil || a.nowFunc == nil {
		return time.Now()
	}
	return a.nowFunc()
}

type issueJob struct {
	index int
	repo  domain.Repository
}

type issueResult struct {
	index  int
	issues []domain.Issue
}

// issueWorker 工作协程，为单个仓库拉取 issue，失败时返回空列表
func (a *RepoAnalyzer) issueWorker(
	ctx context.Context,
	fetch IssueFetcher,
	jobs <-chan issueJob,
	results chan<- issueResult,
	wg *sync.WaitGroup,
	workerID int,
) {
	defer wg.Done()

	for job := range jobs {
		itemCtx, cancel := context.WithTimeout(ctx, a.itemTimeout)
		issues, err := fetch(itemCtx, job.repo)
		cancel()

		if err != nil {
			a.log.Warn("获取推荐 issue 失败", "worker", workerID, "repo", job.repo.FullName, "error", err)
			issues = nil
		}
		if issues == nil {
			issues = []domain.Issue{}
		}
		results <- issueResult{index: job.index, issues: issues}
	}
}

// AttachIssues 并发为每条推荐补充 issue，保持原有顺序。
// ctx 取消时返回已完成的部分，未完成的推荐 issue 列表为空。
func (a *RepoAnalyzer) AttachIssues(ctx context.Context, recs []domain.Recommendation, fetch IssueFetcher) ([]domain.Recommendation, error) {
	for i := range recs {
		if recs[i].SuggestedIssues == nil {
			recs[i].SuggestedIssues = []domain.Issue{}
		}
	}
	if len(recs) == 0 {
		return recs, nil
	}

	workers := min(a.maxGoroutines, len(recs))
	a.log.Debug("开始获取推荐 issue", "repos", len(recs), "workers", workers)

	jobs := make(chan issueJob, len(recs))
	results := make(chan issueResult, len(recs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go a.issueWorker(ctx, fetch, jobs, results, &wg, i+1)
	}

	for i, r := range recs {
		jobs <- issueJob{index: i, repo: r.Repository}
	}
	close(jobs)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var ctxErr error
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("获取推荐 issue 因超时或取消而中断")
		ctxErr = ctx.Err()
	}

	// results 有足够缓冲，这里只取已经完成的结果
	for {
		select {
		case res := <-results:
			recs[res.index].SuggestedIssues = res.issues
		default:
			return recs, ctxErr
		}
	}
}
