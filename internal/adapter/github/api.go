package github

import (
	"context"
	"fmt"
	"net/http"

	"contribuddy/internal/common"
	"contribuddy/internal/domain"
	"contribuddy/internal/port"

	"github.com/google/go-github/v53/github"
)

// AuthenticatedUser GET /user
func (c *Client) AuthenticatedUser(ctx context.Context) (*domain.GitHubUser, error) {
	return c.GetUser(ctx, "")
}

// GetUser GET /users/{login}，login 为空时取当前 token 用户
func (c *Client) GetUser(ctx context.Context, login string) (*domain.GitHubUser, error) {
	var user *github.User
	err := c.do(ctx, "获取用户信息", func() error {
		var apiErr error
		user, _, apiErr = c.gh.Users.Get(ctx, login)
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	return toGitHubUser(user), nil
}

// ListUserRepos GET /users/{u}/repos，user 为空时为 GET /user/repos
func (c *Client) ListUserRepos(ctx context.Context, user string, opts port.RepoListOptions) ([]domain.Repository, error) {
	listOpts := &github.RepositoryListOptions{
		Type: opts.Type,
		Sort: opts.Sort,
		ListOptions: github.ListOptions{
			PerPage: opts.PerPage,
			Page:    opts.Page,
		},
	}

	var repos []*github.Repository
	err := c.do(ctx, fmt.Sprintf("获取 %s 的仓库列表", user), func() error {
		var apiErr error
		repos, _, apiErr = c.gh.Repositories.List(ctx, user, listOpts)
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	return toRepositories(repos), nil
}

// GetRepository GET /repos/{o}/{r}
func (c *Client) GetRepository(ctx context.Context, owner, repo string) (*domain.Repository, error) {
	var r *github.Repository
	err := c.do(ctx, fmt.Sprintf("获取仓库 %s/%s", owner, repo), func() error {
		var apiErr error
		r, _, apiErr = c.gh.Repositories.Get(ctx, owner, repo)
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	out := toRepository(r)
	return &out, nil
}

// ListLanguages GET /repos/{o}/{r}/languages，返回语言到字节数的映射
func (c *Client) ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	var langs map[string]int
	err := c.do(ctx, fmt.Sprintf("获取 %s/%s 的语言分布", owner, repo), func() error {
		var apiErr error
		langs, _, apiErr = c.gh.Repositories.ListLanguages(ctx, owner, repo)
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	return langs, nil
}

// GetFileContent GET /repos/{o}/{r}/contents/{path}，返回 base64 解码后的内容
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	what := fmt.Sprintf("读取 %s/%s/%s", owner, repo, path)

	var file *github.RepositoryContent
	err := c.do(ctx, what, func() error {
		var apiErr error
		file, _, _, apiErr = c.gh.Repositories.GetContents(ctx, owner, repo, path, nil)
		return apiErr
	})
	if err != nil {
		return "", err
	}
	if file == nil {
		return "", common.NewStatusError(common.ErrCodeNotFound, http.StatusNotFound, what+": 不是文件", nil)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", common.WrapError(common.ErrCodeGitHubAPI, what+": 内容解码失败", err)
	}
	return content, nil
}

// ListOpenIssues GET /repos/{o}/{r}/issues?state=open&sort=created&direction=desc
// GitHub 的 issues 接口会返回 PR，这里过滤掉
func (c *Client) ListOpenIssues(ctx context.Context, owner, repo string, labels []string, perPage int) ([]domain.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:     "open",
		Labels:    labels,
		Sort:      "created",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	var issues []*github.Issue
	err := c.do(ctx, fmt.Sprintf("获取 %s/%s 的 issues", owner, repo), func() error {
		var apiErr error
		issues, _, apiErr = c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Issue, 0, len(issues))
	for _, i := range issues {
		if i == nil || i.IsPullRequest() {
			continue
		}
		out = append(out, toIssue(i))
	}
	return out, nil
}

// SearchRepositories GET /search/repositories，按 star 倒序
func (c *Client) SearchRepositories(ctx context.Context, query string, perPage int) ([]domain.Repository, error) {
	opts := &github.SearchOptions{
		Sort:  "stars",
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	var result *github.RepositoriesSearchResult
	err := c.do(ctx, "搜索仓库", func() error {
		var apiErr error
		result, _, apiErr = c.gh.Search.Repositories(ctx, query, opts)
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	return toRepositories(result.Repositories), nil
}

func (c *Client) searchAuthored(ctx context.Context, author, kind string, page, perPage int) ([]*github.Issue, error) {
	query := fmt.Sprintf("author:%s type:%s", author, kind)
	opts := &github.SearchOptions{
		Sort:  "created",
		Order: "desc",
		ListOptions: github.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}

	var result *github.IssuesSearchResult
	err := c.do(ctx, fmt.Sprintf("搜索 %s (第 %d 页)", query, page), func() error {
		var apiErr error
		result, _, apiErr = c.gh.Search.Issues(ctx, query, opts)
		return apiErr
	})
	if err != nil {
		return nil, err
	}
	return result.Issues, nil
}

// SearchPullRequests GET /search/issues?q=author:{u} type:pr
// 搜索结果不含代码行数，需要再调用 GetPullRequest
func (c *Client) SearchPullRequests(ctx context.Context, author string, page, perPage int) ([]domain.PullRequest, error) {
	items, err := c.searchAuthored(ctx, author, "pr", page, perPage)
	if err != nil {
		return nil, err
	}

	prs := make([]domain.PullRequest, 0, len(items))
	for _, it := range items {
		prs = append(prs, domain.PullRequest{
			ID:         it.GetID(),
			Number:     it.GetNumber(),
			Title:      it.GetTitle(),
			State:      it.GetState(),
			HTMLURL:    it.GetHTMLURL(),
			Repository: domain.RepoRef{FullName: repoFromAPIURL(it.GetRepositoryURL())},
			CreatedAt:  it.GetCreatedAt().Time,
			UpdatedAt:  it.GetUpdatedAt().Time,
			ClosedAt:   optionalTime(it.GetClosedAt()),
			Labels:     labelNames(it.Labels),
		})
	}
	return prs, nil
}

// SearchIssues GET /search/issues?q=author:{u} type:issue
func (c *Client) SearchIssues(ctx context.Context, author string, page, perPage int) ([]domain.IssueRecord, error) {
	items, err := c.searchAuthored(ctx, author, "issue", page, perPage)
	if err != nil {
		return nil, err
	}

	issues := make([]domain.IssueRecord, 0, len(items))
	for _, it := range items {
		issues = append(issues, domain.IssueRecord{
			ID:         it.GetID(),
			Number:     it.GetNumber(),
			Title:      it.GetTitle(),
			State:      it.GetState(),
			HTMLURL:    it.GetHTMLURL(),
			Repository: domain.RepoRef{FullName: repoFromAPIURL(it.GetRepositoryURL())},
			CreatedAt:  it.GetCreatedAt().Time,
			UpdatedAt:  it.GetUpdatedAt().Time,
			ClosedAt:   optionalTime(it.GetClosedAt()),
			Comments:   it.GetComments(),
			Labels:     labelNames(it.Labels),
		})
	}
	return issues, nil
}

// GetPullRequest GET /repos/{o}/{r}/pulls/{n}
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
	var pr *github.PullRequest
	err := c.do(ctx, fmt.Sprintf("获取 PR %s/%s#%d", owner, repo, number), func() error {
		var apiErr error
		pr, _, apiErr = c.gh.PullRequests.Get(ctx, owner, repo, number)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	base := pr.GetBase().GetRepo()
	fullName := base.GetFullName()
	if fullName == "" {
		fullName = owner + "/" + repo
	}
	return &domain.PullRequest{
		ID:      pr.GetID(),
		Number:  pr.GetNumber(),
		Title:   pr.GetTitle(),
		State:   pr.GetState(),
		HTMLURL: pr.GetHTMLURL(),
		Repository: domain.RepoRef{
			FullName: fullName,
			Language: base.GetLanguage(),
			Stars:    base.GetStargazersCount(),
		},
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
		MergedAt:     optionalTime(pr.GetMergedAt()),
		ClosedAt:     optionalTime(pr.GetClosedAt()),
		Additions:    pr.GetAdditions(),
		Deletions:    pr.GetDeletions(),
		ChangedFiles: pr.GetChangedFiles(),
		Labels:       labelNames(pr.Labels),
	}, nil
}

// ListCommits GET /repos/{o}/{r}/commits?author={u}
// 缺少作者信息的提交会被丢弃
func (c *Client) ListCommits(ctx context.Context, owner, repo, author string, perPage int) ([]domain.Commit, error) {
	opts := &github.CommitsListOptions{
		Author: author,
		ListOptions: github.ListOptions{
			PerPage: perPage,
		},
	}

	var commits []*github.RepositoryCommit
	err := c.do(ctx, fmt.Sprintf("获取 %s/%s 的提交", owner, repo), func() error {
		var apiErr error
		commits, _, apiErr = c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Commit, 0, len(commits))
	for _, rc := range commits {
		if rc == nil || rc.GetCommit().GetAuthor() == nil {
			continue
		}
		commit := domain.Commit{
			SHA:        rc.GetSHA(),
			Message:    rc.GetCommit().GetMessage(),
			HTMLURL:    rc.GetHTMLURL(),
			Repository: domain.RepoRef{FullName: owner + "/" + repo},
			CreatedAt:  rc.GetCommit().GetAuthor().GetDate().Time,
		}
		if rc.Stats != nil {
			commit.Stats = &domain.CommitStats{
				Additions: rc.Stats.GetAdditions(),
				Deletions: rc.Stats.GetDeletions(),
				Total:     rc.Stats.GetTotal(),
			}
		}
		out = append(out, commit)
	}
	return out, nil
}

// ListPublicEvents GET /users/{u}/events/public
func (c *Client) ListPublicEvents(ctx context.Context, user string, perPage int) ([]domain.Event, error) {
	var events []*github.Event
	err := c.do(ctx, fmt.Sprintf("获取 %s 的公开事件", user), func() error {
		var apiErr error
		events, _, apiErr = c.gh.Activity.ListEventsPerformedByUser(ctx, user, true, &github.ListOptions{PerPage: perPage})
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		out = append(out, domain.Event{
			Type:      e.GetType(),
			RepoName:  e.GetRepo().GetName(),
			CreatedAt: e.GetCreatedAt().Time,
		})
	}
	return out, nil
}

// ListStarred GET /user/starred
func (c *Client) ListStarred(ctx context.Context, perPage int) ([]domain.Repository, error) {
	opts := &github.ActivityListStarredOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var starred []*github.StarredRepository
	err := c.do(ctx, "获取 star 列表", func() error {
		var apiErr error
		starred, _, apiErr = c.gh.Activity.ListStarred(ctx, "", opts)
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Repository, 0, len(starred))
	for _, s := range starred {
		if s.GetRepository() == nil {
			continue
		}
		out = append(out, toRepository(s.GetRepository()))
	}
	return out, nil
}

// ListFollowing GET /user/following
func (c *Client) ListFollowing(ctx context.Context, perPage int) ([]string, error) {
	var users []*github.User
	err := c.do(ctx, "获取关注列表", func() error {
		var apiErr error
		users, _, apiErr = c.gh.Users.ListFollowing(ctx, "", &github.ListOptions{PerPage: perPage})
		return apiErr
	})
	if err != nil {
		return nil, err
	}

	logins := make([]string, 0, len(users))
	for _, u := range users {
		if u.GetLogin() != "" {
			logins = append(logins, u.GetLogin())
		}
	}
	return logins, nil
}
