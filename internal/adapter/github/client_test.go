package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"contribuddy/internal/common"
	"contribuddy/internal/port"

	"github.com/google/go-github/v53/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// setupMockGitHubServer 创建一个模拟的 GitHub API 服务器
func setupMockGitHubServer(t *testing.T, token string, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewProvider(ProviderConfig{
		RPS:        1000,
		Burst:      100,
		BaseURL:    server.URL + "/",
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return server, provider.Client(token)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// createMockRepo 创建模拟的 GitHub 仓库对象
func createMockRepo(id int64, fullName, language string, stars int, topics ...string) *github.Repository {
	return &github.Repository{
		ID:              github.Int64(id),
		FullName:        github.String(fullName),
		HTMLURL:         github.String("https://github.com/" + fullName),
		Description:     github.String("Test repo " + fullName),
		StargazersCount: github.Int(stars),
		OpenIssuesCount: github.Int(3),
		Language:        github.String(language),
		Topics:          topics,
		Owner:           &github.User{Login: github.String("octo")},
		UpdatedAt:       &github.Timestamp{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestClient_SearchRepositories(t *testing.T) {
	var gotQuery, gotUA, gotVersion, gotAuth string
	_, client := setupMockGitHubServer(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/repositories", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "stars", r.URL.Query().Get("sort"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		gotUA = r.Header.Get("User-Agent")
		gotVersion = r.Header.Get("X-GitHub-Api-Version")
		gotAuth = r.Header.Get("Authorization")

		writeJSON(t, w, &github.RepositoriesSearchResult{
			Total: github.Int(2),
			Repositories: []*github.Repository{
				createMockRepo(1, "octo/ml", "Python", 1500, "machine-learning", "ai"),
				createMockRepo(2, "octo/web", "Go", 20),
			},
		})
	})

	repos, err := client.SearchRepositories(context.Background(), "is:public archived:false language:python", 50)
	require.NoError(t, err)

	assert.Equal(t, "is:public archived:false language:python", gotQuery)
	assert.Equal(t, UserAgent, gotUA)
	assert.Equal(t, APIVersion, gotVersion)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	require.Len(t, repos, 2)
	assert.Equal(t, int64(1), repos[0].ID)
	assert.Equal(t, "octo/ml", repos[0].FullName)
	assert.Equal(t, 1500, repos[0].Stars)
	assert.Equal(t, []string{"machine-learning", "ai"}, repos[0].Topics)
	assert.Equal(t, "octo", repos[0].Owner.Login)
	assert.Equal(t, []string{}, repos[1].Topics)
}

func TestClient_AnonymousHasNoAuthorization(t *testing.T) {
	_, client := setupMockGitHubServer(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, &github.User{ID: github.Int64(7), Login: github.String("octocat")})
	})

	user, err := client.GetUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "octocat", user.Login)
}

func TestClient_ListOpenIssues(t *testing.T) {
	_, client := setupMockGitHubServer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/ml/issues", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "open", q.Get("state"))
		assert.Equal(t, "created", q.Get("sort"))
		assert.Equal(t, "desc", q.Get("direction"))
		assert.Equal(t, "good first issue", q.Get("labels"))
		assert.Equal(t, "20", q.Get("per_page"))

		writeJSON(t, w, []*github.Issue{
			{ID: github.Int64(10), Number: github.Int(1), Title: github.String("fix docs"),
				Labels: []*github.Label{{Name: github.String("good first issue"), Color: github.String("7057ff")}}},
			{ID: github.Int64(11), Number: github.Int(2), Title: github.String("a PR"),
				PullRequestLinks: &github.PullRequestLinks{URL: github.String("https://api.github.com/repos/octo/ml/pulls/2")}},
		})
	})

	issues, err := client.ListOpenIssues(context.Background(), "octo", "ml", []string{"good first issue"}, 20)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "fix docs", issues[0].Title)
	assert.Equal(t, "good first issue", issues[0].Labels[0].Name)
}

func TestClient_GetFileContent(t *testing.T) {
	pkg := `{"dependencies":{"react":"^18.0.0"}}`
	_, client := setupMockGitHubServer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/web/contents/package.json", r.URL.Path)
		writeJSON(t, w, &github.RepositoryContent{
			Type:     github.String("file"),
			Encoding: github.String("base64"),
			Content:  github.String(base64.StdEncoding.EncodeToString([]byte(pkg))),
		})
	})

	content, err := client.GetFileContent(context.Background(), "octo", "web", "package.json")
	require.NoError(t, err)
	assert.Equal(t, pkg, content)
}

func TestClient_SearchPullRequests(t *testing.T) {
	_, client := setupMockGitHubServer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "author:octocat type:pr", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		writeJSON(t, w, &github.IssuesSearchResult{
			Total: github.Int(1),
			Issues: []*github.Issue{{
				ID:            github.Int64(99),
				Number:        github.Int(42),
				Title:         github.String("Add feature"),
				State:         github.String("closed"),
				RepositoryURL: github.String("https://api.github.com/repos/gin-gonic/gin"),
				CreatedAt:     &github.Timestamp{Time: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			}},
		})
	})

	prs, err := client.SearchPullRequests(context.Background(), "octocat", 2, 100)
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, "gin-gonic/gin", prs[0].Repository.FullName)
	assert.Equal(t, 42, prs[0].Number)
	assert.Nil(t, prs[0].ClosedAt)
}

func TestClient_ListCommits(t *testing.T) {
	_, client := setupMockGitHubServer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "octocat", r.URL.Query().Get("author"))
		writeJSON(t, w, []*github.RepositoryCommit{
			{SHA: github.String("a1"), Commit: &github.Commit{
				Message: github.String("init"),
				Author:  &github.CommitAuthor{Date: &github.Timestamp{Time: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}},
			}},
			{SHA: github.String("b2"), Commit: &github.Commit{Message: github.String("no author")}},
		})
	})

	commits, err := client.ListCommits(context.Background(), "octo", "ml", "octocat", 20)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "a1", commits[0].SHA)
	assert.Equal(t, "octo/ml", commits[0].Repository.FullName)
	assert.Nil(t, commits[0].Stats)
}

func TestClient_ErrorTranslation(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedCode  string
		expectedCalls int32
	}{
		{"404 映射为 NOT_FOUND", 404, `{"message":"Not Found"}`, common.ErrCodeNotFound, 1},
		{"403 限流信息映射为 RATE_LIMITED", 403, `{"message":"API rate limit exceeded for user"}`, common.ErrCodeRateLimited, 1},
		{"429 映射为 RATE_LIMITED", 429, `{"message":"Too Many Requests"}`, common.ErrCodeRateLimited, 1},
		{"401 映射为 NOT_AUTHENTICATED", 401, `{"message":"Bad credentials"}`, common.ErrCodeNotAuthenticated, 1},
		{"422 不重试", 422, `{"message":"Validation Failed"}`, common.ErrCodeGitHubAPI, 1},
		{"502 重试后失败", 502, `{"message":"Bad Gateway"}`, common.ErrCodeGitHubAPI, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			_, client := setupMockGitHubServer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GetRepository(context.Background(), "octo", "missing")
			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, common.CodeOf(err))
			assert.Equal(t, tt.status, common.StatusOf(err))
			assert.Equal(t, tt.expectedCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestClient_RetryRecovers(t *testing.T) {
	var calls int32
	_, client := setupMockGitHubServer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"message":"unavailable"}`))
			return
		}
		writeJSON(t, w, map[string]int{"Go": 12000, "Shell": 300})
	})

	langs, err := client.ListLanguages(context.Background(), "octo", "ml")
	require.NoError(t, err)
	assert.Equal(t, 12000, langs["Go"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_RetryBackoffIsCapped(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 4 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"message":"bad gateway"}`))
			return
		}
		writeJSON(t, w, map[string]int{"Go": 1})
	}))
	defer server.Close()

	// 不封顶时四次退避共 20+40+80+160ms
	provider, err := NewProvider(ProviderConfig{
		RPS:           1000,
		Burst:         100,
		BaseURL:       server.URL + "/",
		MaxRetries:    4,
		RetryDelay:    20 * time.Millisecond,
		RetryMaxDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = provider.Client("tok").ListLanguages(context.Background(), "octo", "ml")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestClient_ListUserRepos(t *testing.T) {
	_, client := setupMockGitHubServer(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octocat/repos", r.URL.Path)
		assert.Equal(t, "owner", r.URL.Query().Get("type"))
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		writeJSON(t, w, []*github.Repository{createMockRepo(5, "octocat/hello", "Go", 1)})
	})

	repos, err := client.ListUserRepos(context.Background(), "octocat", port.RepoListOptions{Type: "owner", Sort: "updated", PerPage: 100})
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "octocat/hello", repos[0].FullName)
}

func TestClient_StarredFollowingEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/starred", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []*github.StarredRepository{{Repository: createMockRepo(1, "vercel/next.js", "TypeScript", 100000, "react")}})
	})
	mux.HandleFunc("/user/following", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []*github.User{{Login: github.String("torvalds")}, {}})
	})
	mux.HandleFunc("/users/octocat/events/public", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []*github.Event{{Type: github.String("PushEvent"), Repo: &github.Repository{Name: github.String("Octo/ML")}}})
	})
	_, client := setupMockGitHubServer(t, "tok", mux.ServeHTTP)
	ctx := context.Background()

	starred, err := client.ListStarred(ctx, 100)
	require.NoError(t, err)
	require.Len(t, starred, 1)
	assert.Equal(t, "vercel/next.js", starred[0].FullName)

	following, err := client.ListFollowing(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"torvalds"}, following)

	events, err := client.ListPublicEvents(ctx, "octocat", 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "PushEvent", events[0].Type)
	assert.Equal(t, "Octo/ML", events[0].RepoName)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestPacedTransport_RateLimitHeaders(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var calls int32
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		h := http.Header{}
		h.Set("X-RateLimit-Remaining", "0")
		h.Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(10*time.Minute).Unix(), 10))
		return &http.Response{StatusCode: 200, Header: h, Body: http.NoBody, Request: r}, nil
	})

	tr := newPacedTransport(base, rate.NewLimiter(rate.Inf, 1), time.Minute)
	tr.nowFunc = func() time.Time { return now }

	req := httptest.NewRequest(http.MethodGet, "https://api.github.com/user", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	t.Run("额度耗尽且重置太久时快速失败", func(t *testing.T) {
		_, err := tr.RoundTrip(req)
		require.Error(t, err)
		assert.True(t, common.IsRateLimited(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("重置时间很近时等待后继续", func(t *testing.T) {
		tr.mu.Lock()
		tr.quotas["core"] = quota{remaining: 0, reset: now.Add(20 * time.Millisecond)}
		tr.mu.Unlock()

		_, err := tr.RoundTrip(req)
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}

func TestPacedTransport_QuotaPerResource(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	calls := map[string]int{}
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls[r.URL.Path]++
		h := http.Header{}
		if r.URL.Path == "/search/repositories" {
			h.Set("X-RateLimit-Resource", "search")
			h.Set("X-RateLimit-Remaining", "0")
			h.Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(time.Minute).Unix(), 10))
		} else {
			h.Set("X-RateLimit-Resource", "core")
			h.Set("X-RateLimit-Remaining", "4999")
			h.Set("X-RateLimit-Reset", strconv.FormatInt(now.Add(time.Hour).Unix(), 10))
		}
		return &http.Response{StatusCode: 200, Header: h, Body: http.NoBody, Request: r}, nil
	})

	tr := newPacedTransport(base, nil, time.Second)
	tr.nowFunc = func() time.Time { return now }

	search := httptest.NewRequest(http.MethodGet, "https://api.github.com/search/repositories?q=go", nil)
	core := httptest.NewRequest(http.MethodGet, "https://api.github.com/repos/octo/ml/issues", nil)

	_, err := tr.RoundTrip(search)
	require.NoError(t, err)

	t.Run("search 额度耗尽不影响 core", func(t *testing.T) {
		_, err := tr.RoundTrip(core)
		require.NoError(t, err)
		assert.Equal(t, 1, calls["/repos/octo/ml/issues"])
	})

	t.Run("search 请求快速失败", func(t *testing.T) {
		_, err := tr.RoundTrip(search)
		require.Error(t, err)
		assert.True(t, common.IsRateLimited(err))
		assert.Equal(t, 1, calls["/search/repositories"])
	})
}

func TestResourceOf(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://api.github.com/search/repositories?q=go", "search"},
		{"https://api.github.com/search/issues?q=author:octo", "search"},
		{"https://api.github.com/search/code?q=x", "code_search"},
		{"https://api.github.com/users/octo/repos", "core"},
		{"http://127.0.0.1:8080/api/v3/search/issues", "search"},
	}
	for _, tt := range tests {
		t.Run(tt.expected+" "+tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, resourceOf(httptest.NewRequest(http.MethodGet, tt.url, nil)))
		})
	}
}

func TestPacedTransport_DoesNotMutateRequest(t *testing.T) {
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, APIVersion, r.Header.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		return &http.Response{StatusCode: 200, Header: http.Header{}, Body: http.NoBody, Request: r}, nil
	})
	tr := newPacedTransport(base, nil, time.Minute)

	req := httptest.NewRequest(http.MethodGet, "https://api.github.com/user", nil)
	_, err := tr.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("User-Agent"))
}

func TestRepoFromAPIURL(t *testing.T) {
	assert.Equal(t, "octo/ml", repoFromAPIURL("https://api.github.com/repos/octo/ml"))
	assert.Equal(t, "", repoFromAPIURL("https://example.com/nothing"))
}
