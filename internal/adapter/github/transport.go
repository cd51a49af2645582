package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"contribuddy/internal/common"

	"golang.org/x/time/rate"
)

const (
	UserAgent  = "ContriBuddy-App"
	APIVersion = "2022-11-28"
	acceptType = "application/vnd.github+json"
)

// pacedTransport 给每个请求加上固定请求头，并按令牌桶和 GitHub 返回的
// X-RateLimit-* 头控制节奏。core 与 search 等额度分开记录
type pacedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
	maxWait time.Duration
	nowFunc func() time.Time

	mu     sync.Mutex
	quotas map[string]quota // 按 X-RateLimit-Resource 区分，没有记录表示还没收到限流头
}

type quota struct {
	remaining int
	reset     time.Time
}

func newPacedTransport(base http.RoundTripper, limiter *rate.Limiter, maxWait time.Duration) *pacedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &pacedTransport{
		base:    base,
		limiter: limiter,
		maxWait: maxWait,
		nowFunc: time.Now,
		quotas:  make(map[string]quota),
	}
}

// resourceOf 请求会消耗的额度类别，与 GitHub 的 X-RateLimit-Resource 取值一致
func resourceOf(req *http.Request) string {
	path := req.URL.Path
	switch {
	case strings.Contains(path, "/search/code"):
		return "code_search"
	case strings.Contains(path, "/search/"):
		return "search"
	}
	return "core"
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	resource := resourceOf(req)
	if err := t.waitForReset(ctx, resource); err != nil {
		return nil, err
	}

	req = req.Clone(ctx)
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-GitHub-Api-Version", APIVersion)
	if req.Header.Get("Accept") == "" || req.Header.Get("Accept") == "application/vnd.github.v3+json" {
		req.Header.Set("Accept", acceptType)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.observe(resource, resp.Header)
	return resp, nil
}

// observe 记录响应中的剩余额度和重置时间，响应没有带 X-RateLimit-Resource 时记到请求推断的类别上
func (t *pacedTransport) observe(resource string, h http.Header) {
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	resetUnix, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return
	}
	if r := h.Get("X-RateLimit-Resource"); r != "" {
		resource = r
	}

	t.mu.Lock()
	t.quotas[resource] = quota{remaining: remaining, reset: time.Unix(resetUnix, 0)}
	t.mu.Unlock()
}

// waitForReset 该类别额度耗尽时等待到重置时间；等待超过 maxWait 则直接返回限流错误
func (t *pacedTransport) waitForReset(ctx context.Context, resource string) error {
	t.mu.Lock()
	q, ok := t.quotas[resource]
	t.mu.Unlock()

	if !ok || q.remaining != 0 {
		return nil
	}
	wait := q.reset.Sub(t.nowFunc())
	if wait <= 0 {
		return nil
	}
	if wait > t.maxWait {
		return common.NewStatusError(common.ErrCodeRateLimited, http.StatusForbidden,
			fmt.Sprintf("GitHub API %s 额度已耗尽，%s 后重置", resource, wait.Round(time.Second)), nil)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	t.mu.Lock()
	if cur, ok := t.quotas[resource]; ok && cur.reset.Equal(q.reset) {
		delete(t.quotas, resource)
	}
	t.mu.Unlock()
	return nil
}
