package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"contribuddy/internal/common"
	"contribuddy/internal/port"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// ProviderConfig GitHub 客户端的公共参数
type ProviderConfig struct {
	RPS           float64       // 令牌桶速率 (每秒请求数)
	Burst         int           // 令牌桶容量
	MaxWait       time.Duration // 额度耗尽时最多等待多久
	BaseURL       string        // 为空时使用 https://api.github.com/
	MaxRetries    int           // 5xx / 网络错误的重试次数
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration // 指数退避的上限
}

// Provider 按访问令牌创建 Client，所有 Client 共享同一个令牌桶
type Provider struct {
	cfg     ProviderConfig
	limiter *rate.Limiter
	baseURL *url.URL
	base    http.RoundTripper
}

var _ port.GitHubProvider = (*Provider)(nil)

// NewProvider 初始化 Provider
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Minute
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}

	p := &Provider{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("GitHub BaseURL 非法: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		p.baseURL = u
	}
	return p, nil
}

// ForToken 实现 port.GitHubProvider
func (p *Provider) ForToken(token string) port.GitHub {
	return p.Client(token)
}

// Client 返回使用 token 认证的客户端，token 为空时匿名访问 (60 次/小时)
func (p *Provider) Client(token string) *Client {
	transport := newPacedTransport(p.base, p.limiter, p.cfg.MaxWait)
	httpClient := &http.Client{Transport: transport}

	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
	}

	gh := github.NewClient(httpClient)
	gh.UserAgent = UserAgent
	if p.baseURL != nil {
		gh.BaseURL = p.baseURL
	}

	return &Client{
		gh:         gh,
		maxRetries: p.cfg.MaxRetries,
		retryDelay: p.cfg.RetryDelay,
		maxDelay:   p.cfg.RetryMaxDelay,
	}
}

// Client 实现了 port.GitHub 接口
type Client struct {
	gh         *github.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
}

var _ port.GitHub = (*Client)(nil)

// do 执行一次 API 调用，只对 5xx 和网络错误重试，错误统一转换成 AppError
func (c *Client) do(ctx context.Context, what string, fn func() error) error {
	return common.Do(ctx, func() error {
		if err := fn(); err != nil {
			return translateError(what, err)
		}
		return nil
	},
		common.WithMaxRetries(c.maxRetries),
		common.WithInitialDelay(c.retryDelay),
		common.WithMaxDelay(c.maxDelay),
		common.WithRetryIf(isTransient),
	)
}

// translateError 把 go-github 的错误映射为带错误码的 AppError
func translateError(what string, err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return common.NewStatusError(common.ErrCodeRateLimited, http.StatusForbidden,
			fmt.Sprintf("%s: GitHub API rate limit exceeded", what), err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return common.NewStatusError(common.ErrCodeRateLimited, http.StatusForbidden,
			fmt.Sprintf("%s: GitHub secondary rate limit", what), err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		status := respErr.Response.StatusCode
		msg := fmt.Sprintf("%s: %s", what, respErr.Message)
		switch {
		case status == http.StatusNotFound:
			return common.NewStatusError(common.ErrCodeNotFound, status, msg, err)
		case status == http.StatusTooManyRequests,
			status == http.StatusForbidden && strings.Contains(strings.ToLower(respErr.Message), "rate limit"):
			return common.NewStatusError(common.ErrCodeRateLimited, status, msg, err)
		case status == http.StatusUnauthorized:
			return common.NewStatusError(common.ErrCodeNotAuthenticated, status, msg, err)
		default:
			return common.NewStatusError(common.ErrCodeGitHubAPI, status, msg, err)
		}
	}

	return common.NewStatusError(common.ErrCodeGitHubAPI, 0, fmt.Sprintf("%s: GitHub API 调用失败", what), err)
}

// isTransient 5xx 与网络错误可重试
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if common.CodeOf(err) != common.ErrCodeGitHubAPI {
		return false
	}
	status := common.StatusOf(err)
	return status == 0 || status >= http.StatusInternalServerError
}
