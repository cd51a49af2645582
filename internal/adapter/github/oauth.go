package github

import (
	"context"
	"net/http"

	"contribuddy/internal/common"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

// OAuth GitHub OAuth App 的授权码换令牌流程
type OAuth struct {
	config *oauth2.Config
}

// NewOAuth 初始化 OAuth，redirectURL 可以为空 (使用 OAuth App 中配置的回调地址)
func NewOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	return &OAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     githuboauth.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email", "public_repo"},
		},
	}
}

// WithEndpoint 替换授权端点，测试或 GitHub Enterprise 使用
func (o *OAuth) WithEndpoint(ep oauth2.Endpoint) *OAuth {
	o.config.Endpoint = ep
	return o
}

// Configured 是否配置了 client id 和 secret
func (o *OAuth) Configured() bool {
	return o.config.ClientID != "" && o.config.ClientSecret != ""
}

// AuthorizeURL 生成跳转到 GitHub 的授权地址
func (o *OAuth) AuthorizeURL(state string) (string, error) {
	if !o.Configured() {
		return "", common.NewStatusError(common.ErrCodeConfiguration, http.StatusInternalServerError, "GitHub OAuth not configured", nil)
	}
	return o.config.AuthCodeURL(state), nil
}

// Exchange 用授权码换取访问令牌
func (o *OAuth) Exchange(ctx context.Context, code string) (string, error) {
	if !o.Configured() {
		return "", common.NewStatusError(common.ErrCodeConfiguration, http.StatusInternalServerError, "GitHub OAuth credentials not configured", nil)
	}
	if code == "" {
		return "", common.NewStatusError(common.ErrCodeInvalidInput, http.StatusBadRequest, "Authorization code is required", nil)
	}

	tok, err := o.config.Exchange(ctx, code)
	if err != nil {
		return "", common.NewStatusError(common.ErrCodeGitHubAPI, http.StatusBadGateway, "Failed to exchange code for access token", err)
	}
	if tok.AccessToken == "" {
		return "", common.NewStatusError(common.ErrCodeGitHubAPI, http.StatusBadGateway, "No access token received from GitHub", nil)
	}
	return tok.AccessToken, nil
}
