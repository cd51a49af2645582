package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"contribuddy/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestOAuth_NotConfigured(t *testing.T) {
	o := NewOAuth("", "", "")

	_, err := o.AuthorizeURL("state")
	assert.Equal(t, common.ErrCodeConfiguration, common.CodeOf(err))

	_, err = o.Exchange(context.Background(), "code")
	assert.Equal(t, common.ErrCodeConfiguration, common.CodeOf(err))
}

func TestOAuth_AuthorizeURL(t *testing.T) {
	o := NewOAuth("cid", "secret", "http://localhost:5173/auth/callback")

	raw, err := o.AuthorizeURL("xyz")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "cid", u.Query().Get("client_id"))
	assert.Equal(t, "xyz", u.Query().Get("state"))
	assert.Equal(t, "read:user user:email public_repo", u.Query().Get("scope"))
}

func TestOAuth_Exchange(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		response     string
		expectToken  string
		expectedCode string
	}{
		{"成功换取令牌", "good", `{"access_token":"gho_abc","token_type":"bearer"}`, "gho_abc", ""},
		{"授权码为空", "", "", "", common.ErrCodeInvalidInput},
		{"GitHub 返回错误", "bad", `{"error":"bad_verification_code"}`, "", common.ErrCodeGitHubAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.NoError(t, r.ParseForm())
				assert.Equal(t, tt.code, r.PostForm.Get("code"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			o := NewOAuth("cid", "secret", "").WithEndpoint(oauth2.Endpoint{
				AuthURL:   server.URL + "/login/oauth/authorize",
				TokenURL:  server.URL + "/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			})

			token, err := o.Exchange(context.Background(), tt.code)
			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.expectedCode, common.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectToken, token)
		})
	}
}
