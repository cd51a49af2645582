package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"contribuddy/internal/common"
	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
)

// maxCardItems 一张卡片最多展示的推荐数
const maxCardItems = 5

type Notifier struct {
	webhookURL string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	backoff    float64
	maxDelay   time.Duration
	log        *logger.Logger
}

func NewNotifier(webhook string, log *logger.Logger) *Notifier {
	if log == nil {
		log = logger.NewNop()
	}
	if webhook == "" {
		log.Warn("飞书 Webhook 为空，推送功能将无法工作")
	}
	return &Notifier{
		webhookURL: webhook,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		retryDelay: 500 * time.Millisecond,
		backoff:    1.5,
		maxDelay:   2 * time.Second,
		log:        log,
	}
}

// NotifyDigest 把一位用户的推荐摘要作为飞书卡片 (Schema 2.0) 发出
func (n *Notifier) NotifyDigest(ctx context.Context, login string, recs []domain.Recommendation) error {
	if n.webhookURL == "" {
		return common.NewError(common.ErrCodeConfiguration, "Webhook URL 为空")
	}
	if len(recs) == 0 {
		return nil
	}

	body, err := json.Marshal(buildCard(login, recs))
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "构造卡片失败", err)
	}

	err = common.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("飞书 API 报错: 状态码 %d", resp.StatusCode)
		}
		return nil
	},
		common.WithMaxRetries(n.maxRetries),
		common.WithInitialDelay(n.retryDelay),
		common.WithMultiplier(n.backoff),
		common.WithMaxDelay(n.maxDelay),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}

	n.log.Info("推荐摘要已推送", "login", login, "count", min(len(recs), maxCardItems))
	return nil
}

func buildCard(login string, recs []domain.Recommendation) map[string]interface{} {
	if len(recs) > maxCardItems {
		recs = recs[:maxCardItems]
	}

	elements := make([]map[string]interface{}, 0, len(recs)+1)
	for i, r := range recs {
		elements = append(elements, map[string]interface{}{
			"tag":       "markdown",
			"content":   recMarkdown(i+1, r),
			"text_size": "normal",
		})
	}
	elements = append(elements, map[string]interface{}{
		"tag": "button",
		"text": map[string]interface{}{
			"tag":     "plain_text",
			"content": "🔗 查看最佳匹配",
		},
		"type": "primary",
		"behaviors": []map[string]interface{}{
			{
				"type":        "open_url",
				"default_url": recs[0].Repository.HTMLURL,
			},
		},
	})

	return map[string]interface{}{
		"msg_type": "interactive",
		"card": map[string]interface{}{
			"schema": "2.0",
			"config": map[string]interface{}{
				"update_multi": true,
			},
			"header": map[string]interface{}{
				"title": map[string]interface{}{
					"tag":     "plain_text",
					"content": fmt.Sprintf("🧭 %s 的开源贡献推荐", login),
				},
				"template": "blue",
			},
			"body": map[string]interface{}{
				"direction": "vertical",
				"elements":  elements,
			},
		},
	}
}

func recMarkdown(rank int, r domain.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%d. [%s](%s)**  |  **匹配度:** %d/100\n", rank, r.Repository.FullName, r.Repository.HTMLURL, r.MatchScore)
	fmt.Fprintf(&b, "**⭐ Stars:** %d  |  **语言:** %s\n", r.Repository.Stars, r.Repository.Language)
	if r.Repository.Description != "" {
		fmt.Fprintf(&b, "%s\n", r.Repository.Description)
	}
	if r.Pitch != "" {
		fmt.Fprintf(&b, "**🤖 推荐语:** %s\n", r.Pitch)
	}
	if len(r.Reasons) > 0 {
		fmt.Fprintf(&b, "**理由:** %s\n", strings.Join(r.Reasons, "; "))
	}
	if len(r.SuggestedIssues) > 0 {
		is := r.SuggestedIssues[0]
		fmt.Fprintf(&b, "**入门 issue:** [#%d %s](%s)\n", is.Number, is.Title, is.HTMLURL)
	}
	return b.String()
}
