package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"contribuddy/internal/common"
	"contribuddy/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel 默认使用的 Gemini 模型
const DefaultModel = "gemini-2.5-flash-lite"

// maxNarrated 只为排名靠前的推荐写推荐语
const maxNarrated = 10

// GeminiNarrator 为推荐结果生成一句话推荐语
type GeminiNarrator struct {
	client   *genai.Client
	generate func(ctx context.Context, prompt string) (string, error)
}

// 定义一个内部结构体来接收 AI 返回的 JSON
type aiResponse struct {
	Pitches []struct {
		FullName string `json:"full_name"`
		Pitch    string `json:"pitch"`
	} `json:"pitches"`
}

func NewGeminiNarrator(ctx context.Context, apiKey, modelName string) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, common.NewError(common.ErrCodeConfiguration, "GEMINI_API_KEY 未配置")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "创建 Gemini 客户端失败", err)
	}

	model := client.GenerativeModel(modelName)
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"

	return &GeminiNarrator{
		client: client,
		generate: func(ctx context.Context, prompt string) (string, error) {
			resp, err := model.GenerateContent(ctx, genai.Text(prompt))
			if err != nil {
				return "", err
			}
			if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
				return "", fmt.Errorf("AI 返回内容为空")
			}
			text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
			if !ok {
				return "", fmt.Errorf("AI 返回格式错误")
			}
			return string(text), nil
		},
	}, nil
}

// Narrate 为前 10 条推荐填充 Pitch，失败时原样返回推荐列表和错误
func (g *GeminiNarrator) Narrate(ctx context.Context, profile domain.SkillProfile, recs []domain.Recommendation) ([]domain.Recommendation, error) {
	if len(recs) == 0 {
		return recs, nil
	}

	raw, err := g.generate(ctx, buildPrompt(profile, recs))
	if err != nil {
		return recs, common.WrapError(common.ErrCodeAIProcessing, "AI 调用失败", err)
	}

	pitches, err := parseAIResponse(raw)
	if err != nil {
		return recs, common.WrapError(common.ErrCodeAIProcessing, "AI 返回解析失败", err)
	}

	out := make([]domain.Recommendation, len(recs))
	copy(out, recs)
	for i := range out {
		if p, ok := pitches[strings.ToLower(out[i].Repository.FullName)]; ok {
			out[i].Pitch = p
		}
	}
	return out, nil
}

func (g *GeminiNarrator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func buildPrompt(profile domain.SkillProfile, recs []domain.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
你是一位熟悉开源社区的导师。一位开发者的技能画像如下：
语言: %s
框架: %s
兴趣: %s
经验等级: %s

下面是为他挑选的开源项目，请为每个项目写一句简短的推荐语（中文，不超过 60 字），
说明为什么这个项目适合他作为贡献的起点。

`, strings.Join(profile.Languages, ", "), strings.Join(profile.Frameworks, ", "),
		strings.Join(profile.Interests, ", "), profile.ExperienceLevel)

	for i, r := range recs {
		if i == maxNarrated {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%s, %d stars, 匹配度 %d): %s\n",
			i+1, r.Repository.FullName, r.Repository.Language, r.Repository.Stars, r.MatchScore, r.Repository.Description)
	}

	b.WriteString(`
请严格按照 JSON 格式返回：{"pitches": [{"full_name": "owner/repo", "pitch": "..."}]}
请直接返回 JSON，不要包含 Markdown 格式标记。
`)
	return b.String()
}

// parseAIResponse 从 AI 原文中抠出 JSON，返回 小写 full_name -> 推荐语
func parseAIResponse(raw string) (map[string]string, error) {
	// 即使 AI 返回 "```json { ... } ```"，也只取第一个 { 到最后一个 } 之间的内容
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("无法提取 JSON, AI 原文: %s", raw)
	}

	var res aiResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &res); err != nil {
		return nil, fmt.Errorf("JSON 解析失败: %w", err)
	}

	out := make(map[string]string, len(res.Pitches))
	for _, p := range res.Pitches {
		if p.FullName == "" || strings.TrimSpace(p.Pitch) == "" {
			continue
		}
		out[strings.ToLower(p.FullName)] = strings.TrimSpace(p.Pitch)
	}
	return out, nil
}
