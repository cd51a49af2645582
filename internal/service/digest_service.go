package service

import (
	"context"
	"time"

	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/port"
)

const (
	defaultNotifiedTTL = 30 * 24 * time.Hour
	maxDigestItems     = 5
)

// DigestResult 一轮推送的结果
type DigestResult struct {
	Candidates int `json:"candidates"`
	Skipped    int `json:"skipped"`
	Notified   int `json:"notified"`
}

type expirer interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// DigestService 定时为用户计算个性化推荐，把没推送过的项目推到飞书
type DigestService struct {
	skills      *SkillService
	recommender *RecommendationService
	store       port.KVStore
	notifier    port.Notifier
	log         *logger.Logger
	notifiedTTL time.Duration
}

func NewDigestService(skills *SkillService, recommender *RecommendationService, store port.KVStore, notifier port.Notifier, log *logger.Logger) *DigestService {
	if log == nil {
		log = logger.NewNop()
	}
	return &DigestService{
		skills:      skills,
		recommender: recommender,
		store:       store,
		notifier:    notifier,
		log:         log.With("service", "DigestService"),
		notifiedTTL: defaultNotifiedTTL,
	}
}

// SetNotifiedTTL 已推送记录的保留时间
func (d *DigestService) SetNotifiedTTL(ttl time.Duration) {
	if ttl > 0 {
		d.notifiedTTL = ttl
	}
}

// ExecuteDigestCycle 执行一轮推送
func (d *DigestService) ExecuteDigestCycle(ctx context.Context, token, login string, concurrency int) (*DigestResult, error) {
	if concurrency > 0 {
		d.recommender.analyzer.SetMaxGoroutines(concurrency)
	}
	log := d.log.With("login", login)
	log.Info("🚀 开始生成推荐摘要")

	if s, ok := d.store.(expirer); ok {
		if n, err := s.PurgeExpired(ctx); err != nil {
			log.Warn("⚠️ 清理过期记录失败", "error", err)
		} else if n > 0 {
			log.Debug("清理过期记录", "count", n)
		}
	}

	profile, err := d.skills.ProfileFor(ctx, 0, token, login)
	if err != nil {
		return nil, err
	}
	if profile.ExperienceLevel == "" {
		profile.ExperienceLevel = domain.LevelBeginner
	}
	log.Info("📊 技能画像", "languages", profile.Languages, "interests", profile.Interests, "level", profile.ExperienceLevel)

	recs, err := d.recommender.GetPersonalizedRecommendations(ctx, token, login, profile, nil)
	if err != nil {
		return nil, err
	}

	result := &DigestResult{Candidates: len(recs)}
	var fresh []domain.Recommendation
	for _, r := range recs {
		if err := ctx.Err(); err != nil {
			log.Warn("⏰ 执行时间过长，提前结束")
			return result, err
		}
		_, seen, err := d.store.Get(ctx, notifiedKey(login, r.Repository.ID))
		if err != nil {
			log.Warn("❌ 检查推送记录失败，跳过", "repo", r.Repository.FullName, "error", err)
			continue
		}
		if seen {
			result.Skipped++
			continue
		}
		fresh = append(fresh, r)
		if len(fresh) == maxDigestItems {
			break
		}
	}

	if len(fresh) == 0 {
		log.Info("⏭️ 没有新的推荐", "skipped", result.Skipped)
		return result, nil
	}
	if d.notifier == nil {
		log.Warn("⚠️ 未配置通知通道，跳过推送", "count", len(fresh))
		return result, nil
	}

	if err := d.notifier.NotifyDigest(ctx, login, fresh); err != nil {
		return result, err
	}

	for _, r := range fresh {
		if err := d.store.Set(ctx, notifiedKey(login, r.Repository.ID), []byte(time.Now().UTC().Format(time.RFC3339)), d.notifiedTTL); err != nil {
			log.Warn("⚠️ 标记已推送失败", "repo", r.Repository.FullName, "error", err)
			continue
		}
		result.Notified++
	}

	log.Info("🎉 本轮推送完成", "notified", result.Notified, "skipped", result.Skipped)
	return result, nil
}
