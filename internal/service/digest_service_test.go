package service

import (
	"context"
	"errors"
	"testing"

	"contribuddy/internal/adapter/repository"
	"contribuddy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func digestGitHub() *MockGitHub {
	gh := new(MockGitHub)
	gh.On("ListUserRepos", mock.Anything, "octo", ownerOpts).Return([]domain.Repository{repo(1, "octo/tool", "Go", 0)}, nil)
	gh.On("ListStarred", mock.Anything, 100).Return([]domain.Repository{}, nil)
	gh.On("ListFollowing", mock.Anything, 100).Return([]string{}, nil)
	gh.On("ListPublicEvents", mock.Anything, "octo", 100).Return([]domain.Event{}, nil)
	gh.On("SearchRepositories", mock.Anything, mock.Anything, 50).Return([]domain.Repository{
		repo(10, "a/a", "Go", 100), repo(11, "b/b", "Go", 100),
	}, nil)
	gh.On("ListOpenIssues", mock.Anything, mock.Anything, mock.Anything, mock.Anything, 20).Return([]domain.Issue{}, nil)
	return gh
}

func newDigest(gh *MockGitHub, notifier *MockNotifier) (*DigestService, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	p := provider(gh)
	skills := NewSkillService(p, nil, store, nil)
	recs := NewRecommendationService(p, nil, nil, nil)
	if notifier == nil {
		return NewDigestService(skills, recs, store, nil, nil), store
	}
	return NewDigestService(skills, recs, store, notifier, nil), store
}

func TestDigestService_ExecuteDigestCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("只推送没推送过的项目", func(t *testing.T) {
		notifier := new(MockNotifier)
		notifier.On("NotifyDigest", mock.Anything, "octo", mock.MatchedBy(func(recs []domain.Recommendation) bool {
			return len(recs) == 2
		})).Return(nil).Once()

		d, store := newDigest(digestGitHub(), notifier)
		res, err := d.ExecuteDigestCycle(ctx, "tok", "octo", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Notified)

		_, seen, _ := store.Get(ctx, notifiedKey("octo", 10))
		assert.True(t, seen)

		res, err = d.ExecuteDigestCycle(ctx, "tok", "octo", 2)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Notified)
		assert.Equal(t, 2, res.Skipped)
		notifier.AssertExpectations(t)
	})

	t.Run("推送失败不标记", func(t *testing.T) {
		notifier := new(MockNotifier)
		notifier.On("NotifyDigest", mock.Anything, "octo", mock.Anything).Return(errors.New("webhook down"))

		d, store := newDigest(digestGitHub(), notifier)
		_, err := d.ExecuteDigestCycle(ctx, "tok", "octo", 0)
		assert.Error(t, err)

		_, seen, _ := store.Get(ctx, notifiedKey("octo", 10))
		assert.False(t, seen)
	})

	t.Run("没有通知通道", func(t *testing.T) {
		d, _ := newDigest(digestGitHub(), nil)
		res, err := d.ExecuteDigestCycle(ctx, "tok", "octo", 0)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Candidates)
		assert.Equal(t, 0, res.Notified)
	})

	t.Run("分析失败", func(t *testing.T) {
		gh := new(MockGitHub)
		gh.On("ListUserRepos", mock.Anything, "octo", ownerOpts).Return(nil, errors.New("boom"))

		d, _ := newDigest(gh, nil)
		_, err := d.ExecuteDigestCycle(ctx, "tok", "octo", 0)
		assert.Error(t, err)
	})
}
