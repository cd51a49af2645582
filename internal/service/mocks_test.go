package service

import (
	"context"
	"time"

	"contribuddy/internal/domain"
	"contribuddy/internal/port"
	"contribuddy/internal/port/porttest"

	"github.com/stretchr/testify/mock"
)

type (
	MockGitHub   = porttest.MockGitHub
	MockNarrator = porttest.MockNarrator
	MockNotifier = porttest.MockNotifier
)

func provider(gh port.GitHub) *porttest.StaticProvider {
	return &porttest.StaticProvider{GitHub: gh}
}

type MockOAuth struct {
	mock.Mock
}

func (m *MockOAuth) AuthorizeURL(state string) (string, error) {
	args := m.Called(state)
	return args.String(0), args.Error(1)
}

func (m *MockOAuth) Exchange(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func repo(id int64, fullName, lang string, stars int, topics ...string) domain.Repository {
	owner, name, _ := domain.SplitFullName(fullName)
	if topics == nil {
		topics = []string{}
	}
	return domain.Repository{
		ID:        id,
		Name:      name,
		FullName:  fullName,
		Language:  lang,
		Stars:     stars,
		Topics:    topics,
		Owner:     domain.Owner{Login: owner},
		UpdatedAt: time.Now(),
	}
}
