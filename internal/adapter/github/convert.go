package github

import (
	"strings"
	"time"

	"contribuddy/internal/domain"

	"github.com/google/go-github/v53/github"
)

func toRepository(r *github.Repository) domain.Repository {
	topics := r.Topics
	if topics == nil {
		topics = []string{}
	}
	return domain.Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.GetDescription(),
		HTMLURL:     r.GetHTMLURL(),
		Language:    r.GetLanguage(),
		Topics:      topics,
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		OpenIssues:  r.GetOpenIssuesCount(),
		Size:        r.GetSize(),
		Owner: domain.Owner{
			Login:     r.GetOwner().GetLogin(),
			AvatarURL: r.GetOwner().GetAvatarURL(),
			Type:      r.GetOwner().GetType(),
		},
		UpdatedAt:     r.GetUpdatedAt().Time,
		PushedAt:      r.GetPushedAt().Time,
		DefaultBranch: r.GetDefaultBranch(),
		License:       r.GetLicense().GetSPDXID(),
		Fork:          r.GetFork(),
	}
}

func toRepositories(in []*github.Repository) []domain.Repository {
	out := make([]domain.Repository, 0, len(in))
	for _, r := range in {
		if r == nil {
			continue
		}
		out = append(out, toRepository(r))
	}
	return out
}

func toIssue(i *github.Issue) domain.Issue {
	labels := make([]domain.Label, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, domain.Label{
			Name:        l.GetName(),
			Color:       l.GetColor(),
			Description: l.GetDescription(),
		})
	}
	return domain.Issue{
		ID:        i.GetID(),
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		HTMLURL:   i.GetHTMLURL(),
		State:     i.GetState(),
		Labels:    labels,
		User:      i.GetUser().GetLogin(),
		Comments:  i.GetComments(),
		CreatedAt: i.GetCreatedAt().Time,
		UpdatedAt: i.GetUpdatedAt().Time,
	}
}

func toGitHubUser(u *github.User) *domain.GitHubUser {
	return &domain.GitHubUser{
		ID:          u.GetID(),
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		Email:       u.GetEmail(),
		AvatarURL:   u.GetAvatarURL(),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   u.GetCreatedAt().Time,
	}
}

// repoFromAPIURL 从 "https://api.github.com/repos/{owner}/{repo}" 中取出 owner/repo
func repoFromAPIURL(apiURL string) string {
	_, after, ok := strings.Cut(apiURL, "/repos/")
	if !ok {
		return ""
	}
	return strings.TrimSuffix(after, "/")
}

func labelNames(labels []*github.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.GetName())
	}
	return names
}

func optionalTime(ts github.Timestamp) *time.Time {
	if ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}
