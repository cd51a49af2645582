package analyzer

import (
	"math"
	"sort"
	"time"

	"contribuddy/internal/domain"
)

const (
	maxTopEntries  = 10
	activityMonths = 12
	recentWindow   = 30 * 24 * time.Hour
)

// ContributionStats 由 PR、issue、commit 推导统计，结果只依赖输入与当前时间
func (a *RepoAnalyzer) ContributionStats(prs []domain.PullRequest, issues []domain.IssueRecord, commits []domain.Commit) domain.ContributionStats {
	now := a.now()

	languages, repos := newCounter(), newCounter()
	count := func(ref domain.RepoRef) {
		if ref.Language != "" {
			languages.add(ref.Language, 1)
		}
		repos.add(ref.FullName, 1)
	}
	for _, pr := range prs {
		count(pr.Repository)
	}
	for _, is := range issues {
		count(is.Repository)
	}
	for _, c := range commits {
		count(c.Repository)
	}

	stats := domain.ContributionStats{
		TopLanguages:    []domain.LanguageCount{},
		TopRepositories: []domain.RepositoryCount{},
		MonthlyActivity: monthlyActivity(prs, issues, commits, now),
	}
	for _, e := range languages.top(maxTopEntries) {
		stats.TopLanguages = append(stats.TopLanguages, domain.LanguageCount{Language: e.key, Count: int(e.score)})
	}
	for _, e := range repos.top(maxTopEntries) {
		stats.TopRepositories = append(stats.TopRepositories, domain.RepositoryCount{Repository: e.key, Count: int(e.score)})
	}

	prLines := 0
	for _, pr := range prs {
		stats.TotalAdditions += pr.Additions
		stats.TotalDeletions += pr.Deletions
		prLines += pr.Additions + pr.Deletions
	}
	for _, c := range commits {
		if c.Stats != nil {
			stats.TotalAdditions += c.Stats.Additions
			stats.TotalDeletions += c.Stats.Deletions
		}
	}
	if len(prs) > 0 {
		stats.AveragePRSize = float64(prLines) / float64(len(prs))
	}

	dates := contributionTimes(prs, issues, commits)
	stats.ContributionStreak = Streak(dates, now)
	if len(dates) > 0 {
		first := dates[0]
		for _, d := range dates[1:] {
			if d.Before(first) {
				first = d
			}
		}
		stats.FirstContribution = &first
	}
	if len(stats.TopRepositories) > 0 {
		most := stats.TopRepositories[0].Repository
		stats.MostActiveRepository = &most
	}
	return stats
}

// Summarize 汇总数量与最近 30 天的活跃度
func (a *RepoAnalyzer) Summarize(prs []domain.PullRequest, issues []domain.IssueRecord, commits []domain.Commit) domain.ContributionSummary {
	s := domain.ContributionSummary{
		TotalContributions: len(prs) + len(issues) + len(commits),
		PullRequests:       len(prs),
		Issues:             len(issues),
		Commits:            len(commits),
	}
	for _, pr := range prs {
		if pr.MergedAt != nil {
			s.MergedPRs++
		}
	}
	for _, is := range issues {
		if is.State == "closed" {
			s.ClosedIssues++
		}
	}

	cutoff := a.now().Add(-recentWindow)
	recent := 0
	for _, t := range contributionTimes(prs, issues, commits) {
		if !t.Before(cutoff) {
			recent++
		}
	}
	s.RecentActivity = activityLabel(recent, 5, 15)
	return s
}

// monthlyActivity 最近 12 个月的 UTC 月度桶，只统计一年以内的记录
func monthlyActivity(prs []domain.PullRequest, issues []domain.IssueRecord, commits []domain.Commit, now time.Time) []domain.MonthlyActivity {
	utc := now.UTC()
	anchor := time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)

	buckets := make([]domain.MonthlyActivity, 0, activityMonths)
	index := make(map[string]int, activityMonths)
	for i := activityMonths - 1; i >= 0; i-- {
		key := anchor.AddDate(0, -i, 0).Format("2006-01")
		index[key] = len(buckets)
		buckets = append(buckets, domain.MonthlyActivity{Month: key})
	}

	cutoff := now.AddDate(-1, 0, 0)
	bucket := func(t time.Time) *domain.MonthlyActivity {
		if t.Before(cutoff) {
			return nil
		}
		if i, ok := index[t.UTC().Format("2006-01")]; ok {
			return &buckets[i]
		}
		return nil
	}
	for _, pr := range prs {
		if b := bucket(pr.CreatedAt); b != nil {
			b.PullRequests++
		}
	}
	for _, is := range issues {
		if b := bucket(is.CreatedAt); b != nil {
			b.Issues++
		}
	}
	for _, c := range commits {
		if b := bucket(c.CreatedAt); b != nil {
			b.Commits++
		}
	}
	for i := range buckets {
		buckets[i].Total = buckets[i].PullRequests + buckets[i].Issues + buckets[i].Commits
	}
	return buckets
}

// Streak 连续贡献天数。日期按 now 所在时区取自然日并倒序排列，
// 从 now 开始，只要与游标的天数差不超过 streak+1 就继续累加。
func Streak(times []time.Time, now time.Time) int {
	loc := now.Location()
	seen := make(map[time.Time]struct{})
	days := make([]time.Time, 0, len(times))
	for _, t := range times {
		lt := t.In(loc)
		day := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 0
	cursor := now
	for _, day := range days {
		diff := int(math.Floor(cursor.Sub(day).Hours() / 24))
		if diff > streak+1 {
			break
		}
		streak++
		cursor = day
	}
	return streak
}

func contributionTimes(prs []domain.PullRequest, issues []domain.IssueRecord, commits []domain.Commit) []time.Time {
	out := make([]time.Time, 0, len(prs)+len(issues)+len(commits))
	for _, pr := range prs {
		out = append(out, pr.CreatedAt)
	}
	for _, is := range issues {
		out = append(out, is.CreatedAt)
	}
	for _, c := range commits {
		out = append(out, c.CreatedAt)
	}
	return out
}
