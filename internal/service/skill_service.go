package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"contribuddy/internal/adapter/analyzer"
	"contribuddy/internal/common"
	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/port"

	"golang.org/x/sync/errgroup"
)

const (
	skillReposPerPage = 100
	defaultFetchLimit = 5
)

// AnalysisStatus 缓存分析的状态
type AnalysisStatus struct {
	HasGitHubToken bool                 `json:"hasGitHubToken"`
	HasAnalysis    bool                 `json:"hasAnalysis"`
	LastAnalyzedAt *time.Time           `json:"lastAnalyzedAt"`
	GitHubUser     *domain.AnalyzedUser `json:"githubUser"`
}

// SkillService 从用户的仓库推断技能画像
type SkillService struct {
	github     port.GitHubProvider
	analyzer   *analyzer.RepoAnalyzer
	store      port.KVStore
	log        *logger.Logger
	fetchLimit int
	nowFunc    func() time.Time
}

// NewSkillService store 为 nil 时只能调用 AnalyzeUserSkills
func NewSkillService(github port.GitHubProvider, a *analyzer.RepoAnalyzer, store port.KVStore, log *logger.Logger) *SkillService {
	if log == nil {
		log = logger.NewNop()
	}
	if a == nil {
		a = analyzer.NewRepoAnalyzer(log)
	}
	return &SkillService{
		github:     github,
		analyzer:   a,
		store:      store,
		log:        log.With("service", "SkillService"),
		fetchLimit: defaultFetchLimit,
		nowFunc:    time.Now,
	}
}

// SetFetchLimit 设置同时拉取仓库明细的数量
func (s *SkillService) SetFetchLimit(n int) {
	if n > 0 {
		s.fetchLimit = n
	}
}

// AnalyzeUserSkills 分析指定用户的技能
// 列出仓库失败直接返回错误，单个仓库的语言或依赖获取失败只记录日志
func (s *SkillService) AnalyzeUserSkills(ctx context.Context, token, login string) (*domain.SkillAnalysis, error) {
	gh := s.github.ForToken(token)

	repos, err := gh.ListUserRepos(ctx, login, port.RepoListOptions{Type: "owner", Sort: "updated", PerPage: skillReposPerPage})
	if err != nil {
		return nil, fmt.Errorf("获取 %s 的仓库失败: %w", login, err)
	}
	if len(repos) == 0 {
		s.log.Info("用户没有仓库", "login", login)
		return analyzer.EmptyAnalysis(), nil
	}

	evidence := make([]analyzer.RepoEvidence, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchLimit)
	for i, repo := range repos {
		i, repo := i, repo
		evidence[i].Repo = repo
		g.Go(func() error {
			evidence[i].Languages, evidence[i].Dependencies = s.repoDetails(gctx, gh, repo, login)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis := s.analyzer.AnalyzeSkills(evidence)
	s.log.Info("技能分析完成", "login", login, "repos", len(repos),
		"languages", len(analysis.Languages), "frameworks", len(analysis.Frameworks), "level", analysis.ExperienceLevel)
	return analysis, nil
}

func (s *SkillService) repoDetails(ctx context.Context, gh port.GitHub, repo domain.Repository, login string) (map[string]int, []string) {
	owner := repo.Owner.Login
	if owner == "" {
		owner = login
	}

	var langs map[string]int
	if analyzer.NeedsLanguageBreakdown(repo) {
		l, err := gh.ListLanguages(ctx, owner, repo.Name)
		if err != nil {
			s.log.Debug("获取语言明细失败", "repo", repo.FullName, "error", err)
		} else {
			langs = l
		}
	}

	path := analyzer.ManifestPath(repo.Language)
	if path == "" {
		return langs, nil
	}
	content, err := gh.GetFileContent(ctx, owner, repo.Name, path)
	if err != nil {
		if !common.IsNotFound(err) {
			s.log.Debug("获取依赖文件失败", "repo", repo.FullName, "path", path, "error", err)
		}
		return langs, nil
	}
	deps, err := analyzer.ParseManifest(path, content)
	if err != nil {
		s.log.Debug("解析依赖文件失败", "repo", repo.FullName, "path", path, "error", err)
		return langs, nil
	}
	return langs, deps
}

// AnalyzeAndStore 分析令牌所属用户并缓存结果
func (s *SkillService) AnalyzeAndStore(ctx context.Context, userID int64, token string) (*domain.StoredAnalysis, error) {
	user, err := s.github.ForToken(token).AuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取当前 GitHub 用户失败: %w", err)
	}

	analysis, err := s.AnalyzeUserSkills(ctx, token, user.Login)
	if err != nil {
		return nil, err
	}

	stored := &domain.StoredAnalysis{
		SkillAnalysis: *analysis,
		AnalyzedAt:    s.nowFunc(),
		GitHubUser: domain.AnalyzedUser{
			Login:     user.Login,
			Name:      user.Name,
			AvatarURL: user.AvatarURL,
		},
	}
	if err := setJSON(ctx, s.store, analysisKey(userID), stored, 0); err != nil {
		return nil, err
	}
	return stored, nil
}

// GetStored 读取缓存的分析，不存在时返回 nil
func (s *SkillService) GetStored(ctx context.Context, userID int64) (*domain.StoredAnalysis, error) {
	var stored domain.StoredAnalysis
	found, err := getJSON(ctx, s.store, analysisKey(userID), &stored)
	if err != nil || !found {
		return nil, err
	}
	return &stored, nil
}

// DeleteStored 删除缓存的分析，返回删除前是否存在
func (s *SkillService) DeleteStored(ctx context.Context, userID int64) (bool, error) {
	_, found, err := s.store.Get(ctx, analysisKey(userID))
	if err != nil {
		return false, common.WrapError(common.ErrCodeDatabase, "读取存储失败", err)
	}
	if !found {
		return false, nil
	}
	if err := s.store.Delete(ctx, analysisKey(userID)); err != nil {
		return false, common.WrapError(common.ErrCodeDatabase, "删除分析结果失败", err)
	}
	return true, nil
}

// Status 是否存在缓存的分析，HasGitHubToken 由调用方填写
func (s *SkillService) Status(ctx context.Context, userID int64) (AnalysisStatus, error) {
	stored, err := s.GetStored(ctx, userID)
	if err != nil {
		return AnalysisStatus{}, err
	}
	if stored == nil {
		return AnalysisStatus{}, nil
	}
	at, user := stored.AnalyzedAt, stored.GitHubUser
	return AnalysisStatus{HasAnalysis: true, LastAnalyzedAt: &at, GitHubUser: &user}, nil
}

// ProfileFor 优先使用缓存的分析，没有时现场分析
func (s *SkillService) ProfileFor(ctx context.Context, userID int64, token, login string) (domain.SkillProfile, error) {
	if s.store != nil && userID != 0 {
		stored, err := s.GetStored(ctx, userID)
		if err != nil {
			s.log.Warn("读取缓存分析失败", "userId", userID, "error", err)
		} else if stored != nil {
			return stored.Profile(), nil
		}
	}

	if login == "" {
		return domain.SkillProfile{}, common.NewStatusError(common.ErrCodeInvalidInput, http.StatusBadRequest, "login is required", nil)
	}
	analysis, err := s.AnalyzeUserSkills(ctx, token, login)
	if err != nil {
		return domain.SkillProfile{}, err
	}
	return analysis.Profile(), nil
}
