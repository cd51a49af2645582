package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"contribuddy/internal/adapter/analyzer"
	"contribuddy/internal/adapter/feishu"
	"contribuddy/internal/adapter/gemini"
	"contribuddy/internal/adapter/github"
	"contribuddy/internal/adapter/repository"
	"contribuddy/internal/domain"
	"contribuddy/internal/handler"
	"contribuddy/internal/middleware"
	"contribuddy/internal/pkg/config"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/port"
	"contribuddy/internal/service"
)

// options 命令行参数
type options struct {
	mode        string
	user        string
	languages   string
	interests   string
	level       string
	interval    int
	concurrency int
	configPath  string
}

func main() {
	// 1. 定义命令行参数
	opts := options{}
	flag.StringVar(&opts.mode, "mode", "serve", "运行模式: serve (HTTP 服务) / recommend (推荐) / skills (技能分析) / history (贡献历史) / digest (推送摘要)")
	flag.StringVar(&opts.user, "user", "", "GitHub 用户名 (skills / history / digest 模式使用)")
	flag.StringVar(&opts.languages, "languages", "", "逗号分隔的语言列表 (recommend 模式)")
	flag.StringVar(&opts.interests, "interests", "", "逗号分隔的兴趣主题 (recommend 模式)")
	flag.StringVar(&opts.level, "level", "beginner", "经验水平: beginner / intermediate / advanced")
	flag.IntVar(&opts.interval, "interval", 0, "digest 模式的定时执行间隔（分钟），0表示只执行一次")
	flag.IntVar(&opts.concurrency, "concurrency", 3, "Issue 拉取并发数")
	flag.StringVar(&opts.configPath, "config", "", "配置文件路径，为空时只读取环境变量")
	flag.Parse()

	switch opts.mode {
	case "serve", "recommend", "skills", "history", "digest":
	default:
		fmt.Println("❌ 未知模式，请使用 -mode=serve|recommend|skills|history|digest")
		os.Exit(2)
	}

	// 2. 加载配置与日志
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatalf("❌ 配置加载失败: %v", err)
	}
	lg, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("❌ 日志初始化失败: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 初始化依赖
	a, cleanup, err := buildApp(ctx, cfg, lg, opts.concurrency)
	if err != nil {
		log.Fatalf("❌ 初始化失败: %v", err)
	}
	defer cleanup()

	// 4. 根据模式分流
	switch opts.mode {
	case "serve":
		err = runServer(ctx, a, cfg, lg)
	case "recommend":
		err = runRecommend(ctx, a, cfg.GitHub.Token, opts, os.Stdout)
	case "skills":
		err = runSkills(ctx, a, cfg.GitHub.Token, opts.user, os.Stdout)
	case "history":
		err = runHistory(ctx, a, cfg.GitHub.Token, opts.user, os.Stdout)
	case "digest":
		err = runDigest(ctx, a, cfg.GitHub.Token, opts)
	}
	if err != nil {
		lg.Error("运行失败", "mode", opts.mode, "error", err)
		cleanup()
		lg.Sync()
		os.Exit(1)
	}
}

// app 组装好的各个组件
type app struct {
	provider port.GitHubProvider
	store    port.KVStore
	oauth    *github.OAuth
	auth     *service.AuthService
	skills   *service.SkillService
	recs     *service.RecommendationService
	contrib  *service.ContributionService
	digest   *service.DigestService
}

func buildApp(ctx context.Context, cfg *config.Config, lg *logger.Logger, concurrency int) (*app, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				lg.Warn("关闭资源失败", "error", err)
			}
		}
	}

	store, closeStore, err := repository.Open(ctx, repository.Options{
		Backend:     cfg.Store.Backend,
		RedisAddr:   cfg.Store.RedisAddr,
		DatabaseURL: cfg.Store.DatabaseURL,
		KeyPrefix:   "contribuddy:",
	})
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, closeStore)

	provider, err := github.NewProvider(github.ProviderConfig{
		RPS:     cfg.GitHub.RPS,
		Burst:   cfg.GitHub.Burst,
		MaxWait: cfg.GitHub.MaxWait,
	})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	// 没有配置 Gemini Key 时不做 AI 润色，推荐理由保持规则生成的版本
	var narrator port.Narrator
	if cfg.AI.GeminiAPIKey != "" {
		gn, err := gemini.NewGeminiNarrator(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			lg.Warn("AI 初始化失败，跳过推荐理由润色", "error", err)
		} else {
			narrator = gn
			closers = append(closers, gn.Close)
		}
	}

	repoAnalyzer := analyzer.NewRepoAnalyzer(lg)
	repoAnalyzer.SetMaxGoroutines(concurrency)

	oauth := github.NewOAuth(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, callbackURL(cfg.Server.ServiceURL))
	skills := service.NewSkillService(provider, repoAnalyzer, store, lg)
	recs := service.NewRecommendationService(provider, repoAnalyzer, narrator, lg)

	return &app{
		provider: provider,
		store:    store,
		oauth:    oauth,
		auth:     service.NewAuthService(oauth, provider, store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, lg),
		skills:   skills,
		recs:     recs,
		contrib:  service.NewContributionService(provider, repoAnalyzer, lg),
		digest:   service.NewDigestService(skills, recs, store, feishu.NewNotifier(cfg.Notify.FeishuWebhook, lg), lg),
	}, cleanup, nil
}

// callbackURL OAuth 回调地址，serviceURL 为空时交给 OAuth App 的配置
func callbackURL(serviceURL string) string {
	if serviceURL == "" {
		return ""
	}
	return strings.TrimRight(serviceURL, "/") + "/auth/github/callback"
}

// newRouter 把服务挂到 HTTP 路由上
func newRouter(a *app, cfg *config.Config, lg *logger.Logger) http.Handler {
	serverToken := cfg.GitHub.Token
	return handler.NewRouter(handler.RouterConfig{
		Log:                   lg,
		AllowedOrigins:        cfg.Server.AllowedOrigins,
		RequestTimeout:        cfg.Server.RequestTimeout,
		AuthMiddleware:        middleware.NewAuthMiddleware(lg, a.auth),
		HealthHandler:         handler.NewHealthHandler(),
		AuthHandler:           handler.NewAuthHandler(lg, a.auth),
		SkillHandler:          handler.NewSkillHandler(lg, a.skills, a.auth),
		RecommendationHandler: handler.NewRecommendationHandler(lg, a.recs, a.skills, a.auth, serverToken),
		GitHubHandler:         handler.NewGitHubHandler(a.provider, a.recs, serverToken),
		ContributionHandler:   handler.NewContributionHandler(lg, a.contrib, a.auth),
	})
}

// --- HTTP 服务模式 ---
func runServer(ctx context.Context, a *app, cfg *config.Config, lg *logger.Logger) error {
	if !a.oauth.Configured() {
		lg.Warn("GitHub OAuth 未配置，登录接口将返回错误")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newRouter(a, cfg, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("🚀 ContriBuddy 服务启动", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("👋 收到停止信号，正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// --- 推荐模式逻辑 ---
func runRecommend(ctx context.Context, a *app, token string, opts options, out io.Writer) error {
	profile, err := parseProfile(opts.languages, opts.interests, opts.level)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var recs []domain.Recommendation
	if opts.user != "" {
		fmt.Fprintf(out, "🔍 正在为 %s 生成个性化推荐...\n", opts.user)
		recs, err = a.recs.GetPersonalizedRecommendations(ctx, token, opts.user, profile, nil)
	} else {
		fmt.Fprintln(out, "🔍 正在搜索适合你的开源项目...")
		recs, err = a.recs.GetRecommendations(ctx, token, profile, nil)
	}
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "📭 没有找到匹配的项目，换几个语言或主题试试。")
		return nil
	}
	return printJSON(out, recs)
}

// --- 技能分析模式逻辑 ---
func runSkills(ctx context.Context, a *app, token, user string, out io.Writer) error {
	if user == "" {
		return errors.New("skills 模式需要 -user 参数")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	fmt.Fprintf(out, "🧠 正在分析 %s 的技能画像...\n", user)
	analysis, err := a.skills.AnalyzeUserSkills(ctx, token, user)
	if err != nil {
		return err
	}
	return printJSON(out, analysis)
}

// --- 贡献历史模式逻辑 ---
func runHistory(ctx context.Context, a *app, token, user string, out io.Writer) error {
	if user == "" {
		return errors.New("history 模式需要 -user 参数")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	fmt.Fprintf(out, "📜 正在汇总 %s 的贡献历史...\n", user)
	history, err := a.contrib.GetContributionHistory(ctx, token, user)
	if err != nil {
		return err
	}
	return printJSON(out, history)
}

// --- 推送摘要模式逻辑 ---
func runDigest(ctx context.Context, a *app, token string, opts options) error {
	if opts.user == "" {
		return errors.New("digest 模式需要 -user 参数")
	}
	if opts.interval <= 0 {
		executeDigestCycle(ctx, a, token, opts.user, opts.concurrency)
		return nil
	}

	ticker := time.NewTicker(time.Duration(opts.interval) * time.Minute)
	defer ticker.Stop()

	fmt.Printf("⏰ 定时执行模式已启动，每 %d 分钟执行一次\n", opts.interval)
	fmt.Println("按下 Ctrl+C 可以优雅停止程序")

	// 立即执行一次
	executeDigestCycle(ctx, a, token, opts.user, opts.concurrency)

	for {
		select {
		case <-ticker.C:
			executeDigestCycle(ctx, a, token, opts.user, opts.concurrency)
		case <-ctx.Done():
			fmt.Println("\n👋 收到停止信号，正在退出...")
			return nil
		}
	}
}

// executeDigestCycle 执行一次推送周期，单次最长 5 分钟
func executeDigestCycle(ctx context.Context, a *app, token, user string, concurrency int) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	res, err := a.digest.ExecuteDigestCycle(ctx, token, user, concurrency)
	if err != nil {
		fmt.Printf("❌ 推送周期失败: %v\n", err)
		return
	}
	fmt.Printf("✅ 本轮完成: 候选 %d 个，跳过 %d 个，推送 %d 个\n", res.Candidates, res.Skipped, res.Notified)
}

// parseProfile 从命令行参数拼出技能画像
func parseProfile(languages, interests, level string) (domain.SkillProfile, error) {
	lvl, err := domain.ParseExperienceLevel(level)
	if err != nil {
		return domain.SkillProfile{}, err
	}
	profile := domain.SkillProfile{
		Languages:       splitList(languages),
		Frameworks:      []string{},
		Interests:       splitList(interests),
		ExperienceLevel: lvl,
	}
	if profile.IsEmpty() {
		return domain.SkillProfile{}, errors.New("请至少提供 -languages 或 -interests 之一")
	}
	return profile, nil
}

// splitList 按逗号切分，去掉空白项并转成小写
func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
