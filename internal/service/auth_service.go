package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"contribuddy/internal/common"
	"contribuddy/internal/domain"
	"contribuddy/internal/pkg/logger"
	"contribuddy/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OAuthExchanger GitHub OAuth 授权码流程
type OAuthExchanger interface {
	AuthorizeURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (string, error)
}

// Claims JWT 载荷
type Claims struct {
	UserID   int64  `json:"userId"`
	GitHubID int64  `json:"githubId"`
	Login    string `json:"login"`
	jwt.RegisteredClaims
}

// LoginResult 登录成功后返回给前端的数据
type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// AuthService 负责 OAuth 登录、JWT 签发与用户/令牌存储
type AuthService struct {
	oauth   OAuthExchanger
	github  port.GitHubProvider
	store   port.KVStore
	secret  []byte
	ttl     time.Duration
	log     *logger.Logger
	nowFunc func() time.Time
}

func NewAuthService(oauth OAuthExchanger, github port.GitHubProvider, store port.KVStore, secret string, ttl time.Duration, log *logger.Logger) *AuthService {
	if log == nil {
		log = logger.NewNop()
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &AuthService{
		oauth:   oauth,
		github:  github,
		store:   store,
		secret:  []byte(secret),
		ttl:     ttl,
		log:     log.With("service", "AuthService"),
		nowFunc: time.Now,
	}
}

// AuthorizeURL 生成授权地址和随机 state
func (s *AuthService) AuthorizeURL() (string, string, error) {
	state := uuid.NewString()
	url, err := s.oauth.AuthorizeURL(state)
	if err != nil {
		return "", "", err
	}
	return url, state, nil
}

// Login 用授权码换取令牌，写入用户与令牌，签发 JWT
func (s *AuthService) Login(ctx context.Context, code string) (*LoginResult, error) {
	accessToken, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	ghUser, err := s.github.ForToken(accessToken).AuthenticatedUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取 GitHub 用户失败: %w", err)
	}

	user, err := s.upsertUser(ctx, ghUser)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, tokenKey(user.ID), []byte(accessToken), s.ttl); err != nil {
		return nil, common.WrapError(common.ErrCodeDatabase, "保存访问令牌失败", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("用户登录", "login", user.Login, "userId", user.ID)
	return &LoginResult{Token: token, User: user}, nil
}

// upsertUser 用户 ID 直接取 GitHub ID，已存在时保留创建时间
func (s *AuthService) upsertUser(ctx context.Context, gh *domain.GitHubUser) (*domain.User, error) {
	now := s.nowFunc()
	user := &domain.User{
		ID:          gh.ID,
		GitHubID:    gh.ID,
		Login:       gh.Login,
		Name:        gh.Name,
		Email:       gh.Email,
		AvatarURL:   gh.AvatarURL,
		Bio:         gh.Bio,
		PublicRepos: gh.PublicRepos,
		Followers:   gh.Followers,
		Following:   gh.Following,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var existing domain.User
	found, err := getJSON(ctx, s.store, userKey(user.ID), &existing)
	if err != nil {
		return nil, err
	}
	if found {
		user.CreatedAt = existing.CreatedAt
	}

	if err := setJSON(ctx, s.store, userKey(user.ID), user, 0); err != nil {
		return nil, err
	}
	return user, nil
}

// IssueToken 签发 HS256 JWT
func (s *AuthService) IssueToken(user *domain.User) (string, error) {
	now := s.nowFunc()
	claims := Claims{
		UserID:   user.ID,
		GitHubID: user.GitHubID,
		Login:    user.Login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", common.WrapError(common.ErrCodeInternal, "签发令牌失败", err)
	}
	return signed, nil
}

// ParseToken 校验 JWT 并返回载荷
func (s *AuthService) ParseToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, common.NewStatusError(common.ErrCodeNotAuthenticated, http.StatusUnauthorized, "Access token required", nil)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.nowFunc),
	)
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "Token expired"
		}
		return nil, common.NewStatusError(common.ErrCodeNotAuthenticated, http.StatusUnauthorized, msg, err)
	}
	return claims, nil
}

// CurrentUser 读取已登录用户
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	var user domain.User
	found, err := getJSON(ctx, s.store, userKey(userID), &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, common.NewStatusError(common.ErrCodeNotFound, http.StatusNotFound, "User not found", nil)
	}
	return &user, nil
}

// AccessToken 读取用户的 GitHub 访问令牌
func (s *AuthService) AccessToken(ctx context.Context, userID int64) (string, bool, error) {
	raw, ok, err := s.store.Get(ctx, tokenKey(userID))
	if err != nil {
		return "", false, common.WrapError(common.ErrCodeDatabase, "读取访问令牌失败", err)
	}
	if !ok || len(raw) == 0 {
		return "", false, nil
	}
	return string(raw), true, nil
}

// Logout 删除保存的访问令牌
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.store.Delete(ctx, tokenKey(userID)); err != nil {
		return common.WrapError(common.ErrCodeDatabase, "删除访问令牌失败", err)
	}
	s.log.Info("用户登出", "userId", userID)
	return nil
}
