package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vetlinks/backend/config"
	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/model"
	"vetlinks/backend/internal/repository"
	pkgerrors "vetlinks/backend/pkg/errors"
	"vetlinks/backend/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrUsernameTaken      = pkgerrors.New(pkgerrors.ErrDuplicate, "用户名已被占用")
	ErrInvalidCredentials = pkgerrors.New(pkgerrors.ErrUnauthenticated, "用户名或密码错误")
	ErrDepartmentMismatch = pkgerrors.New(pkgerrors.ErrForbidden, "无权登录该部门")
	ErrTokenInvalid       = pkgerrors.New(pkgerrors.ErrUnauthenticated, "Token 无效或已过期")
	ErrTokenRevoked       = pkgerrors.New(pkgerrors.ErrUnauthenticated, "Token 已失效")
	ErrPasswordTooLong    = pkgerrors.New(pkgerrors.ErrValidation, "密码长度不能超过 72 字节")
)

// maxPasswordBytes bcrypt 可处理的最大密码字节数
const maxPasswordBytes = 72

// dummyHash 用户不存在时参与一次 bcrypt 比较，使两种失败耗时接近
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("vetlinks-dummy-password"), bcrypt.DefaultCost)

// TokenCache 活跃 Token 缓存（由 Redis 实现，可为 nil）
type TokenCache interface {
	SetActiveToken(ctx context.Context, userID uint, jti string, ttl time.Duration) error
	GetActiveToken(ctx context.Context, userID uint) (string, bool, error)
	DeleteActiveToken(ctx context.Context, userID uint) error
}

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error)
	Login(ctx context.Context, req *dto.SignInRequest) (*dto.SignInResponse, error)
	Logout(ctx context.Context, userID uint) error
	// ValidateToken 校验 Bearer Token 签名、有效期，以及是否仍是该用户的当前 Token
	ValidateToken(ctx context.Context, raw string) (*jwt.Claims, error)
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	cache  TokenCache
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	cache TokenCache,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		cache:  cache,
		logger: logger,
	}
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	// 1. 用户名唯一性（区分大小写）
	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 密码哈希（按字节计长，binding 的 max 按字符计）
	if len(req.Password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	accountType := s.cfg.Auth.DefaultAccountType
	if accountType == "" {
		accountType = model.DefaultAccountType
	}
	if req.AccountType != nil && *req.AccountType != "" {
		accountType = *req.AccountType
	}

	user := &model.User{
		Username:               req.Username,
		PasswordHash:           string(hash),
		AccountType:            accountType,
		Email:                  req.Email,
		PhoneNumber:            req.PhoneNumber,
		Address:                req.Address,
		Name:                   req.Name,
		Gender:                 req.Gender,
		DOB:                    req.DOB,
		Qualification:          req.Qualification,
		VCNNumber:              req.VCNNumber,
		SpecializationCategory: req.SpecializationCategory,
		University:             req.University,
		State:                  req.State,
	}

	// 3. 创建用户并签发 Token（同一事务）
	var issued *model.AuthToken
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			// 并发注册同名用户时由唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrUsernameTaken
			}
			return err
		}
		var err error
		issued, err = s.issueToken(ctx, tx, user)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrUsernameTaken) {
			s.logger.Error("注册用户失败", zap.String("username", req.Username), zap.Error(err))
		}
		return nil, err
	}

	s.cacheToken(ctx, user.ID, issued.TokenID)
	s.logger.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("account_type", user.AccountType))

	return &dto.SignUpResponse{Token: issued.Token}, nil
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.SignInRequest) (*dto.SignInResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 部门必须与账号类型完全一致
	if user.AccountType != req.Department {
		return nil, ErrDepartmentMismatch
	}

	// 4. 复用或签发 Token
	var issued *model.AuthToken
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		issued, err = s.issueToken(ctx, tx, user)
		return err
	})
	if err != nil {
		s.logger.Error("签发 Token 失败", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	s.cacheToken(ctx, user.ID, issued.TokenID)

	return &dto.SignInResponse{Token: issued.Token, ID: user.ID}, nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, userID uint) error {
	if err := s.repo.Token.DeleteByUserID(ctx, userID); err != nil {
		s.logger.Error("删除 Token 失败", zap.Uint("user_id", userID), zap.Error(err))
		return err
	}
	s.evictToken(ctx, userID)
	return nil
}

// ────────────────────── ValidateToken ──────────────────────

func (s *authService) ValidateToken(ctx context.Context, raw string) (*jwt.Claims, error) {
	claims, err := s.jwtMgr.ParseToken(raw)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	// 1. 缓存命中且一致
	if s.cache != nil {
		jti, found, err := s.cache.GetActiveToken(ctx, claims.UserID)
		if err != nil {
			s.logger.Warn("读取 Token 缓存失败，回退数据库", zap.Error(err))
		} else if found && jti == claims.ID {
			return claims, nil
		}
	}

	// 2. 以数据库为准
	stored, err := s.repo.Token.GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenRevoked
		}
		s.logger.Error("查询 Token 失败", zap.Error(err))
		return nil, err
	}
	if stored.TokenID != claims.ID {
		return nil, ErrTokenRevoked
	}

	s.cacheToken(ctx, claims.UserID, stored.TokenID)
	return claims, nil
}

// ────────────────────── 辅助方法 ──────────────────────

// issueToken get-or-create：已有且仍有效的 Token 原样复用，否则签发新 Token 并替换
func (s *authService) issueToken(ctx context.Context, repo *repository.Repository, user *model.User) (*model.AuthToken, error) {
	existing, err := repo.Token.GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		if claims, perr := s.jwtMgr.ParseToken(existing.Token); perr == nil &&
			claims.ID == existing.TokenID && claims.UserID == user.ID {
			return existing, nil
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	signed, claims, err := s.jwtMgr.GenerateToken(user.ID, user.AccountType)
	if err != nil {
		return nil, err
	}
	token := &model.AuthToken{
		UserID:    user.ID,
		Token:     signed,
		TokenID:   claims.ID,
		CreatedAt: time.Now(),
	}

	if existing == nil {
		return repo.Token.CreateIfAbsent(ctx, token)
	}
	// 原 Token 已过期或无法解析（如密钥轮换），整体替换
	if err := repo.Token.Upsert(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *authService) cacheToken(ctx context.Context, userID uint, jti string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetActiveToken(ctx, userID, jti, s.cfg.Auth.TokenCacheTTL); err != nil {
		s.logger.Warn("写入 Token 缓存失败", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (s *authService) evictToken(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteActiveToken(ctx, userID); err != nil {
		s.logger.Warn("清除 Token 缓存失败", zap.Uint("user_id", userID), zap.Error(err))
	}
}
