package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vetlinks/backend/config"
)

const issuer = "vetlinks"

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

// Claims 自定义 JWT 声明
type Claims struct {
	UserID      uint   `json:"user_id"`
	AccountType string `json:"account_type"`
	jwtv5.RegisteredClaims
}

// Manager JWT 管理器
type Manager struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
	}
}

// GenerateToken 签发 Bearer Token
// tokenTTL 为 0 时不设置过期时间
func (m *Manager) GenerateToken(userID uint, accountType string) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID:      userID,
		AccountType: accountType,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:       uuid.New().String(),
			IssuedAt: jwtv5.NewNumericDate(now),
			Issuer:   issuer,
		},
	}
	if m.tokenTTL > 0 {
		claims.ExpiresAt = jwtv5.NewNumericDate(now.Add(m.tokenTTL))
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
