package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"vetlinks/backend/config"
	"vetlinks/backend/internal/dto"
	"vetlinks/backend/internal/model"
	pkgerrors "vetlinks/backend/pkg/errors"
	"vetlinks/backend/pkg/jwt"
)

// ── 注册测试 ──

func TestRegister_Success(t *testing.T) {
	env := setupTestEnv()

	result, err := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
		Username: "alice",
		Password: "password123",
		Email:    strPtr("alice@example.com"),
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if result.Token == "" {
		t.Fatal("Token 不应为空")
	}

	user, err := env.repo.User.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("注册后应能查询到用户: %v", err)
	}
	if user.PasswordHash == "password123" {
		t.Error("密码不应明文存储")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")) != nil {
		t.Error("密码哈希应能通过校验")
	}
	if user.AccountType != model.DefaultAccountType {
		t.Errorf("期望 AccountType=%s，实际=%s", model.DefaultAccountType, user.AccountType)
	}

	stored, err := env.repo.Token.GetByUserID(context.Background(), user.ID)
	if err != nil || stored.Token != result.Token {
		t.Errorf("注册后应持久化同一 Token，实际: %+v, err=%v", stored, err)
	}
	if env.cache.tokens[user.ID] != stored.TokenID {
		t.Error("注册后应缓存活跃 Token ID")
	}
}

func TestRegister_WithAccountType(t *testing.T) {
	env := setupTestEnv()

	_, err := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
		Username:    "vet1",
		Password:    "password123",
		AccountType: strPtr("clinician"),
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	user, _ := env.repo.User.GetByUsername(context.Background(), "vet1")
	if user.AccountType != "clinician" {
		t.Errorf("期望 AccountType=clinician，实际=%s", user.AccountType)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := setupTestEnv()
	createTestUser(env, "alice", "password123", "basic")

	_, err := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
		Username: "alice",
		Password: "another-password",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("期望 ErrUsernameTaken，实际: %v", err)
	}
	if !errors.Is(err, pkgerrors.ErrDuplicate) {
		t.Errorf("ErrUsernameTaken 应归类为 ErrDuplicate")
	}
}

func TestRegister_PasswordTooLong(t *testing.T) {
	env := setupTestEnv()

	cases := []struct {
		name     string
		password string
	}{
		{"ASCII 超过 72 字节", strings.Repeat("a", 100)},
		{"多字节字符按字节计长", strings.Repeat("密", 30)}, // 30 字符，90 字节
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
				Username: "longpw",
				Password: tc.password,
			})
			if !errors.Is(err, ErrPasswordTooLong) {
				t.Fatalf("期望 ErrPasswordTooLong，实际: %v", err)
			}
			if pkgerrors.KindOf(err) != pkgerrors.ErrValidation {
				t.Errorf("ErrPasswordTooLong 应归类为 ErrValidation")
			}
		})
	}

	if _, err := env.repo.User.GetByUsername(context.Background(), "longpw"); err == nil {
		t.Error("密码过长时不应创建用户")
	}

	// 恰好 72 字节可以注册
	if _, err := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
		Username: "edgepw",
		Password: strings.Repeat("a", 72),
	}); err != nil {
		t.Errorf("72 字节密码应可注册: %v", err)
	}
}

func TestRegister_UsernameCaseSensitive(t *testing.T) {
	env := setupTestEnv()
	createTestUser(env, "alice", "password123", "basic")

	if _, err := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
		Username: "Alice",
		Password: "password123",
	}); err != nil {
		t.Errorf("用户名区分大小写，Alice 应可注册: %v", err)
	}
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	env := setupTestEnv()
	user := createTestUser(env, "alice", "password123", "basic")

	result, err := env.svc.Auth.Login(context.Background(), &dto.SignInRequest{
		Username:   "alice",
		Password:   "password123",
		Department: "basic",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.Token == "" {
		t.Error("Token 不应为空")
	}
	if result.ID != user.ID {
		t.Errorf("期望 ID=%d，实际=%d", user.ID, result.ID)
	}

	claims, err := env.jwtMgr.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("签发的 Token 应能解析: %v", err)
	}
	if claims.UserID != user.ID || claims.AccountType != "basic" {
		t.Errorf("Claims 不符合预期: %+v", claims)
	}
}

func TestLogin_ReusesExistingToken(t *testing.T) {
	env := setupTestEnv()

	signup, err := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
		Username: "alice",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}

	req := &dto.SignInRequest{Username: "alice", Password: "password123", Department: "basic"}
	first, err := env.svc.Auth.Login(context.Background(), req)
	if err != nil {
		t.Fatalf("第一次 Login 应成功: %v", err)
	}
	second, err := env.svc.Auth.Login(context.Background(), req)
	if err != nil {
		t.Fatalf("第二次 Login 应成功: %v", err)
	}

	if first.Token != signup.Token || second.Token != signup.Token {
		t.Error("重复登录应返回注册时签发的同一 Token")
	}
	if len(env.store.tokens) != 1 {
		t.Errorf("每个用户至多一条 Token，实际=%d", len(env.store.tokens))
	}
}

func TestLogin_ReplacesUnverifiableToken(t *testing.T) {
	env := setupTestEnv()
	user := createTestUser(env, "alice", "password123", "basic")

	// 旧密钥签发的 Token（模拟密钥轮换）
	oldMgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "rotated-away-secret-key-0001"})
	oldToken, oldClaims, _ := oldMgr.GenerateToken(user.ID, "basic")
	env.store.tokens[user.ID] = &model.AuthToken{UserID: user.ID, Token: oldToken, TokenID: oldClaims.ID}

	result, err := env.svc.Auth.Login(context.Background(), &dto.SignInRequest{
		Username: "alice", Password: "password123", Department: "basic",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.Token == oldToken {
		t.Error("无法校验的旧 Token 应被替换")
	}
	if env.store.tokens[user.ID].Token != result.Token {
		t.Error("替换后的 Token 应持久化")
	}
}

func TestLogin_ReplacesExpiredToken(t *testing.T) {
	env := setupTestEnv()
	user := createTestUser(env, "alice", "password123", "basic")

	claims := &jwt.Claims{
		UserID:      user.ID,
		AccountType: "basic",
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        "expired-jti",
			Issuer:    "vetlinks",
			ExpiresAt: jwtv5.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, _ := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).
		SignedString([]byte(newTestConfig().Auth.JWTSecret))
	env.store.tokens[user.ID] = &model.AuthToken{UserID: user.ID, Token: expired, TokenID: claims.ID}

	result, err := env.svc.Auth.Login(context.Background(), &dto.SignInRequest{
		Username: "alice", Password: "password123", Department: "basic",
	})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.Token == expired {
		t.Error("已过期的 Token 应被替换")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := setupTestEnv()
	createTestUser(env, "alice", "password123", "basic")

	_, err := env.svc.Auth.Login(context.Background(), &dto.SignInRequest{
		Username: "alice", Password: "wrong_password", Department: "basic",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	env := setupTestEnv()

	_, err := env.svc.Auth.Login(context.Background(), &dto.SignInRequest{
		Username: "nobody", Password: "password123", Department: "basic",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
	if !errors.Is(err, pkgerrors.ErrUnauthenticated) {
		t.Error("用户不存在与密码错误应属同一分类")
	}
}

func TestLogin_DepartmentMismatch(t *testing.T) {
	env := setupTestEnv()
	createTestUser(env, "alice", "password123", "basic")

	for _, dept := range []string{"premium", "Basic", ""} {
		_, err := env.svc.Auth.Login(context.Background(), &dto.SignInRequest{
			Username: "alice", Password: "password123", Department: dept,
		})
		if !errors.Is(err, ErrDepartmentMismatch) {
			t.Errorf("department=%q 期望 ErrDepartmentMismatch，实际: %v", dept, err)
		}
		if !errors.Is(err, pkgerrors.ErrForbidden) {
			t.Errorf("department=%q 应归类为 ErrForbidden", dept)
		}
	}
	if len(env.store.tokens) != 0 {
		t.Error("部门不匹配时不应签发 Token")
	}
}

// ── Logout / ValidateToken 测试 ──

func TestLogout_RevokesToken(t *testing.T) {
	env := setupTestEnv()
	signup, _ := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
		Username: "alice", Password: "password123",
	})

	claims, err := env.svc.Auth.ValidateToken(context.Background(), signup.Token)
	if err != nil {
		t.Fatalf("登出前 Token 应有效: %v", err)
	}

	if err := env.svc.Auth.Logout(context.Background(), claims.UserID); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if _, ok := env.cache.tokens[claims.UserID]; ok {
		t.Error("登出后应清除缓存")
	}

	if _, err := env.svc.Auth.ValidateToken(context.Background(), signup.Token); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("登出后期望 ErrTokenRevoked，实际: %v", err)
	}

	// 再次登录获得新 Token
	login, err := env.svc.Auth.Login(context.Background(), &dto.SignInRequest{
		Username: "alice", Password: "password123", Department: "basic",
	})
	if err != nil {
		t.Fatalf("重新登录应成功: %v", err)
	}
	if login.Token == signup.Token {
		t.Error("登出后重新登录应签发新 Token")
	}
}

func TestValidateToken_Invalid(t *testing.T) {
	env := setupTestEnv()

	if _, err := env.svc.Auth.ValidateToken(context.Background(), "not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestValidateToken_StaleCacheFallsBackToDB(t *testing.T) {
	env := setupTestEnv()
	signup, _ := env.svc.Auth.Register(context.Background(), &dto.SignUpRequest{
		Username: "alice", Password: "password123",
	})
	claims, _ := env.jwtMgr.ParseToken(signup.Token)

	env.cache.tokens[claims.UserID] = "stale-jti"

	if _, err := env.svc.Auth.ValidateToken(context.Background(), signup.Token); err != nil {
		t.Fatalf("缓存过期时应以数据库为准: %v", err)
	}
	if env.cache.tokens[claims.UserID] != claims.ID {
		t.Error("回退数据库后应重新写入缓存")
	}
}

func TestValidateToken_WithoutCache(t *testing.T) {
	env := setupTestEnv()
	auth := NewAuthService(newTestConfig(), env.repo, env.jwtMgr, nil, zapNop())

	signup, err := auth.Register(context.Background(), &dto.SignUpRequest{
		Username: "alice", Password: "password123",
	})
	if err != nil {
		t.Fatalf("无缓存时 Register 应成功: %v", err)
	}
	if _, err := auth.ValidateToken(context.Background(), signup.Token); err != nil {
		t.Errorf("无缓存时应直接查询数据库: %v", err)
	}
}
