package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"assembly-qc/config"
	"assembly-qc/internal/dto"
	"assembly-qc/pkg/jwt"
)

func newTestAuth(r *testRepos, blacklist TokenBlacklist) *authService {
	jwtMgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-tests",
		AccessTokenTTL: time.Hour,
	})
	svc := NewAuthService(r.repo, jwtMgr, blacklist, zap.NewNop()).(*authService)
	svc.now = fixedClock(testNow)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestRepos()
	svc := newTestAuth(r, nil)
	ctx := context.Background()

	reg, err := svc.Register(ctx, &dto.RegisterRequest{Username: "line1", Password: "secret123", FullName: "Line One"})
	if err != nil {
		t.Fatalf("Register 失败: %v", err)
	}

	if _, err := svc.Register(ctx, &dto.RegisterRequest{Username: "line1", Password: "other123", FullName: "Dup"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("重复用户名期望 ErrUsernameTaken，实际 %v", err)
	}

	resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "line1", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	if resp.AccessToken == "" || resp.ExpiresIn != 3600 {
		t.Errorf("Token 响应错误: %+v", resp)
	}
	if resp.User.ID != reg.ID || resp.User.Role != "operator" || !resp.User.IsOnline {
		t.Errorf("用户信息错误: %+v", resp.User)
	}

	stored, _ := r.users.GetByID(ctx, reg.ID)
	if stored.PasswordHash == "secret123" {
		t.Error("密码应以 bcrypt 哈希存储")
	}
	if stored.LastLogin == nil || !stored.LastLogin.Equal(testNow) {
		t.Error("登录应记录最后登录时间")
	}

	active, err := svc.ListActive(ctx)
	if err != nil || len(active) != 1 {
		t.Errorf("在线用户应为 1，实际 %d (%v)", len(active), err)
	}
}

func TestLogin_Failures(t *testing.T) {
	r := newTestRepos()
	svc := newTestAuth(r, nil)
	ctx := context.Background()
	svc.Register(ctx, &dto.RegisterRequest{Username: "line1", Password: "secret123", FullName: "Line One"})

	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "line1", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("错误密码期望 ErrInvalidCredentials，实际 %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "ghost", Password: "secret123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("未知用户期望 ErrInvalidCredentials，实际 %v", err)
	}

	u, _ := r.users.GetByUsername(ctx, "line1")
	u.IsActive = false
	r.users.Create(ctx, u)
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "line1", Password: "secret123"}); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("停用账号期望 ErrAccountDisabled，实际 %v", err)
	}
}

func TestLogout_MarksOfflineAndRevokes(t *testing.T) {
	r := newTestRepos()
	blacklist := newMockBlacklist()
	svc := newTestAuth(r, blacklist)
	ctx := context.Background()

	reg, _ := svc.Register(ctx, &dto.RegisterRequest{Username: "insp", Password: "secret123", FullName: "Inspector", Role: "inspector"})
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "insp", Password: "secret123"}); err != nil {
		t.Fatalf("Login 失败: %v", err)
	}

	if err := svc.Logout(ctx, reg.ID, "jti-1", testNow.Add(30*time.Minute)); err != nil {
		t.Fatalf("Logout 失败: %v", err)
	}
	if ttl, ok := blacklist.jtis["jti-1"]; !ok || ttl != 30*time.Minute {
		t.Errorf("Token 应以剩余有效期加入黑名单，实际 %v", ttl)
	}

	me, err := svc.GetCurrentUser(ctx, reg.ID)
	if err != nil {
		t.Fatalf("GetCurrentUser 失败: %v", err)
	}
	if me.IsOnline {
		t.Error("注销后应为离线")
	}

	if err := svc.Logout(ctx, reg.ID, "jti-2", testNow.Add(-time.Minute)); err != nil {
		t.Fatalf("过期 Token 注销不应失败: %v", err)
	}
	if _, ok := blacklist.jtis["jti-2"]; ok {
		t.Error("已过期 Token 无需加入黑名单")
	}
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	svc := newTestAuth(newTestRepos(), nil)
	if _, err := svc.GetCurrentUser(context.Background(), "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际 %v", err)
	}
}
