// Package auth 认证与访问控制单元测试
//
// # 测试分组
//
// ## 决策谓词（纯函数）
//   - TestRequireAuthenticated / TestRequireAnyRole / TestRequireOwnerOrAdmin
//
// ## 主体解析与会话中间件（memstore + MemoryCache）
//   - TestResolver_Resolve: 会话用户 ID → Principal
//   - TestMiddleware: Cookie → 会话 → Principal 注入；过期会话清理
//
// ## HTTP 边界
//   - TestWriteAuthError: 匿名 302 跳转 / 无权限 403 结构化错误
//   - TestLogin_RedirectsWithState: 登录跳转携带缓存过的 state
//   - TestParseIDToken: ID 令牌 claims 解码
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookshelf-api/internal/shared/cache"
	"bookshelf-api/internal/shared/model"
	"bookshelf-api/internal/shared/storage/memstore"
)

// ============================================================================
// 决策谓词
// ============================================================================

func TestRequireAuthenticated(t *testing.T) {
	if err := RequireAuthenticated(nil); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("nil principal: got %v, want ErrUnauthenticated", err)
	}
	if err := RequireAuthenticated(&Principal{ID: "u1"}); err != nil {
		t.Errorf("principal present: got %v, want nil", err)
	}
}

func TestRequireAnyRole(t *testing.T) {
	tests := []struct {
		name      string
		principal *Principal
		roles     []string
		wantErr   error
	}{
		{"匿名", nil, []string{model.RoleAdmin}, ErrUnauthenticated},
		{"持有其一", &Principal{Roles: []string{model.RoleEditor}}, []string{model.RoleAdmin, model.RoleEditor}, nil},
		{"未持有", &Principal{Roles: []string{model.RoleViewer}}, []string{model.RoleAdmin, model.RoleEditor}, ErrForbidden},
		{"空角色集", &Principal{}, []string{model.RoleAdmin}, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireAnyRole(tt.principal, tt.roles...)
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	tests := []struct {
		name      string
		principal *Principal
		ownerID   string
		wantErr   error
	}{
		{"匿名", nil, "u1", ErrUnauthenticated},
		{"归属者", &Principal{ID: "u1"}, "u1", nil},
		{"管理员非归属", &Principal{ID: "u2", Roles: []string{model.RoleAdmin}}, "u1", nil},
		{"非归属非管理员", &Principal{ID: "u2", Roles: []string{model.RoleViewer}}, "u1", ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireOwnerOrAdmin(tt.principal, tt.ownerID)
			if !errors.Is(err, tt.wantErr) && !(err == nil && tt.wantErr == nil) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ============================================================================
// 主体解析
// ============================================================================

func TestResolver_Resolve(t *testing.T) {
	store := memstore.NewStore()
	ctx := context.Background()

	user := &model.User{
		ID:          "u1",
		Subject:     "idp|123",
		Email:       "ada@example.com",
		DisplayName: "Ada Lovelace",
		GivenName:   "Ada",
		FamilyName:  "Lovelace",
		Roles:       []string{model.RoleViewer},
	}
	if _, err := store.UpsertUserBySubject(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	r := NewResolver(store)

	p, err := r.Resolve(ctx, "u1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p == nil || p.Email != "ada@example.com" || !p.HasRole(model.RoleViewer) {
		t.Errorf("unexpected principal: %+v", p)
	}

	forenames, surname := p.ReservationName()
	if forenames != "Ada" || surname != "Lovelace" {
		t.Errorf("ReservationName: got (%q, %q)", forenames, surname)
	}

	// 空 ID 和未知用户都按登出态处理
	if p, err := r.Resolve(ctx, ""); err != nil || p != nil {
		t.Errorf("empty id: got (%v, %v), want (nil, nil)", p, err)
	}
	if p, err := r.Resolve(ctx, "missing"); err != nil || p != nil {
		t.Errorf("missing user: got (%v, %v), want (nil, nil)", p, err)
	}
}

// ============================================================================
// 会话中间件
// ============================================================================

func TestMiddleware(t *testing.T) {
	store := memstore.NewStore()
	sessions := cache.NewMemoryCache()
	ctx := context.Background()

	user := &model.User{ID: "u1", Subject: "idp|123", Email: "ada@example.com", Roles: []string{model.RoleViewer}}
	if _, err := store.UpsertUserBySubject(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := sessions.PutSession(ctx, "sess-1", "u1", time.Hour); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	// 指向已不存在用户的过期会话
	if err := sessions.PutSession(ctx, "sess-stale", "ghost", time.Hour); err != nil {
		t.Fatalf("seed stale session: %v", err)
	}

	var got *Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(NewResolver(store), sessions, "session_id")(next)

	// 有效会话注入 Principal
	req := httptest.NewRequest("GET", "/books", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got == nil || got.ID != "u1" {
		t.Fatalf("valid session: principal = %+v, want u1", got)
	}

	// 无 Cookie 时按匿名放行
	got = nil
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/books", nil))
	if got != nil {
		t.Errorf("no cookie: principal = %+v, want nil", got)
	}

	// 过期引用：按匿名放行并作废会话
	got = nil
	req = httptest.NewRequest("GET", "/books", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-stale"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got != nil {
		t.Errorf("stale session: principal = %+v, want nil", got)
	}
	if v, _ := sessions.GetSession(ctx, "sess-stale"); v != "" {
		t.Errorf("stale session not deleted, still maps to %q", v)
	}
}

// ============================================================================
// HTTP 边界
// ============================================================================

func TestWriteAuthError(t *testing.T) {
	// 匿名 → 302 跳转登录入口
	rec := httptest.NewRecorder()
	WriteAuthError(rec, httptest.NewRequest("DELETE", "/books/b1", nil), ErrUnauthenticated)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != LoginPath {
		t.Errorf("Location = %q, want %q", loc, LoginPath)
	}

	// 无权限 → 403 结构化错误
	rec = httptest.NewRecorder()
	WriteAuthError(rec, httptest.NewRequest("DELETE", "/books/b1", nil), ErrForbidden)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != 403 || body.Name != "Forbidden" || body.Description == "" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestLogin_RedirectsWithState(t *testing.T) {
	sessions := cache.NewMemoryCache()
	h := NewHandler(memstore.NewStore(), sessions, Config{
		ClientID:    "client-1",
		AuthURL:     "https://idp.example.com/authorize",
		TokenURL:    "https://idp.example.com/token",
		RedirectURL: "http://localhost:8080/auth/callback",
		Scopes:      []string{"openid", "email", "profile"},
		StateTTL:    10 * time.Minute,
	})

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest("GET", "/auth/login", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if loc.Host != "idp.example.com" {
		t.Errorf("redirect host = %q", loc.Host)
	}

	// 跳转携带的 state 已写入缓存，可被回调一次性消费
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("no state in redirect URL")
	}
	ok, err := sessions.TakeState(context.Background(), state)
	if err != nil || !ok {
		t.Errorf("TakeState(%q) = (%v, %v), want (true, nil)", state, ok, err)
	}
}

func TestParseIDToken(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         "idp|123",
		"email":       "ada@example.com",
		"name":        "Ada Lovelace",
		"given_name":  "Ada",
		"family_name": "Lovelace",
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	claims, err := parseIDToken(raw)
	if err != nil {
		t.Fatalf("parseIDToken: %v", err)
	}
	if claims.Subject != "idp|123" || claims.Email != "ada@example.com" || claims.GivenName != "Ada" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	user := candidateUser(claims)
	if user.Subject != "idp|123" || !user.HasRole(model.RoleViewer) || user.ID == "" {
		t.Errorf("unexpected candidate: %+v", user)
	}

	// 缺少 subject 的令牌被拒绝
	raw, err = jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"email": "x@example.com"}).
		SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := parseIDToken(raw); err == nil {
		t.Error("expected error for token without subject")
	}

	if _, err := parseIDToken("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}
