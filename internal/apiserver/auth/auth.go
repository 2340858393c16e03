// Package auth 认证与访问控制：OAuth 登录、服务端会话、主体解析、决策谓词
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"bookshelf-api/internal/shared/model"
	"bookshelf-api/internal/shared/storage"
)

// contextKey context 键类型
type contextKey string

const ctxKeyPrincipal contextKey = "principal"

// LoginPath 未认证请求统一跳转的登录入口
const LoginPath = "/auth/login"

// 访问控制决策错误
var (
	// ErrUnauthenticated 未登录（或会话已失效）
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden 已登录但无权限
	ErrForbidden = errors.New("forbidden")
)

// Principal 发起请求的主体
//
// 由会话中间件从用户文档解析并注入 context；匿名请求没有 Principal。
// GivenName/FamilyName/DisplayName/Email 是预约姓名派生的输入。
type Principal struct {
	ID          string
	Email       string
	DisplayName string
	GivenName   string
	FamilyName  string
	Roles       []string
}

// HasRole 主体是否持有指定角色
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin 主体是否为管理员
func (p *Principal) IsAdmin() bool {
	return p.HasRole(model.RoleAdmin)
}

// ReservationName 按姓名派生规则计算预约人姓名
func (p *Principal) ReservationName() (forenames, surname string) {
	return model.DeriveReservationName(p.GivenName, p.FamilyName, p.DisplayName, p.Email)
}

// ============================================================================
// 决策谓词
//
// 三个纯函数，按固定顺序组合：认证先于角色/归属检查，
// 归属检查只在目标资源确认存在之后执行（缺失资源报 404 而不是 403）。
// ============================================================================

// RequireAuthenticated 要求已认证主体
func RequireAuthenticated(p *Principal) error {
	if p == nil {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAnyRole 要求主体持有任一指定角色
func RequireAnyRole(p *Principal, roles ...string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	for _, r := range roles {
		if p.HasRole(r) {
			return nil
		}
	}
	return ErrForbidden
}

// RequireOwnerOrAdmin 要求主体是资源归属者或管理员
func RequireOwnerOrAdmin(p *Principal, ownerID string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if p.IsAdmin() || p.ID == ownerID {
		return nil
	}
	return ErrForbidden
}

// ============================================================================
// Identity Resolver
// ============================================================================

// Resolver 把会话携带的用户 ID 解析为当前 Principal
type Resolver struct {
	store storage.UserStore
}

// NewResolver 创建 Resolver
func NewResolver(store storage.UserStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve 按会话中的用户 ID 加载主体
//
// ID 为空或用户不存在（会话过期后用户被移除等）都返回 (nil, nil)，
// 调用方据此作登出态处理并作废过期会话；只有存储故障返回 error。
func (r *Resolver) Resolve(ctx context.Context, sessionUserID string) (*Principal, error) {
	if sessionUserID == "" {
		return nil, nil
	}
	user, err := r.store.GetUserByID(ctx, sessionUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return &Principal{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		GivenName:   user.GivenName,
		FamilyName:  user.FamilyName,
		Roles:       user.Roles,
	}, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithPrincipal 将主体注入 context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// GetPrincipal 从 context 获取主体，匿名请求返回 nil
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKeyPrincipal).(*Principal)
	return p
}

// ============================================================================
// 配置
// ============================================================================

// Config 认证配置
type Config struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string

	CookieName string
	SessionTTL time.Duration
	StateTTL   time.Duration
}

// oauthConfig 组装 OAuth2 客户端配置
func (c Config) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURL,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURL,
			TokenURL: c.TokenURL,
		},
	}
}

// ============================================================================
// 错误响应
// ============================================================================

// ErrorBody 403/404 等拒绝类响应的结构化负载
type ErrorBody struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// WriteAPIError 写入 {code, name, description} 结构化错误响应
func WriteAPIError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, ErrorBody{
		Code:        status,
		Name:        http.StatusText(status),
		Description: description,
	})
}

// WriteAuthError 将访问控制决策错误映射到 HTTP 响应
//
// 未认证 → 302 跳转登录入口；无权限 → 403 结构化错误。
func WriteAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUnauthenticated) {
		http.Redirect(w, r, LoginPath, http.StatusFound)
		return
	}
	WriteAPIError(w, http.StatusForbidden, "You do not have permission to access this resource")
}
