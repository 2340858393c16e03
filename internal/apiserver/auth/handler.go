package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"bookshelf-api/internal/shared/cache"
	"bookshelf-api/internal/shared/storage"
)

// Handler 认证 HTTP 处理器：登录跳转、OAuth 回调、登出
type Handler struct {
	users    storage.UserStore
	sessions cache.SessionCache
	cfg      Config
}

// NewHandler 创建认证处理器
func NewHandler(users storage.UserStore, sessions cache.SessionCache, cfg Config) *Handler {
	return &Handler{users: users, sessions: sessions, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("GET /auth/logout", h.Logout)
}

// Login 跳转到身份提供方的授权端点
//
// 随机 state 先写入缓存（带 TTL），回调时一次性消费，防 CSRF。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	state := randomToken()
	if err := h.sessions.PutState(r.Context(), state, h.cfg.StateTTL); err != nil {
		log.Printf("[auth.login] put state error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.Redirect(w, r, h.cfg.oauthConfig().AuthCodeURL(state), http.StatusFound)
}

// Callback 处理身份提供方的授权回调
//
// 校验 state → 兑换授权码 → 解码 ID 令牌 → 按 subject upsert 用户 →
// 建立服务端会话并写入 Cookie。
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state == "" {
		writeError(w, http.StatusBadRequest, "missing state parameter")
		return
	}
	ok, err := h.sessions.TakeState(r.Context(), state)
	if err != nil {
		log.Printf("[auth.callback] take state error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid or expired state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	token, err := h.cfg.oauthConfig().Exchange(r.Context(), code)
	if err != nil {
		log.Printf("[auth.callback] code exchange error: %v", err)
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		writeError(w, http.StatusBadGateway, "identity provider returned no id_token")
		return
	}
	claims, err := parseIDToken(rawIDToken)
	if err != nil {
		log.Printf("[auth.callback] id_token parse error: %v", err)
		writeError(w, http.StatusBadGateway, "invalid id_token")
		return
	}

	user, err := h.users.UpsertUserBySubject(r.Context(), candidateUser(claims))
	if err != nil {
		log.Printf("[auth.callback] user upsert error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to store user")
		return
	}

	sessionID := uuid.NewString()
	if err := h.sessions.PutSession(r.Context(), sessionID, user.ID, h.cfg.SessionTTL); err != nil {
		log.Printf("[auth.callback] put session error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Printf("[auth] User logged in: %s (%s)", user.Email, user.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout 销毁服务端会话并清除 Cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cfg.CookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.DeleteSession(r.Context(), cookie.Value); err != nil {
			log.Printf("[auth.logout] session delete error: %v", err)
		}
	}
	clearSessionCookie(w, h.cfg.CookieName)
	http.Redirect(w, r, "/", http.StatusFound)
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// randomToken 生成 OAuth state 防伪参数
func randomToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
