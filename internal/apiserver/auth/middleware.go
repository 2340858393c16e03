package auth

import (
	"log"
	"net/http"

	"bookshelf-api/internal/shared/cache"
)

// Middleware 会话中间件
//
// 从 Cookie 读取会话 ID，经会话缓存换取内部用户 ID，再由 Resolver
// 加载 Principal 注入 context。中间件本身从不拒绝请求 —— 匿名请求
// 原样放行，由各 handler 的决策谓词决定是否放行。
//
// 会话指向的用户已不存在时（过期引用），删除该会话并清除 Cookie。
func Middleware(resolver *Resolver, sessions cache.SessionCache, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			sessionID := cookie.Value

			userID, err := sessions.GetSession(r.Context(), sessionID)
			if err != nil {
				log.Printf("[auth] session lookup error: %v", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if userID == "" {
				// 会话已过期：清除客户端 Cookie，按匿名处理
				clearSessionCookie(w, cookieName)
				next.ServeHTTP(w, r)
				return
			}

			principal, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				log.Printf("[auth] principal resolve error: %v", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if principal == nil {
				// 过期会话引用了已不存在的用户：作废会话
				if err := sessions.DeleteSession(r.Context(), sessionID); err != nil {
					log.Printf("[auth] stale session delete error: %v", err)
				}
				clearSessionCookie(w, cookieName)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// clearSessionCookie 让客户端丢弃会话 Cookie
func clearSessionCookie(w http.ResponseWriter, cookieName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
