package server

import (
	"net/http"
	"time"

	"bookshelf-api/internal/apiserver/auth"
	"bookshelf-api/internal/apiserver/book"
	"bookshelf-api/internal/apiserver/reservation"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 书籍目录 (Book):
//   - GET    /books            - 列出在架书籍（分页，公开）
//   - POST   /books            - 新增书籍（admin/editor）
//   - GET    /books/{id}       - 获取书籍详情（公开）
//   - PUT    /books/{id}       - 整体替换书籍（admin/editor）
//   - DELETE /books/{id}       - 软删除书籍（admin）
//
// 预约 (Reservation):
//   - POST   /books/{id}/reservations       - 创建预约（认证用户）
//   - GET    /books/{id}/reservations/{rid} - 获取预约（归属者/admin）
//   - DELETE /books/{id}/reservations/{rid} - 取消预约（归属者/admin）
//   - GET    /reservations                  - 列出预约（按归属收敛）
//
// 认证 (Auth):
//   - GET    /auth/login    - 跳转身份提供方
//   - GET    /auth/callback - OAuth 回调
//   - GET    /auth/logout   - 登出
//
// 中间件链（外 → 内）：CORS → 会话解析 → 请求日志 → 指标采集 → 路由
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Book 接口
	bookHandler := book.NewHandler(h.store)
	bookHandler.RegisterRoutes(mux)

	// Reservation 接口
	resHandler := reservation.NewHandler(h.store, h.store)
	resHandler.RegisterRoutes(mux)

	// Auth 路由
	authHandler := auth.NewHandler(h.store, h.sessions, h.authCfg)
	authHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用请求日志中间件
	loggedHandler := h.loggingMiddleware(apiHandler)

	// 应用会话中间件（解析 Principal，从不拒绝请求）
	resolver := auth.NewResolver(h.store)
	authedHandler := auth.Middleware(resolver, h.sessions, h.authCfg.CookieName)(loggedHandler)

	// 应用 CORS 中间件
	return corsMiddleware(authedHandler)
}

// loggingMiddleware 结构化记录每个请求的方法、路径、状态码和耗时
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		h.logger.WithContext(r.Context()).
			HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), r.RemoteAddr)
	})
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
