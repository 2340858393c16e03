// Package server 路由配置与核心基础设施
//
// 本包是 HTTP API 的入口，将请求分发到各领域独立包：
//   - book 包: 书籍目录接口
//   - reservation 包: 预约接口
//   - auth 包: OAuth 登录/回调/登出与会话中间件
//
// 文件组织：
//   - common.go: Handler 定义和通用工具函数
//   - handler.go: 路由与中间件链
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"bookshelf-api/internal/apiserver/auth"
	"bookshelf-api/internal/shared/cache"
	"bookshelf-api/internal/shared/storage"
	"bookshelf-api/pkg/logging"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域处理器
//   - 管理存储层与会话缓存连接
//   - 导出 Prometheus 指标
type Handler struct {
	store    storage.PersistentStore // MongoDB 存储层（持久化业务数据）
	sessions cache.SessionCache      // 会话缓存（Redis，测试用内存实现）
	authCfg  auth.Config             // OAuth/会话配置

	metrics *Metrics        // Prometheus 指标
	logger  *logging.Logger // 结构化请求日志
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, sessions cache.SessionCache, authCfg auth.Config) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
		authCfg:  authCfg,
		metrics:  NewMetrics("bookshelf"),
		logger:   logging.Default("api-server"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
// 返回 {"status": "ok"} 表示服务正常运行。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
