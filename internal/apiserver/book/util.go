package book

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bookshelf-api/internal/shared/model"
)

// 分页默认值与上限
const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// 领域计数器
var (
	booksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookshelf",
		Name:      "books_created_total",
		Help:      "Total number of books created.",
	})
	booksDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookshelf",
		Name:      "books_deleted_total",
		Help:      "Total number of books soft-deleted.",
	})
)

// bookPayload 书籍写入载荷，Create/Update 共用
type bookPayload struct {
	Title    string
	Author   string
	Synopsis string
}

// requiredFields 必填字段，缺失提示按此顺序拼接
var requiredFields = []string{"title", "synopsis", "author"}

// parseBookPayload 校验并解析书籍写入载荷
//
// 依次检查：Content-Type 必须是 JSON（415）→ 载荷必须是 JSON 对象（400）→
// 必填字段齐全（400，缺失字段按固定顺序列出）→ 字段类型为字符串（400）。
// 任一检查失败时已写入响应，返回 nil。
func parseBookPayload(w http.ResponseWriter, r *http.Request) *bookPayload {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusUnsupportedMediaType, "Request must be JSON")
		return nil
	}

	var raw interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Request must be JSON")
		return nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		writeError(w, http.StatusBadRequest, "JSON payload must be a dictionary")
		return nil
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := obj[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return nil
	}

	values := make(map[string]string, len(requiredFields))
	for _, field := range requiredFields {
		s, ok := obj[field].(string)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Field %s is not of type string", field))
			return nil
		}
		values[field] = s
	}

	return &bookPayload{
		Title:    values["title"],
		Author:   values["author"],
		Synopsis: values["synopsis"],
	}
}

// listResponse 书籍列表分页信封
type listResponse struct {
	TotalCount int           `json:"total_count"`
	Offset     int           `json:"offset"`
	Limit      int           `json:"limit"`
	Items      []*model.Book `json:"items"`
}

// parsePagination 解析 offset/limit 查询参数
//
// 省略时取默认值；非整数或负数报 400；limit 超出上限时截断到上限。
// 失败时已写入响应，ok 为 false。
func parsePagination(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	limit = defaultPageLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return 0, 0, false
		}
		limit = n
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return 0, 0, false
		}
		offset = n
	}

	return limit, offset, true
}

// bookResponse 生成对外表示：links 从相对路径补全为绝对 URL
func bookResponse(r *http.Request, b *model.Book) *model.Book {
	cp := *b
	cp.Links = model.BookLinks{
		Self:         absoluteURL(r, b.Links.Self),
		Reservations: absoluteURL(r, b.Links.Reservations),
		Reviews:      absoluteURL(r, b.Links.Reviews),
	}
	return &cp
}

// absoluteURL 以当前请求的 scheme/host 补全相对路径
func absoluteURL(r *http.Request, path string) string {
	if path == "" {
		return ""
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + path
}

// ============================================================================
// 响应辅助函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
