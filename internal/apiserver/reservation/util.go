package reservation

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bookshelf-api/internal/shared/model"
)

// 领域计数器
var (
	reservationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookshelf",
		Name:      "reservations_created_total",
		Help:      "Total number of reservations created.",
	})
	reservationsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bookshelf",
		Name:      "reservations_cancelled_total",
		Help:      "Total number of reservations cancelled.",
	})
)

// reservationView 预约的对外表示
//
// 单条读取/取消的响应不含 user_id（归属已由访问控制确认，不再回显）；
// 列表响应保留 user_id 供管理员区分归属。时间戳按 RFC 3339 渲染。
type reservationView struct {
	ID          string                 `json:"id"`
	BookID      string                 `json:"book_id"`
	UserID      string                 `json:"user_id,omitempty"`
	Forenames   string                 `json:"forenames"`
	Surname     string                 `json:"surname"`
	State       model.ReservationState `json:"state"`
	ReservedAt  time.Time              `json:"reserved_at"`
	CancelledAt *time.Time             `json:"cancelled_at,omitempty"`
}

func newReservationView(res *model.Reservation, includeUserID bool) *reservationView {
	v := &reservationView{
		ID:          res.ID,
		BookID:      res.BookID,
		Forenames:   res.Forenames,
		Surname:     res.Surname,
		State:       res.State,
		ReservedAt:  res.ReservedAt,
		CancelledAt: res.CancelledAt,
	}
	if includeUserID {
		v.UserID = res.UserID
	}
	return v
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
