// Package reservation 预约领域 - HTTP 处理
//
// 所有预约接口都要求认证。单条读取/取消在确认资源存在之后才做归属检查
// （缺失资源报 404 而不是 403）；列表查询对非管理员强制收敛到本人范围。
package reservation

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"bookshelf-api/internal/apiserver/auth"
	"bookshelf-api/internal/shared/model"
	"bookshelf-api/internal/shared/storage"
)

// Handler 预约领域 HTTP 处理器
type Handler struct {
	books        storage.BookStore
	reservations storage.ReservationStore
}

// NewHandler 创建预约处理器
func NewHandler(books storage.BookStore, reservations storage.ReservationStore) *Handler {
	return &Handler{books: books, reservations: reservations}
}

// RegisterRoutes 注册预约相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /books/{id}/reservations", h.Create)
	mux.HandleFunc("GET /books/{id}/reservations/{rid}", h.Get)
	mux.HandleFunc("DELETE /books/{id}/reservations/{rid}", h.Cancel)
	mux.HandleFunc("GET /reservations", h.List)
}

// Create 对在架书籍创建预约
// POST /books/{id}/reservations
//
// 预约人姓名在此刻从用户档案派生一次并固化，之后不再重算。
// 同一用户可对同一本书持有多条 reserved 预约（历史行为，纯记录性质）。
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	if err := auth.RequireAuthenticated(p); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	bookID := r.PathValue("id")
	book, err := h.books.GetBook(r.Context(), bookID)
	if err != nil {
		log.Printf("[reservation] book lookup error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create reservation")
		return
	}
	if book == nil {
		auth.WriteAPIError(w, http.StatusNotFound, "Book not found")
		return
	}

	forenames, surname := p.ReservationName()
	res := &model.Reservation{
		ID:         uuid.NewString(),
		BookID:     book.ID,
		UserID:     p.ID,
		Forenames:  forenames,
		Surname:    surname,
		State:      model.ReservationStateReserved,
		ReservedAt: time.Now().UTC(),
	}

	if err := h.reservations.CreateReservation(r.Context(), res); err != nil {
		log.Printf("[reservation] Create error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create reservation")
		return
	}

	reservationsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, newReservationView(res, false))
}

// Get 获取单条预约
// GET /books/{id}/reservations/{rid}
//
// 不过滤状态：已取消的预约对归属者/管理员仍然可读。
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	if err := auth.RequireAuthenticated(p); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	res, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := auth.RequireOwnerOrAdmin(p, res.UserID); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newReservationView(res, false))
}

// Cancel 取消预约
// DELETE /books/{id}/reservations/{rid}
//
// 单向迁移 reserved → cancelled；目标已取消时重复取消返回 404。
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	if err := auth.RequireAuthenticated(p); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	res, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := auth.RequireOwnerOrAdmin(p, res.UserID); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	cancelled, err := h.reservations.CancelReservation(r.Context(), res.BookID, res.ID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// 归属检查和取消之间状态可能已被并发请求迁移；
			// 条件更新未命中与资源缺失同样报 404
			auth.WriteAPIError(w, http.StatusNotFound, "Reservation not found")
			return
		}
		log.Printf("[reservation] Cancel error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel reservation")
		return
	}

	reservationsCancelledTotal.Inc()
	writeJSON(w, http.StatusOK, newReservationView(cancelled, false))
}

// List 列出预约
// GET /reservations?user_id=
//
// 管理员可用 user_id 过滤（缺省为全量）；其他主体无论传什么过滤条件，
// 查询都强制收敛到本人的预约。
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	if err := auth.RequireAuthenticated(p); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	filter := storage.ReservationFilter{UserID: p.ID}
	if p.IsAdmin() {
		filter.UserID = r.URL.Query().Get("user_id")
	}

	list, err := h.reservations.ListReservations(r.Context(), filter)
	if err != nil {
		log.Printf("[reservation] List error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}

	views := make([]*reservationView, 0, len(list))
	for _, res := range list {
		views = append(views, newReservationView(res, true))
	}
	writeJSON(w, http.StatusOK, views)
}

// fetch 按 URL 中的 (书籍 ID, 预约 ID) 双键定位预约
// 未命中时已写入 404 响应，ok 为 false
func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*model.Reservation, bool) {
	res, err := h.reservations.GetReservation(r.Context(), r.PathValue("id"), r.PathValue("rid"))
	if err != nil {
		log.Printf("[reservation] Get error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get reservation")
		return nil, false
	}
	if res == nil {
		auth.WriteAPIError(w, http.StatusNotFound, "Reservation not found")
		return nil, false
	}
	return res, true
}
