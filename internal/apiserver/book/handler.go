// Package book 书籍领域 - HTTP 处理
//
// 读取接口公开；写入接口要求 admin/editor 角色，删除要求 admin。
// 软删除后的书籍从所有后续操作的候选集中消失（不可读、不可改、不可预约），
// 且没有恢复操作。
package book

import (
	"errors"
	"log"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"bookshelf-api/internal/apiserver/auth"
	"bookshelf-api/internal/shared/model"
	"bookshelf-api/internal/shared/storage"
	"bookshelf-api/pkg/logging"
)

// Handler 书籍领域 HTTP 处理器
type Handler struct {
	store  storage.BookStore
	logger *logging.Logger
}

// NewHandler 创建书籍处理器
func NewHandler(store storage.BookStore) *Handler {
	return &Handler{store: store, logger: logging.Default("book")}
}

// RegisterRoutes 注册书籍相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /books", h.Create)
	mux.HandleFunc("GET /books", h.List)
	mux.HandleFunc("GET /books/{id}", h.Get)
	mux.HandleFunc("PUT /books/{id}", h.Update)
	mux.HandleFunc("DELETE /books/{id}", h.Delete)
}

// Create 新增书籍
// POST /books
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	if err := auth.RequireAuthenticated(p); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}
	if err := auth.RequireAnyRole(p, model.RoleAdmin, model.RoleEditor); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	payload := parseBookPayload(w, r)
	if payload == nil {
		return
	}

	book := &model.Book{
		ID:       uuid.NewString(),
		Title:    payload.Title,
		Author:   payload.Author,
		Synopsis: payload.Synopsis,
	}
	book.Links = model.NewBookLinks(book.ID)

	if err := h.store.CreateBook(r.Context(), book); err != nil {
		log.Printf("[book] Create error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create book")
		return
	}

	booksCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, bookResponse(r, book))
}

// List 列出在架书籍
// GET /books?offset=&limit=
//
// total_count 反映未删除书籍全集，与分页窗口无关。
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := parsePagination(w, r)
	if !ok {
		return
	}

	books, total, err := h.store.ListBooks(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[book] List error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list books")
		return
	}

	items := make([]*model.Book, 0, len(books))
	for _, b := range books {
		items = append(items, bookResponse(r, b))
	}

	writeJSON(w, http.StatusOK, listResponse{
		TotalCount: total,
		Offset:     offset,
		Limit:      limit,
		Items:      items,
	})
}

// Get 获取单本书籍
// GET /books/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	book, err := h.store.GetBook(r.Context(), id)
	if err != nil {
		log.Printf("[book] Get error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get book")
		return
	}
	if book == nil {
		auth.WriteAPIError(w, http.StatusNotFound, "Book not found")
		return
	}
	writeJSON(w, http.StatusOK, bookResponse(r, book))
}

// Update 整体替换书籍的 title/author/synopsis
// PUT /books/{id}
//
// 仅对在架书籍生效；links 随之重建。部分更新不受支持。
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	if err := auth.RequireAuthenticated(p); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}
	if err := auth.RequireAnyRole(p, model.RoleAdmin, model.RoleEditor); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	payload := parseBookPayload(w, r)
	if payload == nil {
		return
	}

	id := r.PathValue("id")
	book, err := h.store.ReplaceBook(r.Context(), id, payload.Title, payload.Author, payload.Synopsis, model.NewBookLinks(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			auth.WriteAPIError(w, http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("[book] Update error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update book")
		return
	}

	writeJSON(w, http.StatusOK, bookResponse(r, book))
}

// Delete 软删除书籍
// DELETE /books/{id}
//
// 非幂等：对已删除或不存在的书籍再次删除返回 404。
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p := auth.GetPrincipal(r.Context())
	if err := auth.RequireAuthenticated(p); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}
	if err := auth.RequireAnyRole(p, model.RoleAdmin); err != nil {
		auth.WriteAuthError(w, r, err)
		return
	}

	id := r.PathValue("id")
	book, err := h.store.SoftDeleteBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			auth.WriteAPIError(w, http.StatusNotFound, "Book not found")
			return
		}
		log.Printf("[book] Delete error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete book")
		return
	}

	// 删除是管理操作，留审计痕迹
	h.logger.AuditLog("book_deleted", p.Email,
		slog.String("book_id", book.ID), slog.String("title", book.Title))
	booksDeletedTotal.Inc()
	w.WriteHeader(http.StatusNoContent)
}
