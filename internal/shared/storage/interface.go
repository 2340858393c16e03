// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/（生产）、memstore/（测试）
//   - 初始化时通过依赖注入传入实现
//
// 并发约定：所有状态迁移（软删除、整体替换、取消）必须由实现以
// 单次原子的"条件查找并更新"完成 —— 过滤条件同时匹配 ID 和当前状态，
// 条件不满足时返回 ErrNotFound。两个并发的删除/取消请求恰有一个成功。
package storage

import (
	"context"
	"time"

	"bookshelf-api/internal/shared/model"
)

// ReservationFilter 预约列表查询条件
//
// UserID 为空表示不按归属过滤（仅管理员路径允许）。
type ReservationFilter struct {
	BookID string
	UserID string
}

// BookStore 书籍存储接口
//
// 所有读取操作将软删除的书籍排除在候选集之外；Get 对已删除/不存在
// 的书籍统一返回 (nil, nil)。
type BookStore interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBook(ctx context.Context, id string) (*model.Book, error)
	// ListBooks 返回一页在架书籍和未删除书籍的总数（与分页窗口无关）
	ListBooks(ctx context.Context, limit, offset int) ([]*model.Book, int, error)
	// ReplaceBook 原子替换 title/author/synopsis 并重建 links，仅对在架书籍生效
	ReplaceBook(ctx context.Context, id string, title, author, synopsis string, links model.BookLinks) (*model.Book, error)
	// SoftDeleteBook 原子迁移 在架 → 已删除，返回删除后的文档
	SoftDeleteBook(ctx context.Context, id string) (*model.Book, error)
}

// ReservationStore 预约存储接口
//
// 单条读取/取消都以 (bookID, id) 双键定位，URL 中的书籍 ID 参与匹配。
type ReservationStore interface {
	CreateReservation(ctx context.Context, res *model.Reservation) error
	GetReservation(ctx context.Context, bookID, id string) (*model.Reservation, error)
	ListReservations(ctx context.Context, f ReservationFilter) ([]*model.Reservation, error)
	// CancelReservation 原子迁移 reserved → cancelled 并写入 cancelled_at；
	// 目标不处于 reserved 状态时返回 ErrNotFound
	CancelReservation(ctx context.Context, bookID, id string, at time.Time) (*model.Reservation, error)
}

// UserStore 用户存储接口
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserBySubject(ctx context.Context, subject string) (*model.User, error)
	// UpsertUserBySubject 按 subject 幂等写入：不存在时用 candidate 的
	// ID/Roles/CreatedAt 创建，存在时仅刷新 claims 快照与 last_login_at。
	// 返回 upsert 之后的文档。
	UpsertUserBySubject(ctx context.Context, candidate *model.User) (*model.User, error)
}

// PersistentStore 聚合所有持久化接口（由 mongostore.Store 实现）
type PersistentStore interface {
	BookStore
	ReservationStore
	UserStore
	Close() error
}
