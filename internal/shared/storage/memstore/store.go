// Package memstore 提供内存版 PersistentStore 实现
//
// 用于 handler 单元测试和无数据库的本地开发，语义与 mongostore 对齐：
// 读取过滤软删除、状态迁移带前置条件谓词、条件不满足返回 ErrNotFound。
// 所有操作在互斥锁内完成，等价于单文档写入的原子性。
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookshelf-api/internal/shared/model"
	"bookshelf-api/internal/shared/storage"
)

// Store 内存存储
type Store struct {
	mu           sync.RWMutex
	books        map[string]*model.Book
	reservations map[string]*model.Reservation
	users        map[string]*model.User
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		books:        make(map[string]*model.Book),
		reservations: make(map[string]*model.Reservation),
		users:        make(map[string]*model.User),
	}
}

// Close 实现 PersistentStore 接口（无资源需要释放）
func (s *Store) Close() error { return nil }

// 编译期接口检查
var _ storage.PersistentStore = (*Store)(nil)

// ============================================================================
// BookStore
// ============================================================================

func (s *Store) CreateBook(ctx context.Context, book *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[book.ID]; ok {
		return storage.ErrDuplicate
	}
	cp := *book
	s.books[book.ID] = &cp
	return nil
}

func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	if !ok || b.Deleted() {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *Store) ListBooks(ctx context.Context, limit, offset int) ([]*model.Book, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]*model.Book, 0)
	for _, b := range s.books {
		if !b.Deleted() {
			cp := *b
			active = append(active, &cp)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	total := len(active)
	if offset > len(active) {
		offset = len(active)
	}
	active = active[offset:]
	if limit > 0 && limit < len(active) {
		active = active[:limit]
	}
	return active, total, nil
}

func (s *Store) ReplaceBook(ctx context.Context, id string, title, author, synopsis string, links model.BookLinks) (*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok || b.Deleted() {
		return nil, storage.ErrNotFound
	}
	b.Title = title
	b.Author = author
	b.Synopsis = synopsis
	b.Links = links
	cp := *b
	return &cp, nil
}

func (s *Store) SoftDeleteBook(ctx context.Context, id string) (*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok || b.Deleted() {
		return nil, storage.ErrNotFound
	}
	b.State = model.BookStateDeleted
	cp := *b
	return &cp, nil
}

// ============================================================================
// ReservationStore
// ============================================================================

func (s *Store) CreateReservation(ctx context.Context, res *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[res.ID]; ok {
		return storage.ErrDuplicate
	}
	cp := *res
	s.reservations[res.ID] = &cp
	return nil
}

func (s *Store) GetReservation(ctx context.Context, bookID, id string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok || r.BookID != bookID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListReservations(ctx context.Context, f storage.ReservationFilter) ([]*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*model.Reservation, 0)
	for _, r := range s.reservations {
		if f.BookID != "" && r.BookID != f.BookID {
			continue
		}
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		cp := *r
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ReservedAt.After(results[j].ReservedAt)
	})
	return results, nil
}

func (s *Store) CancelReservation(ctx context.Context, bookID, id string, at time.Time) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.BookID != bookID || r.State != model.ReservationStateReserved {
		return nil, storage.ErrNotFound
	}
	r.State = model.ReservationStateCancelled
	t := at
	r.CancelledAt = &t
	cp := *r
	return &cp, nil
}

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserBySubject(ctx context.Context, subject string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Subject == subject {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) UpsertUserBySubject(ctx context.Context, candidate *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Subject == candidate.Subject {
			u.Email = candidate.Email
			u.DisplayName = candidate.DisplayName
			u.GivenName = candidate.GivenName
			u.FamilyName = candidate.FamilyName
			u.LastLoginAt = candidate.LastLoginAt
			cp := *u
			return &cp, nil
		}
	}
	cp := *candidate
	s.users[candidate.ID] = &cp
	out := cp
	return &out, nil
}
