package mongostore

import (
	"context"
	"time"

	"bookshelf-api/internal/shared/model"
	"bookshelf-api/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ReservationStore
// ============================================================================

func (s *Store) CreateReservation(ctx context.Context, res *model.Reservation) error {
	return insertOne(ctx, s, ColReservations, res)
}

func (s *Store) GetReservation(ctx context.Context, bookID, id string) (*model.Reservation, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "book_id", Value: bookID},
	}
	return findOne[model.Reservation](ctx, s, ColReservations, filter)
}

func (s *Store) ListReservations(ctx context.Context, f storage.ReservationFilter) ([]*model.Reservation, error) {
	filter := bson.D{}
	if f.BookID != "" {
		filter = append(filter, bson.E{Key: "book_id", Value: f.BookID})
	}
	if f.UserID != "" {
		filter = append(filter, bson.E{Key: "user_id", Value: f.UserID})
	}
	opts := options.Find().SetSort(bson.D{{Key: "reserved_at", Value: -1}})
	return findMany[model.Reservation](ctx, s, ColReservations, filter, opts)
}

func (s *Store) CancelReservation(ctx context.Context, bookID, id string, at time.Time) (*model.Reservation, error) {
	// 状态谓词保证两个并发取消恰有一个成功，另一个观察到非匹配
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "book_id", Value: bookID},
		{Key: "state", Value: model.ReservationStateReserved},
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: model.ReservationStateCancelled},
		{Key: "cancelled_at", Value: at},
	}}}
	return findOneAndUpdate[model.Reservation](ctx, s, ColReservations, filter, update)
}
