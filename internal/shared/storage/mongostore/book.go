package mongostore

import (
	"context"

	"bookshelf-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// BookStore
// ============================================================================

// notDeleted 在架书籍的状态谓词
// 历史数据在创建时不写 state 字段，因此用 $ne 而不是等值匹配
func notDeleted() bson.E {
	return bson.E{Key: "state", Value: bson.D{{Key: "$ne", Value: model.BookStateDeleted}}}
}

func (s *Store) CreateBook(ctx context.Context, book *model.Book) error {
	return insertOne(ctx, s, ColBooks, book)
}

func (s *Store) GetBook(ctx context.Context, id string) (*model.Book, error) {
	filter := bson.D{{Key: "_id", Value: id}, notDeleted()}
	return findOne[model.Book](ctx, s, ColBooks, filter)
}

func (s *Store) ListBooks(ctx context.Context, limit, offset int) ([]*model.Book, int, error) {
	filter := bson.D{notDeleted()}

	// 总数反映未删除书籍全集，与分页窗口无关
	total, err := s.col(ColBooks).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	books, err := findMany[model.Book](ctx, s, ColBooks, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return books, int(total), nil
}

func (s *Store) ReplaceBook(ctx context.Context, id string, title, author, synopsis string, links model.BookLinks) (*model.Book, error) {
	filter := bson.D{{Key: "_id", Value: id}, notDeleted()}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "title", Value: title},
		{Key: "author", Value: author},
		{Key: "synopsis", Value: synopsis},
		{Key: "links", Value: links},
	}}}
	return findOneAndUpdate[model.Book](ctx, s, ColBooks, filter, update)
}

func (s *Store) SoftDeleteBook(ctx context.Context, id string) (*model.Book, error) {
	filter := bson.D{{Key: "_id", Value: id}, notDeleted()}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: model.BookStateDeleted},
	}}}
	return findOneAndUpdate[model.Book](ctx, s, ColBooks, filter, update)
}
