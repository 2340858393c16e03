package mongostore

import (
	"context"
	"errors"
	"time"

	"bookshelf-api/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// wrapError 将 MongoDB 错误转换为领域错误
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}

// logQuery 记录查询耗时
// 文档未命中（ErrNotFound）是正常业务结果，不按故障记录
func logQuery(s *Store, operation, col string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	s.logger.DBQueryLog(operation, col, time.Since(start), err)
}

// findOne 查找单个文档并解码到 result
// 文档不存在时返回 (nil, nil)，调用方据此映射 404
func findOne[T any](ctx context.Context, s *Store, col string, filter bson.D) (*T, error) {
	start := time.Now()
	var result T
	err := s.col(col).FindOne(ctx, filter).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logQuery(s, "findOne", col, start, nil)
			return nil, nil
		}
		err = wrapError(err)
		logQuery(s, "findOne", col, start, err)
		return nil, err
	}
	logQuery(s, "findOne", col, start, nil)
	return &result, nil
}

// findMany 查找多个文档
func findMany[T any](ctx context.Context, s *Store, col string, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	start := time.Now()
	cursor, err := s.col(col).Find(ctx, filter, opts...)
	if err != nil {
		err = wrapError(err)
		logQuery(s, "find", col, start, err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []*T
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			logQuery(s, "find", col, start, err)
			return nil, err
		}
		results = append(results, &item)
	}
	if err := cursor.Err(); err != nil {
		logQuery(s, "find", col, start, err)
		return nil, err
	}
	if results == nil {
		results = []*T{}
	}
	logQuery(s, "find", col, start, nil)
	return results, nil
}

// insertOne 插入单个文档
func insertOne(ctx context.Context, s *Store, col string, doc interface{}) error {
	start := time.Now()
	_, err := s.col(col).InsertOne(ctx, doc)
	err = wrapError(err)
	logQuery(s, "insertOne", col, start, err)
	return err
}

// findOneAndUpdate 原子条件更新并返回更新后的文档
// 过滤条件不匹配（不存在或状态前置条件已失效）时返回 storage.ErrNotFound
func findOneAndUpdate[T any](ctx context.Context, s *Store, col string, filter, update bson.D) (*T, error) {
	start := time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var result T
	err := s.col(col).FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err != nil {
		err = wrapError(err)
		logQuery(s, "findOneAndUpdate", col, start, err)
		return nil, err
	}
	logQuery(s, "findOneAndUpdate", col, start, nil)
	return &result, nil
}

// upsertOne 原子 upsert 并返回 upsert 之后的文档
func upsertOne[T any](ctx context.Context, s *Store, col string, filter, update bson.D) (*T, error) {
	start := time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true)
	var result T
	err := s.col(col).FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err != nil {
		err = wrapError(err)
		logQuery(s, "upsert", col, start, err)
		return nil, err
	}
	logQuery(s, "upsert", col, start, nil)
	return &result, nil
}
