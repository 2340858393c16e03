package mongostore

import (
	"context"

	"bookshelf-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s, ColUsers, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserBySubject(ctx context.Context, subject string) (*model.User, error) {
	return findOne[model.User](ctx, s, ColUsers, bson.D{{Key: "subject", Value: subject}})
}

// UpsertUserBySubject 按 subject 幂等写入用户
//
// $setOnInsert 仅在首次登录时生效（内部 ID、默认角色、创建时间），
// $set 每次登录刷新 claims 快照和 last_login_at。subject 上的唯一索引
// 保证并发首登只创建一个文档。
func (s *Store) UpsertUserBySubject(ctx context.Context, candidate *model.User) (*model.User, error) {
	filter := bson.D{{Key: "subject", Value: candidate.Subject}}
	update := bson.D{
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "_id", Value: candidate.ID},
			{Key: "roles", Value: candidate.Roles},
			{Key: "created_at", Value: candidate.CreatedAt},
		}},
		{Key: "$set", Value: bson.D{
			{Key: "email", Value: candidate.Email},
			{Key: "display_name", Value: candidate.DisplayName},
			{Key: "given_name", Value: candidate.GivenName},
			{Key: "family_name", Value: candidate.FamilyName},
			{Key: "last_login_at", Value: candidate.LastLoginAt},
		}},
	}
	return upsertOne[model.User](ctx, s, ColUsers, filter, update)
}
