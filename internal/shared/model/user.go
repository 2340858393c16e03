package model

import "time"

// 角色常量
//
// 角色以字符串集合存储在用户文档上，新用户默认只有 viewer。
// 角色的管理性变更（提权/降权）不在本服务的 API 范围内。
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// User 用户
//
// 首次通过身份提供方登录时按 subject 幂等创建（upsert），
// 之后每次登录刷新 claims 快照和 last_login_at。用户不会被硬删除。
type User struct {
	ID          string    `bson:"_id" json:"id"`
	Subject     string    `bson:"subject" json:"-"` // 身份提供方的稳定主体标识
	Email       string    `bson:"email" json:"email"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	GivenName   string    `bson:"given_name,omitempty" json:"-"`
	FamilyName  string    `bson:"family_name,omitempty" json:"-"`
	Roles       []string  `bson:"roles" json:"roles"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	LastLoginAt time.Time `bson:"last_login_at" json:"last_login_at"`
}

// HasRole 用户是否持有指定角色
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole 用户是否持有任一指定角色
func (u *User) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}
