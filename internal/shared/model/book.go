// Package model 定义书籍目录系统的核心数据模型
//
// 模型通过 bson tag 持久化到 MongoDB，通过 json tag 序列化到 HTTP 响应。
// 对外不可见的字段（软删除状态、内部归属信息）用 json:"-" 屏蔽，
// 由各 handler 的投影类型决定最终响应形态。
package model

import "fmt"

// BookState 书籍状态
//
// 书籍创建时不写入 state 字段（bson omitempty），所有读取过滤器
// 将缺失 state 的文档视为在架。状态单向迁移：在架 → 已删除，无恢复操作。
type BookState string

const (
	// BookStateDeleted 软删除标记
	BookStateDeleted BookState = "deleted"
)

// BookLinks 书籍关联资源的相对路径
//
// 始终以相对路径存储，响应时由传输层拼接请求的 scheme+host 生成绝对 URL。
type BookLinks struct {
	Self         string `bson:"self" json:"self"`
	Reservations string `bson:"reservations" json:"reservations"`
	Reviews      string `bson:"reviews" json:"reviews"`
}

// NewBookLinks 根据书籍 ID 生成相对链接
func NewBookLinks(id string) BookLinks {
	return BookLinks{
		Self:         fmt.Sprintf("/books/%s", id),
		Reservations: fmt.Sprintf("/books/%s/reservations", id),
		Reviews:      fmt.Sprintf("/books/%s/reviews", id),
	}
}

// Book 书籍
type Book struct {
	ID       string    `bson:"_id" json:"id"`
	Title    string    `bson:"title" json:"title"`
	Author   string    `bson:"author" json:"author"`
	Synopsis string    `bson:"synopsis" json:"synopsis"`
	Links    BookLinks `bson:"links" json:"links"`
	State    BookState `bson:"state,omitempty" json:"-"`
}

// Deleted 书籍是否已被软删除
func (b *Book) Deleted() bool {
	return b.State == BookStateDeleted
}
