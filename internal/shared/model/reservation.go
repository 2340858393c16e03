package model

import (
	"strings"
	"time"
)

// ReservationState 预约状态
//
// 单向迁移：reserved → cancelled，cancelled 为终态。
type ReservationState string

const (
	ReservationStateReserved  ReservationState = "reserved"
	ReservationStateCancelled ReservationState = "cancelled"
)

// 姓名缺失时的占位文案
const (
	SurnameNotProvided = "no name provided"
	ForenameUnknown    = "unknown user"
)

// Reservation 预约
//
// forenames/surname 在创建时从用户档案派生一次并固化存储，
// 之后不随用户档案变化重新计算。
type Reservation struct {
	ID          string           `bson:"_id" json:"id"`
	BookID      string           `bson:"book_id" json:"book_id"`
	UserID      string           `bson:"user_id" json:"user_id"`
	Forenames   string           `bson:"forenames" json:"forenames"`
	Surname     string           `bson:"surname" json:"surname"`
	State       ReservationState `bson:"state" json:"state"`
	ReservedAt  time.Time        `bson:"reserved_at" json:"reserved_at"`
	CancelledAt *time.Time       `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
}

// Cancelled 预约是否已取消
func (r *Reservation) Cancelled() bool {
	return r.State == ReservationStateCancelled
}

// DeriveReservationName 从用户档案派生预约人姓名
//
// 优先级：
//  1. given_name 和 family_name 都存在时直接使用；
//  2. 否则按第一个空格拆分 display_name，剩余部分（可能为空）作为姓；
//  3. 否则用 email 作为名，姓为占位文案；
//  4. 都没有时名为 "unknown user" 占位。
func DeriveReservationName(givenName, familyName, displayName, email string) (forenames, surname string) {
	if givenName != "" && familyName != "" {
		return givenName, familyName
	}
	if displayName != "" {
		forenames, surname, _ = strings.Cut(displayName, " ")
		return forenames, surname
	}
	if email != "" {
		return email, SurnameNotProvided
	}
	return ForenameUnknown, SurnameNotProvided
}
