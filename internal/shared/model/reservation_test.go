// Package model 核心数据模型测试
package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// 预约人姓名派生
// ============================================================================

// TestDeriveReservationName 验证姓名派生的优先级规则
func TestDeriveReservationName(t *testing.T) {
	tests := []struct {
		name          string
		givenName     string
		familyName    string
		displayName   string
		email         string
		wantForenames string
		wantSurname   string
	}{
		{
			name:          "完整档案优先使用 given/family",
			givenName:     "Ada",
			familyName:    "Lovelace",
			displayName:   "Ada King",
			email:         "ada@example.com",
			wantForenames: "Ada",
			wantSurname:   "Lovelace",
		},
		{
			name:          "仅 given 缺 family 时回退 display_name",
			givenName:     "Ada",
			displayName:   "Ada King",
			email:         "ada@example.com",
			wantForenames: "Ada",
			wantSurname:   "King",
		},
		{
			name:          "display_name 按第一个空格拆分",
			displayName:   "Mary Jane Watson",
			wantForenames: "Mary",
			wantSurname:   "Jane Watson",
		},
		{
			name:          "display_name 无空格时姓为空",
			displayName:   "Prince",
			wantForenames: "Prince",
			wantSurname:   "",
		},
		{
			name:          "只有 email 时姓为占位文案",
			email:         "ada@example.com",
			wantForenames: "ada@example.com",
			wantSurname:   SurnameNotProvided,
		},
		{
			name:          "档案全空时使用占位文案",
			wantForenames: ForenameUnknown,
			wantSurname:   SurnameNotProvided,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forenames, surname := DeriveReservationName(tt.givenName, tt.familyName, tt.displayName, tt.email)
			assert.Equal(t, tt.wantForenames, forenames)
			assert.Equal(t, tt.wantSurname, surname)
		})
	}
}

// ============================================================================
// 状态与序列化
// ============================================================================

// TestReservation_Cancelled 验证终态判断
func TestReservation_Cancelled(t *testing.T) {
	res := Reservation{State: ReservationStateReserved}
	assert.False(t, res.Cancelled())

	res.State = ReservationStateCancelled
	assert.True(t, res.Cancelled())
}

// TestReservation_JSON 验证 cancelled_at 仅在取消后出现
func TestReservation_JSON(t *testing.T) {
	res := Reservation{
		ID:         "res-001",
		BookID:     "book-001",
		UserID:     "user-001",
		Forenames:  "Ada",
		Surname:    "Lovelace",
		State:      ReservationStateReserved,
		ReservedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(&res)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "reserved", m["state"])
	assert.Equal(t, "2026-03-01T12:00:00Z", m["reserved_at"])
	assert.NotContains(t, m, "cancelled_at")

	at := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	res.State = ReservationStateCancelled
	res.CancelledAt = &at

	data, err = json.Marshal(&res)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "cancelled", m["state"])
	assert.Equal(t, "2026-03-02T08:00:00Z", m["cancelled_at"])
}
