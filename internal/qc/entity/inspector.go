package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Inspector QC检验员，跟踪标签分配与消耗
type Inspector struct {
	ID     string `json:"id" gorm:"primaryKey;size:32"`
	UserID string `json:"user_id" gorm:"size:32;uniqueIndex;not null"`

	// 标签账本：used_labels ⊆ alloted_labels
	AllotedLabels datatypes.JSONSlice[int64] `json:"alloted_labels" gorm:"type:jsonb"`
	UsedLabels    datatypes.JSONSlice[int64] `json:"used_labels" gorm:"type:jsonb"`

	// 最近一次分配标签的管理员
	AllocatedBy *string `json:"allocated_by" gorm:"size:32"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Inspector) TableName() string {
	return "qc_inspectors"
}
