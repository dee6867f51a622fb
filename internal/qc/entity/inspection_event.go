package entity

import (
	"time"

	"gorm.io/datatypes"
)

// InspectionEvent 单次检验提交的不可变事件，记录增量
type InspectionEvent struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	QCRecordID string `json:"qc_record_id" gorm:"size:32;not null;index"`
	Seq        int    `json:"seq" gorm:"not null"`

	CheckedDelta   int `json:"checked_delta"`
	PassedDelta    int `json:"passed_delta"`
	RejectedDelta  int `json:"rejected_delta"`
	ProvisionDelta int `json:"provision_delta"`

	// 本次新认领的标签
	Labels datatypes.JSONSlice[int64] `json:"labels" gorm:"type:jsonb"`

	Remarks    string    `json:"remarks" gorm:"type:text"`
	OperatorID string    `json:"operator_id" gorm:"size:32"`
	CreatedAt  time.Time `json:"created_at"`
}

func (InspectionEvent) TableName() string {
	return "qc_inspection_events"
}
