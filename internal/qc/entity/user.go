package entity

import "time"

// User 系统用户
type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Username string `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Name     string `json:"name" gorm:"size:100;not null"`
	Email    string `json:"email" gorm:"size:100"`
	Role     string `json:"role" gorm:"size:20;not null;default:qc"` // admin/manager/qc
	Status   string `json:"status" gorm:"size:20;default:active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "qc_users"
}

// 用户角色
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleQC      = "qc"
)
