package model

import "time"

// 检验判定
const (
	StatusOK     = "OK"
	StatusNG     = "NG"
	StatusRework = "REWORK"
)

// 对称件左右侧
const (
	SideLeft  = "L"
	SideRight = "R"
)

// SerialNumberNone 未提供序列号时的占位值
const SerialNumberNone = "N/A"

// InspectionEvent 单件检验记录 — 对应 qc_logs
// 创建后仅返工字段可修改；状态只能经返工流程从 REWORK 变更
type InspectionEvent struct {
	EventID         string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Model           string     `gorm:"type:varchar(100);not null"                     json:"model"`
	PartCode        *string    `gorm:"type:varchar(100)"                              json:"part_code"`
	SerialNumber    string     `gorm:"type:varchar(100);not null;default:'N/A'"       json:"serial_number"`
	Status          string     `gorm:"type:varchar(10);not null"                      json:"status"`
	Defect          *string    `gorm:"type:varchar(200)"                              json:"defect"`
	Side            *string    `gorm:"type:varchar(1)"                                json:"side"`
	Timestamp       time.Time  `gorm:"column:logged_at;not null"                      json:"timestamp"`
	OperatorID      string     `gorm:"type:uuid;not null"                             json:"operator_id"`
	OperatorName    string     `gorm:"type:varchar(100);not null"                     json:"operator_name"`
	ReworkCheckedBy *string    `gorm:"type:varchar(100)"                              json:"rework_checked_by,omitempty"`
	ReworkCheckedAt *time.Time `json:"rework_checked_at,omitempty"`
}

// TableName 指定表名
func (InspectionEvent) TableName() string { return "qc_logs" }

// GroupKey 料架分组键：有零件号用零件号，否则用机型
func (e *InspectionEvent) GroupKey() string {
	if e.PartCode != nil && *e.PartCode != "" {
		return *e.PartCode
	}
	return e.Model
}

// IsValidStatus 判定是否合法
func IsValidStatus(s string) bool {
	return s == StatusOK || s == StatusNG || s == StatusRework
}

// IsValidSide 左右侧是否合法
func IsValidSide(s string) bool {
	return s == SideLeft || s == SideRight
}
