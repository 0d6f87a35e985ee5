package model

// PartCodeGeneral 未区分零件的计划使用的零件号
const PartCodeGeneral = "General"

// ProductionPlan 生产计划表 — 对应 production_plans
// 唯一键 (date_string, model, shift, part_code)，按键覆盖写入
type ProductionPlan struct {
	PlanID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"            json:"id"`
	DateString       string `gorm:"type:varchar(10);not null;uniqueIndex:uq_production_plans_key,priority:1"  json:"date_string"`
	Model            string `gorm:"type:varchar(100);not null;uniqueIndex:uq_production_plans_key,priority:2" json:"model"`
	Shift            string `gorm:"type:varchar(10);not null;uniqueIndex:uq_production_plans_key,priority:3"  json:"shift"`
	PartCode         string `gorm:"type:varchar(100);not null;default:'General';uniqueIndex:uq_production_plans_key,priority:4" json:"part_code"`
	TargetQuantity   int    `gorm:"not null;default:0"                                        json:"target_quantity"`
	CycleTimeSeconds int    `gorm:"not null;default:0"                                        json:"cycle_time_seconds"` // 0 表示无节拍信号
	AuditedModel
}

// TableName 指定表名
func (ProductionPlan) TableName() string { return "production_plans" }
