package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assembly-qc/internal/model"
)

// PlanRepository 生产计划数据访问接口
type PlanRepository interface {
	// Upsert 按 (date_string, model, shift, part_code) 覆盖写入
	Upsert(ctx context.Context, plan *model.ProductionPlan) error
	// List 按写入顺序返回匹配的计划
	List(ctx context.Context, f PlanFilter) ([]model.ProductionPlan, error)
	// ListByDateRange 闭区间 [from, to] 内的计划
	ListByDateRange(ctx context.Context, from, to, modelName string) ([]model.ProductionPlan, error)
}

type planRepo struct {
	db *gorm.DB
}

// NewPlanRepo 创建 PlanRepository 实例
func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) Upsert(ctx context.Context, plan *model.ProductionPlan) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "date_string"},
				{Name: "model"},
				{Name: "shift"},
				{Name: "part_code"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"target_quantity",
				"cycle_time_seconds",
				"updated_at",
				"updated_by",
			}),
		}).
		Create(plan).Error
}

func (r *planRepo) List(ctx context.Context, f PlanFilter) ([]model.ProductionPlan, error) {
	var plans []model.ProductionPlan
	db := r.db.WithContext(ctx).Where("date_string = ?", f.DateString)
	if f.Shift != "" {
		db = db.Where("shift = ?", f.Shift)
	}
	if f.Model != "" {
		db = db.Where("model = ?", f.Model)
	}
	err := db.Order("created_at ASC, part_code ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepo) ListByDateRange(ctx context.Context, from, to, modelName string) ([]model.ProductionPlan, error) {
	var plans []model.ProductionPlan
	db := r.db.WithContext(ctx).Where("date_string BETWEEN ? AND ?", from, to)
	if modelName != "" {
		db = db.Where("model = ?", modelName)
	}
	err := db.Order("date_string ASC, shift ASC, model ASC, part_code ASC").Find(&plans).Error
	return plans, err
}
