package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"assembly-qc/internal/model"
)

// DefectUnspecified 未填写不良项的 NG 记录归入此组
const DefectUnspecified = "UNSPECIFIED"

// InspectionRepository 检验记录数据访问接口
// 所有聚合方法只读，可被同一请求并发调用
type InspectionRepository interface {
	Create(ctx context.Context, event *model.InspectionEvent) error
	GetByID(ctx context.Context, id string) (*model.InspectionEvent, error)
	Delete(ctx context.Context, id string) (int64, error)

	// ── 分组聚合 ──
	CountByStatus(ctx context.Context, f EventFilter) (map[string]int64, error)
	CountOKBySide(ctx context.Context, f EventFilter) (map[string]int64, error)
	DefectSummary(ctx context.Context, f EventFilter) ([]model.DefectCount, error)
	HourlySummary(ctx context.Context, f EventFilter, offsetMinutes int) ([]model.HourlyCount, error)
	PartSummary(ctx context.Context, f EventFilter) ([]model.PartCount, error)

	// ── 作业员当日 ──
	LatestByOperator(ctx context.Context, operatorID string, since time.Time) (*model.InspectionEvent, error)
	DeleteByOperatorSince(ctx context.Context, operatorID string, since time.Time) (int64, error)

	// ── 返工 ──
	ListByStatus(ctx context.Context, f EventFilter, status string) ([]model.InspectionEvent, error)
	ListReworkHistory(ctx context.Context, from, to time.Time) ([]model.InspectionEvent, error)
	// UpdateRework 仅当记录当前为 REWORK 时更新，返回受影响行数
	UpdateRework(ctx context.Context, id, status, inspector string, at time.Time) (int64, error)
}

type inspectionRepo struct {
	db *gorm.DB
}

// NewInspectionRepo 创建 InspectionRepository 实例
func NewInspectionRepo(db *gorm.DB) InspectionRepository {
	return &inspectionRepo{db: db}
}

func (r *inspectionRepo) base(ctx context.Context, f EventFilter) *gorm.DB {
	return f.scope(r.db.WithContext(ctx).Model(&model.InspectionEvent{}))
}

func (r *inspectionRepo) Create(ctx context.Context, event *model.InspectionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *inspectionRepo) GetByID(ctx context.Context, id string) (*model.InspectionEvent, error) {
	var event model.InspectionEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *inspectionRepo) Delete(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("event_id = ?", id).Delete(&model.InspectionEvent{})
	return res.RowsAffected, res.Error
}

// ────────────────────── 分组聚合 ──────────────────────

type groupCount struct {
	GroupKey string `gorm:"column:group_key"`
	Count    int64  `gorm:"column:count"`
}

func (r *inspectionRepo) CountByStatus(ctx context.Context, f EventFilter) (map[string]int64, error) {
	var rows []groupCount
	err := r.base(ctx, f).
		Select("status AS group_key, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r *inspectionRepo) CountOKBySide(ctx context.Context, f EventFilter) (map[string]int64, error) {
	var rows []groupCount
	err := r.base(ctx, f).
		Select("side AS group_key, COUNT(*) AS count").
		Where("status = ?", model.StatusOK).
		Where("side IN ?", []string{model.SideLeft, model.SideRight}).
		Group("side").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCountMap(rows), nil
}

func (r *inspectionRepo) DefectSummary(ctx context.Context, f EventFilter) ([]model.DefectCount, error) {
	var rows []model.DefectCount
	err := r.base(ctx, f).
		Select("COALESCE(NULLIF(defect, ''), ?) AS defect, COUNT(*) AS count", DefectUnspecified).
		Where("status = ?", model.StatusNG).
		Group("1").
		Order("count DESC, defect ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *inspectionRepo) HourlySummary(ctx context.Context, f EventFilter, offsetMinutes int) ([]model.HourlyCount, error) {
	var rows []model.HourlyCount
	err := r.base(ctx, f).
		Select(`CAST(EXTRACT(HOUR FROM (logged_at AT TIME ZONE 'UTC') + make_interval(mins => ?)) AS INTEGER) AS hour,
			SUM(CASE WHEN status = 'OK' THEN 1 ELSE 0 END) AS ok,
			SUM(CASE WHEN status = 'NG' THEN 1 ELSE 0 END) AS ng,
			SUM(CASE WHEN status = 'REWORK' THEN 1 ELSE 0 END) AS rework`, offsetMinutes).
		Group("hour").
		Order("hour ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *inspectionRepo) PartSummary(ctx context.Context, f EventFilter) ([]model.PartCount, error) {
	var rows []model.PartCount
	err := r.base(ctx, f).
		Select("model, COALESCE(NULLIF(part_code, ''), model) AS part_code, COUNT(*) AS total_ok").
		Where("status = ?", model.StatusOK).
		Group("model, COALESCE(NULLIF(part_code, ''), model)").
		Order("part_code ASC, model ASC").
		Scan(&rows).Error
	return rows, err
}

// ────────────────────── 作业员当日 ──────────────────────

func (r *inspectionRepo) LatestByOperator(ctx context.Context, operatorID string, since time.Time) (*model.InspectionEvent, error) {
	var event model.InspectionEvent
	err := r.db.WithContext(ctx).
		Where("operator_id = ? AND logged_at >= ?", operatorID, since).
		Order("logged_at DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *inspectionRepo) DeleteByOperatorSince(ctx context.Context, operatorID string, since time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("operator_id = ? AND logged_at >= ?", operatorID, since).
		Delete(&model.InspectionEvent{})
	return res.RowsAffected, res.Error
}

// ────────────────────── 返工 ──────────────────────

func (r *inspectionRepo) ListByStatus(ctx context.Context, f EventFilter, status string) ([]model.InspectionEvent, error) {
	var events []model.InspectionEvent
	err := r.base(ctx, f).
		Where("status = ?", status).
		Order("logged_at DESC").
		Find(&events).Error
	return events, err
}

func (r *inspectionRepo) ListReworkHistory(ctx context.Context, from, to time.Time) ([]model.InspectionEvent, error) {
	var events []model.InspectionEvent
	err := r.db.WithContext(ctx).
		Where("(status = ? OR rework_checked_at IS NOT NULL)", model.StatusRework).
		Where("((logged_at >= ? AND logged_at < ?) OR (rework_checked_at >= ? AND rework_checked_at < ?))", from, to, from, to).
		Order("logged_at DESC").
		Find(&events).Error
	return events, err
}

func (r *inspectionRepo) UpdateRework(ctx context.Context, id, status, inspector string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InspectionEvent{}).
		Where("event_id = ? AND status = ?", id, model.StatusRework).
		Updates(map[string]interface{}{
			"status":            status,
			"rework_checked_by": inspector,
			"rework_checked_at": at,
		})
	return res.RowsAffected, res.Error
}

func toCountMap(rows []groupCount) map[string]int64 {
	m := make(map[string]int64, len(rows))
	for _, row := range rows {
		m[row.GroupKey] = row.Count
	}
	return m
}
