package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/model"
	"assembly-qc/internal/repository"
	apperrors "assembly-qc/pkg/errors"
	"assembly-qc/pkg/shift"
)

// ── 检验记录模块业务错误 ──

var (
	ErrDefectRequired   = fmt.Errorf("%w: NG 记录必须填写不良项", apperrors.ErrValidation)
	ErrInvalidStatus    = fmt.Errorf("%w: 判定仅支持 OK、NG、REWORK", apperrors.ErrValidation)
	ErrInvalidSide      = fmt.Errorf("%w: 左右侧仅支持 L 或 R", apperrors.ErrValidation)
	ErrModelRequired    = fmt.Errorf("%w: 机型不能为空", apperrors.ErrValidation)
	ErrNothingToUndo    = fmt.Errorf("%w: 今日暂无可撤销的记录", apperrors.ErrNotFound)
	ErrOperatorRequired = fmt.Errorf("%w: 缺少作业员信息", apperrors.ErrValidation)
)

// InspectionService 检验记录与作业员当日统计业务接口
type InspectionService interface {
	Log(ctx context.Context, req *dto.LogQCRequest, operator dto.Operator) (*dto.InspectionEventResponse, error)
	// UndoLast 删除作业员今日最近一条记录并原样返回
	UndoLast(ctx context.Context, operatorID string) (*dto.InspectionEventResponse, error)
	// ResetToday 删除作业员今日全部记录，不可恢复
	ResetToday(ctx context.Context, operatorID string) (*dto.ResetTodayResponse, error)
	// StatsFor 作业员 [本地零点, now) 内的统计
	StatsFor(ctx context.Context, operatorID string, req *dto.OperatorStatsRequest) (*dto.OperatorStatsResponse, error)
}

type inspectionService struct {
	repo     *repository.Repository
	resolver *shift.Resolver
	opts     AnalyticsOptions
	logger   *zap.Logger
	now      func() time.Time
}

// NewInspectionService 创建 InspectionService 实例
func NewInspectionService(
	repo *repository.Repository,
	resolver *shift.Resolver,
	opts AnalyticsOptions,
	logger *zap.Logger,
) InspectionService {
	return &inspectionService{
		repo:     repo,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── Log ──────────────────────

func (s *inspectionService) Log(ctx context.Context, req *dto.LogQCRequest, operator dto.Operator) (*dto.InspectionEventResponse, error) {
	if operator.ID == "" {
		return nil, ErrOperatorRequired
	}
	modelName := strings.TrimSpace(req.Model)
	if modelName == "" {
		return nil, ErrModelRequired
	}
	if !model.IsValidStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	defect := optionalString(req.Defect)
	if req.Status == model.StatusNG && defect == nil {
		return nil, ErrDefectRequired
	}
	side := optionalString(req.Side)
	if side != nil && !model.IsValidSide(*side) {
		return nil, ErrInvalidSide
	}

	serial := strings.TrimSpace(req.SerialNumber)
	if serial == "" {
		serial = model.SerialNumberNone
	}

	event := &model.InspectionEvent{
		Model:        modelName,
		PartCode:     optionalString(req.PartCode),
		SerialNumber: serial,
		Status:       req.Status,
		Defect:       defect,
		Side:         side,
		Timestamp:    s.now().UTC(),
		OperatorID:   operator.ID,
		OperatorName: operator.Name,
	}
	if err := s.repo.Inspection.Create(ctx, event); err != nil {
		s.logger.Error("写入检验记录失败", zap.String("operator_id", operator.ID), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	s.logger.Debug("检验记录已写入",
		zap.String("event_id", event.EventID),
		zap.String("model", event.Model),
		zap.String("status", event.Status),
	)
	resp := toEventResponse(event, s.resolver)
	return &resp, nil
}

// ────────────────────── UndoLast ──────────────────────

func (s *inspectionService) UndoLast(ctx context.Context, operatorID string) (*dto.InspectionEventResponse, error) {
	since := s.resolver.DayStart(s.now())

	event, err := s.repo.Inspection.LatestByOperator(ctx, operatorID, since)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNothingToUndo
		}
		s.logger.Error("查询最近检验记录失败", zap.String("operator_id", operatorID), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	rows, err := s.repo.Inspection.Delete(ctx, event.EventID)
	if err != nil {
		s.logger.Error("撤销检验记录失败", zap.String("event_id", event.EventID), zap.Error(err))
		return nil, apperrors.Store(err)
	}
	if rows == 0 {
		// 并发撤销时已被删除
		return nil, ErrNothingToUndo
	}

	s.logger.Info("检验记录已撤销", zap.String("event_id", event.EventID), zap.String("operator_id", operatorID))
	resp := toEventResponse(event, s.resolver)
	return &resp, nil
}

// ────────────────────── ResetToday ──────────────────────

func (s *inspectionService) ResetToday(ctx context.Context, operatorID string) (*dto.ResetTodayResponse, error) {
	since := s.resolver.DayStart(s.now())

	deleted, err := s.repo.Inspection.DeleteByOperatorSince(ctx, operatorID, since)
	if err != nil {
		s.logger.Error("清空今日记录失败", zap.String("operator_id", operatorID), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	s.logger.Warn("作业员今日记录已清空",
		zap.String("operator_id", operatorID),
		zap.Int64("deleted", deleted),
	)
	return &dto.ResetTodayResponse{Deleted: deleted}, nil
}

// ────────────────────── StatsFor ──────────────────────

func (s *inspectionService) StatsFor(ctx context.Context, operatorID string, req *dto.OperatorStatsRequest) (*dto.OperatorStatsResponse, error) {
	now := s.now()
	f := repository.EventFilter{
		From:       s.resolver.DayStart(now),
		To:         now,
		Model:      req.Model,
		OperatorID: operatorID,
	}

	var (
		status map[string]int64
		sides  map[string]int64
		parts  []model.PartCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		status, err = s.repo.Inspection.CountByStatus(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		sides, err = s.repo.Inspection.CountOKBySide(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		parts, err = s.repo.Inspection.PartSummary(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("作业员统计失败", zap.String("operator_id", operatorID), zap.Error(err))
		return nil, errors.Join(ErrAggregationFailed, err)
	}

	ok, ng, rework := status[model.StatusOK], status[model.StatusNG], status[model.StatusRework]
	return &dto.OperatorStatsResponse{
		OK:      ok,
		NG:      ng,
		Rework:  rework,
		Total:   ok + ng + rework,
		OKLeft:  sides[model.SideLeft],
		OKRight: sides[model.SideRight],
		Racks:   BuildRacks(parts, s.opts.PackSize),
	}, nil
}

// ── 转换辅助 ──

// optionalString 空白字符串视为未填写
func optionalString(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toEventResponse(e *model.InspectionEvent, resolver *shift.Resolver) dto.InspectionEventResponse {
	loc := resolver.Location()
	resp := dto.InspectionEventResponse{
		ID:              e.EventID,
		Model:           e.Model,
		PartCode:        e.PartCode,
		SerialNumber:    e.SerialNumber,
		Status:          e.Status,
		Defect:          e.Defect,
		Side:            e.Side,
		Timestamp:       e.Timestamp.In(loc),
		OperatorID:      e.OperatorID,
		OperatorName:    e.OperatorName,
		ReworkCheckedBy: e.ReworkCheckedBy,
	}
	if e.ReworkCheckedAt != nil {
		at := e.ReworkCheckedAt.In(loc)
		resp.ReworkCheckedAt = &at
	}
	return resp
}

func toEventResponses(events []model.InspectionEvent, resolver *shift.Resolver) []dto.InspectionEventResponse {
	list := make([]dto.InspectionEventResponse, 0, len(events))
	for i := range events {
		list = append(list, toEventResponse(&events[i], resolver))
	}
	return list
}
