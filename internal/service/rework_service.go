package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/model"
	"assembly-qc/internal/repository"
	apperrors "assembly-qc/pkg/errors"
	"assembly-qc/pkg/shift"
)

// ── 返工模块业务错误 ──

var (
	ErrEventNotFound      = fmt.Errorf("%w: 检验记录不存在", apperrors.ErrNotFound)
	ErrReworkNotPending   = fmt.Errorf("%w: 该记录不处于返工状态", apperrors.ErrValidation)
	ErrInspectorRequired  = fmt.Errorf("%w: 缺少复检人", apperrors.ErrValidation)
	ErrReworkRangeInvalid = fmt.Errorf("%w: 查询区间需同时提供开始与结束日期", apperrors.ErrValidation)
)

// ReworkService 返工生命周期业务接口
//
// 状态机：REWORK 是唯一的非终态，复检可将其改为 OK / NG，
// 也可再次判为 REWORK（复检仍不合格时重新打开）。
type ReworkService interface {
	// ListPending 全部待复检记录（不限时间窗口）
	ListPending(ctx context.Context) ([]dto.InspectionEventResponse, error)
	// ListInWindow 班次窗口内的待复检记录（看板使用）
	ListInWindow(ctx context.Context, req *dto.DashboardRequest) ([]dto.InspectionEventResponse, error)
	// History 区间内曾进入返工的全部记录，无论是否已处理
	History(ctx context.Context, req *dto.ReworkHistoryRequest) ([]dto.InspectionEventResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateReworkRequest, inspector string) (*dto.InspectionEventResponse, error)
}

type reworkService struct {
	repo      *repository.Repository
	resolver  *shift.Resolver
	dashboard DashboardService
	logger    *zap.Logger
	now       func() time.Time
}

// NewReworkService 创建 ReworkService 实例
func NewReworkService(
	repo *repository.Repository,
	resolver *shift.Resolver,
	dashboard DashboardService,
	logger *zap.Logger,
) ReworkService {
	return &reworkService{
		repo:      repo,
		resolver:  resolver,
		dashboard: dashboard,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── ListPending ──────────────────────

func (s *reworkService) ListPending(ctx context.Context) ([]dto.InspectionEventResponse, error) {
	events, err := s.repo.Inspection.ListByStatus(ctx, repository.EventFilter{}, model.StatusRework)
	if err != nil {
		s.logger.Error("查询待复检列表失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}
	return toEventResponses(events, s.resolver), nil
}

// ────────────────────── ListInWindow ──────────────────────

func (s *reworkService) ListInWindow(ctx context.Context, req *dto.DashboardRequest) ([]dto.InspectionEventResponse, error) {
	w, err := s.dashboard.ResolveWindow(req)
	if err != nil {
		return nil, err
	}

	f := repository.EventFilter{From: w.Start, To: w.End, Model: req.Model}
	events, err := s.repo.Inspection.ListByStatus(ctx, f, model.StatusRework)
	if err != nil {
		s.logger.Error("查询班次返工记录失败", zap.String("date", w.Date), zap.Error(err))
		return nil, apperrors.Store(err)
	}
	return toEventResponses(events, s.resolver), nil
}

// ────────────────────── History ──────────────────────

func (s *reworkService) History(ctx context.Context, req *dto.ReworkHistoryRequest) ([]dto.InspectionEventResponse, error) {
	start, end := req.Start, req.End
	switch {
	case start == "" && end == "":
		today := s.resolver.DateOf(s.now())
		start, end = today, today
	case start == "" || end == "":
		return nil, ErrReworkRangeInvalid
	}

	from, to, err := s.resolver.DateRange(start, end)
	if err != nil {
		return nil, err
	}

	events, err := s.repo.Inspection.ListReworkHistory(ctx, from, to)
	if err != nil {
		s.logger.Error("查询返工历史失败", zap.String("start", start), zap.String("end", end), zap.Error(err))
		return nil, apperrors.Store(err)
	}
	return toEventResponses(events, s.resolver), nil
}

// ────────────────────── Update ──────────────────────

func (s *reworkService) Update(ctx context.Context, id string, req *dto.UpdateReworkRequest, inspector string) (*dto.InspectionEventResponse, error) {
	// event_id 为 UUID 列，格式非法的 id 不可能存在
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrEventNotFound
	}
	if !model.IsValidStatus(req.NewStatus) {
		return nil, ErrInvalidStatus
	}
	if name := strings.TrimSpace(req.Inspector); name != "" {
		inspector = name
	}
	if inspector == "" {
		return nil, ErrInspectorRequired
	}

	rows, err := s.repo.Inspection.UpdateRework(ctx, id, req.NewStatus, inspector, s.now().UTC())
	if err != nil {
		s.logger.Error("更新返工结果失败", zap.String("event_id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	event, err := s.repo.Inspection.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询检验记录失败", zap.String("event_id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}
	if rows == 0 {
		return nil, ErrReworkNotPending
	}

	s.logger.Info("返工复检完成",
		zap.String("event_id", id),
		zap.String("new_status", req.NewStatus),
		zap.String("inspector", inspector),
	)
	resp := toEventResponse(event, s.resolver)
	return &resp, nil
}
