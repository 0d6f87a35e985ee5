package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/model"
	"assembly-qc/internal/repository"
	apperrors "assembly-qc/pkg/errors"
	"assembly-qc/pkg/shift"
)

// ── 生产计划模块业务错误 ──

var (
	ErrPlanTargetNegative = fmt.Errorf("%w: 目标数量不能为负", apperrors.ErrValidation)
	ErrPlanCycleNegative  = fmt.Errorf("%w: 节拍时间不能为负", apperrors.ErrValidation)
)

// PlanService 生产计划业务接口
type PlanService interface {
	// SetPlan 按 (日期, 机型, 班次, 零件号) 覆盖写入，不产生重复
	SetPlan(ctx context.Context, req *dto.SetPlanRequest, callerID string) (*dto.PlanResponse, error)
	List(ctx context.Context, req *dto.PlanListRequest) ([]dto.PlanResponse, error)
}

type planService struct {
	repo     *repository.Repository
	resolver *shift.Resolver
	logger   *zap.Logger
}

// NewPlanService 创建 PlanService 实例
func NewPlanService(repo *repository.Repository, resolver *shift.Resolver, logger *zap.Logger) PlanService {
	return &planService{repo: repo, resolver: resolver, logger: logger}
}

// ────────────────────── SetPlan ──────────────────────

func (s *planService) SetPlan(ctx context.Context, req *dto.SetPlanRequest, callerID string) (*dto.PlanResponse, error) {
	if _, err := s.resolver.ParseDate(req.DateString); err != nil {
		return nil, err
	}
	label, err := shift.ParseShift(req.Shift)
	if err != nil {
		return nil, err
	}
	modelName := strings.TrimSpace(req.Model)
	if modelName == "" {
		return nil, ErrModelRequired
	}
	if req.TargetQuantity == nil || *req.TargetQuantity < 0 {
		return nil, ErrPlanTargetNegative
	}
	if req.CycleTimeSeconds < 0 {
		return nil, ErrPlanCycleNegative
	}

	partCode := strings.TrimSpace(req.PartCode)
	if partCode == "" {
		partCode = model.PartCodeGeneral
	}

	plan := &model.ProductionPlan{
		DateString:       req.DateString,
		Model:            modelName,
		Shift:            string(label),
		PartCode:         partCode,
		TargetQuantity:   *req.TargetQuantity,
		CycleTimeSeconds: req.CycleTimeSeconds,
	}
	if callerID != "" {
		plan.CreatedBy = &callerID
		plan.UpdatedBy = &callerID
	}

	if err := s.repo.Plan.Upsert(ctx, plan); err != nil {
		s.logger.Error("写入生产计划失败",
			zap.String("date", plan.DateString),
			zap.String("model", plan.Model),
			zap.String("shift", plan.Shift),
			zap.Error(err),
		)
		return nil, apperrors.Store(err)
	}

	s.logger.Info("生产计划已更新",
		zap.String("date", plan.DateString),
		zap.String("model", plan.Model),
		zap.String("shift", plan.Shift),
		zap.String("part_code", plan.PartCode),
		zap.Int("target", plan.TargetQuantity),
	)
	resp := toPlanResponse(plan)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *planService) List(ctx context.Context, req *dto.PlanListRequest) ([]dto.PlanResponse, error) {
	if _, err := s.resolver.ParseDate(req.Date); err != nil {
		return nil, err
	}
	if req.Shift != "" {
		if _, err := shift.ParseShift(req.Shift); err != nil {
			return nil, err
		}
	}

	plans, err := s.repo.Plan.List(ctx, repository.PlanFilter{
		DateString: req.Date,
		Shift:      req.Shift,
		Model:      req.Model,
	})
	if err != nil {
		s.logger.Error("查询生产计划失败", zap.String("date", req.Date), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	list := make([]dto.PlanResponse, 0, len(plans))
	for i := range plans {
		list = append(list, toPlanResponse(&plans[i]))
	}
	return list, nil
}

func toPlanResponse(p *model.ProductionPlan) dto.PlanResponse {
	resp := dto.PlanResponse{
		ID:               p.PlanID,
		DateString:       p.DateString,
		Model:            p.Model,
		Shift:            p.Shift,
		PartCode:         p.PartCode,
		TargetQuantity:   p.TargetQuantity,
		CycleTimeSeconds: p.CycleTimeSeconds,
	}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
