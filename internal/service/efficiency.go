package service

import (
	"time"

	"github.com/shopspring/decimal"

	"assembly-qc/config"
	"assembly-qc/internal/dto"
	"assembly-qc/internal/model"
	"assembly-qc/pkg/shift"
)

// 生产节奏状态
const (
	PaceFast    = "fast"
	PaceSlow    = "slow"
	PaceOnTrack = "on_track"
)

// AnalyticsOptions 分析引擎参数（由配置注入）
type AnalyticsOptions struct {
	PackSize             int
	CycleTimePolicy      string
	FastThresholdMinutes int64
	SlowThresholdMinutes int64
}

// NewAnalyticsOptions 由配置构造分析参数
func NewAnalyticsOptions(cfg *config.AnalyticsConfig) AnalyticsOptions {
	return AnalyticsOptions{
		PackSize:             cfg.PackSize,
		CycleTimePolicy:      cfg.CycleTimePolicy,
		FastThresholdMinutes: int64(cfg.FastThresholdMinutes),
		SlowThresholdMinutes: int64(cfg.SlowThresholdMinutes),
	}
}

// Efficiency 效率估算结果
type Efficiency struct {
	CycleTimeSeconds    int
	ExpectedQuantity    int64
	EfficiencyPct       float64
	TimeVarianceMinutes int64
	Status              string
}

// ────────────────────── 节拍选取 ──────────────────────

// SelectCycleTime 从匹配计划中选出代表节拍（秒），0 表示无节拍信号
//
//   - last:     按计划顺序最后一个非零节拍
//   - weighted: 以目标数量加权平均非零节拍；目标数量全为 0 时取算术平均
func SelectCycleTime(plans []model.ProductionPlan, policy string) int {
	if policy == config.CycleTimePolicyWeighted {
		return weightedCycleTime(plans)
	}

	cycle := 0
	for _, p := range plans {
		if p.CycleTimeSeconds > 0 {
			cycle = p.CycleTimeSeconds
		}
	}
	return cycle
}

func weightedCycleTime(plans []model.ProductionPlan) int {
	var (
		weighted = decimal.Zero
		qty      = decimal.Zero
		sum      = decimal.Zero
		n        int64
	)
	for _, p := range plans {
		if p.CycleTimeSeconds <= 0 {
			continue
		}
		ct := decimal.NewFromInt(int64(p.CycleTimeSeconds))
		weighted = weighted.Add(ct.Mul(decimal.NewFromInt(int64(p.TargetQuantity))))
		qty = qty.Add(decimal.NewFromInt(int64(p.TargetQuantity)))
		sum = sum.Add(ct)
		n++
	}
	if n == 0 {
		return 0
	}
	if qty.IsZero() {
		return int(sum.Div(decimal.NewFromInt(n)).Round(0).IntPart())
	}
	return int(weighted.Div(qty).Round(0).IntPart())
}

// ────────────────────── 效率估算 ──────────────────────

// EstimateEfficiency 根据合格数、匹配计划与当前时刻估算生产节奏
func EstimateEfficiency(totalOK int64, plans []model.ProductionPlan, w shift.Window, now time.Time, opts AnalyticsOptions) Efficiency {
	result := Efficiency{Status: PaceOnTrack}

	cycle := SelectCycleTime(plans, opts.CycleTimePolicy)
	if cycle <= 0 {
		return result
	}
	result.CycleTimeSeconds = cycle

	elapsed := int64(w.Elapsed(now) / time.Second)
	result.ExpectedQuantity = elapsed / int64(cycle)

	if result.ExpectedQuantity > 0 {
		result.EfficiencyPct = decimal.NewFromInt(totalOK).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(result.ExpectedQuantity)).
			Round(2).
			InexactFloat64()
	}

	result.TimeVarianceMinutes = decimal.NewFromInt((totalOK - result.ExpectedQuantity) * int64(cycle)).
		Div(decimal.NewFromInt(60)).
		Round(0).
		IntPart()

	switch {
	case result.TimeVarianceMinutes > opts.FastThresholdMinutes:
		result.Status = PaceFast
	case result.TimeVarianceMinutes < -opts.SlowThresholdMinutes:
		result.Status = PaceSlow
	}
	return result
}

// ────────────────────── 料架 ──────────────────────

// BuildRacks 将 (机型, 零件号) 合格数换算为满架数与零头
func BuildRacks(parts []model.PartCount, packSize int) []dto.RackResponse {
	racks := make([]dto.RackResponse, 0, len(parts))
	size := int64(packSize)
	for _, p := range parts {
		racks = append(racks, dto.RackResponse{
			Model:         p.Model,
			PartCode:      p.PartCode,
			TotalOK:       p.TotalOK,
			FullRacks:     p.TotalOK / size,
			PendingPieces: p.TotalOK % size,
		})
	}
	return racks
}

// SumTargets 计划总量（零件级计划累加，不去重）
func SumTargets(plans []model.ProductionPlan) int64 {
	var total int64
	for _, p := range plans {
		total += int64(p.TargetQuantity)
	}
	return total
}
