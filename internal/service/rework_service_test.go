package service

import (
	"context"
	"errors"
	"testing"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/model"
	apperrors "assembly-qc/pkg/errors"
)

func TestListPending_GlobalAndSorted(t *testing.T) {
	r := newTestRepos()
	old := r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(1, 9, 0)})
	recent := r.inspection.seed(model.InspectionEvent{Model: "M2", Status: model.StatusRework, Timestamp: localAt(15, 9, 0)})
	r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusOK, Timestamp: localAt(15, 9, 5)})

	list, err := newTestRework(r, testNow).ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending 失败: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("待复检队列不限窗口，期望 2 条，实际 %d", len(list))
	}
	if list[0].ID != recent.EventID || list[1].ID != old.EventID {
		t.Error("待复检列表应按时间倒序")
	}
}

func TestListInWindow(t *testing.T) {
	r := newTestRepos()
	r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(14, 9, 0)})
	inShift := r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(15, 9, 0)})
	r.inspection.seed(model.InspectionEvent{Model: "M2", Status: model.StatusRework, Timestamp: localAt(15, 9, 30)})

	list, err := newTestRework(r, testNow).ListInWindow(context.Background(), &dto.DashboardRequest{Model: "M1"})
	if err != nil {
		t.Fatalf("ListInWindow 失败: %v", err)
	}
	if len(list) != 1 || list[0].ID != inShift.EventID {
		t.Errorf("看板返工列表应限定班次窗口与机型，实际 %+v", list)
	}
}

func TestUpdateRework(t *testing.T) {
	r := newTestRepos()
	event := r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(15, 8, 30)})
	svc := newTestRework(r, testNow)
	ctx := context.Background()

	resp, err := svc.Update(ctx, event.EventID, &dto.UpdateReworkRequest{NewStatus: model.StatusOK}, "Tran Thi B")
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if resp.Status != model.StatusOK {
		t.Errorf("期望 OK，实际 %s", resp.Status)
	}
	if resp.ReworkCheckedBy == nil || *resp.ReworkCheckedBy != "Tran Thi B" {
		t.Error("复检人应缺省为当前用户")
	}
	if resp.ReworkCheckedAt == nil || !resp.ReworkCheckedAt.Equal(testNow) {
		t.Errorf("复检时间应为当前时间，实际 %v", resp.ReworkCheckedAt)
	}

	// 已是终态，不可再复检
	_, err = svc.Update(ctx, event.EventID, &dto.UpdateReworkRequest{NewStatus: model.StatusNG}, "Tran Thi B")
	if !errors.Is(err, ErrReworkNotPending) {
		t.Errorf("期望 ErrReworkNotPending，实际 %v", err)
	}
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("终态复检应归入 ErrValidation，实际 %v", err)
	}
}

func TestUpdateRework_ReopenAndInspectorOverride(t *testing.T) {
	r := newTestRepos()
	event := r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(15, 8, 30)})

	resp, err := newTestRework(r, testNow).Update(context.Background(), event.EventID,
		&dto.UpdateReworkRequest{NewStatus: model.StatusRework, Inspector: "QA Lead"}, "Tran Thi B")
	if err != nil {
		t.Fatalf("重新打开返工应允许: %v", err)
	}
	if resp.Status != model.StatusRework || *resp.ReworkCheckedBy != "QA Lead" {
		t.Errorf("复检结果错误: %+v", resp)
	}
}

func TestUpdateRework_Errors(t *testing.T) {
	r := newTestRepos()
	event := r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(15, 8, 30)})
	svc := newTestRework(r, testNow)
	ctx := context.Background()

	if _, err := svc.Update(ctx, "00000000-0000-0000-0000-000000000999", &dto.UpdateReworkRequest{NewStatus: model.StatusOK}, "B"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("未知记录期望 NotFound，实际 %v", err)
	}
	if _, err := svc.Update(ctx, event.EventID, &dto.UpdateReworkRequest{NewStatus: "DONE"}, "B"); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("非法状态期望 ErrValidation，实际 %v", err)
	}
	if _, err := svc.Update(ctx, event.EventID, &dto.UpdateReworkRequest{NewStatus: model.StatusOK}, ""); !errors.Is(err, ErrInspectorRequired) {
		t.Errorf("缺少复检人期望 ErrInspectorRequired，实际 %v", err)
	}

	r.inspection.failWith("UpdateRework", errMockStore)
	if _, err := svc.Update(ctx, event.EventID, &dto.UpdateReworkRequest{NewStatus: model.StatusOK}, "B"); !errors.Is(err, apperrors.ErrStore) {
		t.Errorf("存储失败期望 ErrStore，实际 %v", err)
	}

	// 非 UUID 格式的 id 直接判定为不存在，不触达存储
	for _, id := range []string{"abc", "", "12345"} {
		if _, err := svc.Update(ctx, id, &dto.UpdateReworkRequest{NewStatus: model.StatusOK}, "B"); !errors.Is(err, ErrEventNotFound) {
			t.Errorf("id=%q 期望 ErrEventNotFound，实际 %v", id, err)
		}
	}
}

func TestReworkHistory_IncludesResolved(t *testing.T) {
	r := newTestRepos()
	// 昨日进入返工，今日复检为 OK
	resolved := r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(14, 19, 0)})
	pending := r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(15, 9, 0)})
	r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusOK, Timestamp: localAt(15, 9, 10)})
	r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(10, 9, 0)})

	svc := newTestRework(r, testNow)
	if _, err := svc.Update(context.Background(), resolved.EventID, &dto.UpdateReworkRequest{NewStatus: model.StatusOK}, "B"); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}

	list, err := svc.History(context.Background(), &dto.ReworkHistoryRequest{})
	if err != nil {
		t.Fatalf("History 失败: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("今日历史应含待处理与已处理各 1 条，实际 %d", len(list))
	}
	if list[0].ID != pending.EventID || list[1].ID != resolved.EventID {
		t.Error("历史应按记录时间倒序")
	}
	if list[1].Status != model.StatusOK {
		t.Error("已处理记录应显示当前状态")
	}
}

func TestReworkHistory_Range(t *testing.T) {
	r := newTestRepos()
	r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(10, 9, 0)})
	r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(12, 23, 59)})
	r.inspection.seed(model.InspectionEvent{Model: "M1", Status: model.StatusRework, Timestamp: localAt(13, 0, 0)})
	svc := newTestRework(r, testNow)

	list, err := svc.History(context.Background(), &dto.ReworkHistoryRequest{Start: "2026-03-10", End: "2026-03-12"})
	if err != nil {
		t.Fatalf("History 失败: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("闭区间 10–12 日应含 2 条，实际 %d", len(list))
	}

	if _, err := svc.History(context.Background(), &dto.ReworkHistoryRequest{Start: "2026-03-10"}); !errors.Is(err, ErrReworkRangeInvalid) {
		t.Errorf("仅提供开始日期期望 ErrReworkRangeInvalid，实际 %v", err)
	}
	if _, err := svc.History(context.Background(), &dto.ReworkHistoryRequest{Start: "bad", End: "2026-03-12"}); !errors.Is(err, apperrors.ErrInvalidDate) {
		t.Errorf("非法日期期望 ErrInvalidDate，实际 %v", err)
	}
}
