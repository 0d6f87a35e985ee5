package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"assembly-qc/config"
	"assembly-qc/internal/model"
	"assembly-qc/internal/repository"
	"assembly-qc/pkg/shift"
)

var errMockStore = errors.New("mock: connection refused")

// ── 测试公共设施 ──

// testNow 2026-03-15 10:00 (UTC+7)，白班进行中 2 小时
var testNow = time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testResolver() *shift.Resolver {
	return shift.NewResolver(420)
}

func testOptions() AnalyticsOptions {
	return AnalyticsOptions{
		PackSize:             8,
		CycleTimePolicy:      config.CycleTimePolicyLast,
		FastThresholdMinutes: 5,
		SlowThresholdMinutes: 5,
	}
}

type testRepos struct {
	repo       *repository.Repository
	users      *mockUserRepo
	inspection *mockInspectionRepo
	plans      *mockPlanRepo
}

func newTestRepos() *testRepos {
	users := newMockUserRepo()
	inspection := newMockInspectionRepo()
	plans := newMockPlanRepo()
	return &testRepos{
		repo: &repository.Repository{
			User:       users,
			Inspection: inspection,
			Plan:       plans,
		},
		users:      users,
		inspection: inspection,
		plans:      plans,
	}
}

func strPtr(s string) *string { return &s }

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.RWMutex
	users map[string]*model.User // key: user_id
	fail  error                  // 非 nil 时写操作返回该错误
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		user.UserID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(user.Username)).String()
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) MarkOnline(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.IsOnline = true
		u.LastLogin = &at
	}
	return nil
}

func (m *mockUserRepo) MarkOffline(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.IsOnline = false
	}
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) List(_ context.Context, f repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []model.User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Department != "" && u.Department != f.Department {
			continue
		}
		if f.Keyword != "" && !strings.Contains(u.Username, f.Keyword) &&
			!strings.Contains(u.FullName, f.Keyword) && !strings.Contains(u.EmployeeID, f.Keyword) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockUserRepo) CreateBatch(ctx context.Context, users []model.User) error {
	if m.fail != nil {
		return m.fail
	}
	for i := range users {
		if err := m.Create(ctx, &users[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockUserRepo) ListOnline(_ context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []model.User
	for _, u := range m.users {
		if u.IsOnline {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock InspectionRepository ──
// 内存实现，聚合语义与 SQL 版本一致

type mockInspectionRepo struct {
	mu     sync.RWMutex
	events []*model.InspectionEvent
	seq    int
	fail   map[string]error // 方法名 → 注入的错误
}

func newMockInspectionRepo() *mockInspectionRepo {
	return &mockInspectionRepo{fail: make(map[string]error)}
}

func (m *mockInspectionRepo) failWith(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[method] = err
}

func (m *mockInspectionRepo) injected(method string) error {
	return m.fail[method]
}

// mockEventID 按序号生成合法 UUID，与 qc_logs.event_id 列类型一致
func mockEventID(seq int) string {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", seq)
}

// seed 直接写入记录，用于构造任意时间点的数据
func (m *mockInspectionRepo) seed(e model.InspectionEvent) *model.InspectionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if e.EventID == "" {
		e.EventID = mockEventID(m.seq)
	}
	if e.SerialNumber == "" {
		e.SerialNumber = model.SerialNumberNone
	}
	if e.OperatorID == "" {
		e.OperatorID = "op-1"
	}
	m.events = append(m.events, &e)
	return &e
}

func (m *mockInspectionRepo) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *mockInspectionRepo) matched(f repository.EventFilter) []*model.InspectionEvent {
	var out []*model.InspectionEvent
	for _, e := range m.events {
		if f.Match(e.Timestamp, e.Model, e.OperatorID) {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockInspectionRepo) Create(_ context.Context, event *model.InspectionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("Create"); err != nil {
		return err
	}
	m.seq++
	event.EventID = mockEventID(m.seq)
	cp := *event
	m.events = append(m.events, &cp)
	return nil
}

func (m *mockInspectionRepo) GetByID(_ context.Context, id string) (*model.InspectionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.events {
		if e.EventID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInspectionRepo) Delete(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.events {
		if e.EventID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockInspectionRepo) CountByStatus(_ context.Context, f repository.EventFilter) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("CountByStatus"); err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, e := range m.matched(f) {
		counts[e.Status]++
	}
	return counts, nil
}

func (m *mockInspectionRepo) CountOKBySide(_ context.Context, f repository.EventFilter) (map[string]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("CountOKBySide"); err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, e := range m.matched(f) {
		if e.Status == model.StatusOK && e.Side != nil && model.IsValidSide(*e.Side) {
			counts[*e.Side]++
		}
	}
	return counts, nil
}

func (m *mockInspectionRepo) DefectSummary(_ context.Context, f repository.EventFilter) ([]model.DefectCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("DefectSummary"); err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, e := range m.matched(f) {
		if e.Status != model.StatusNG {
			continue
		}
		key := repository.DefectUnspecified
		if e.Defect != nil && *e.Defect != "" {
			key = *e.Defect
		}
		counts[key]++
	}
	var rows []model.DefectCount
	for d, c := range counts {
		rows = append(rows, model.DefectCount{Defect: d, Count: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Defect < rows[j].Defect
	})
	return rows, nil
}

func (m *mockInspectionRepo) HourlySummary(_ context.Context, f repository.EventFilter, offsetMinutes int) ([]model.HourlyCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("HourlySummary"); err != nil {
		return nil, err
	}
	byHour := make(map[int]*model.HourlyCount)
	for _, e := range m.matched(f) {
		h := e.Timestamp.UTC().Add(time.Duration(offsetMinutes) * time.Minute).Hour()
		row, ok := byHour[h]
		if !ok {
			row = &model.HourlyCount{Hour: h}
			byHour[h] = row
		}
		switch e.Status {
		case model.StatusOK:
			row.OK++
		case model.StatusNG:
			row.NG++
		case model.StatusRework:
			row.Rework++
		}
	}
	var rows []model.HourlyCount
	for _, r := range byHour {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Hour < rows[j].Hour })
	return rows, nil
}

func (m *mockInspectionRepo) PartSummary(_ context.Context, f repository.EventFilter) ([]model.PartCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("PartSummary"); err != nil {
		return nil, err
	}
	type key struct{ model, part string }
	counts := make(map[key]int64)
	for _, e := range m.matched(f) {
		if e.Status == model.StatusOK {
			counts[key{e.Model, e.GroupKey()}]++
		}
	}
	var rows []model.PartCount
	for k, c := range counts {
		rows = append(rows, model.PartCount{Model: k.model, PartCode: k.part, TotalOK: c})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PartCode != rows[j].PartCode {
			return rows[i].PartCode < rows[j].PartCode
		}
		return rows[i].Model < rows[j].Model
	})
	return rows, nil
}

func (m *mockInspectionRepo) LatestByOperator(_ context.Context, operatorID string, since time.Time) (*model.InspectionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *model.InspectionEvent
	for _, e := range m.events {
		if e.OperatorID != operatorID || e.Timestamp.Before(since) {
			continue
		}
		if latest == nil || !e.Timestamp.Before(latest.Timestamp) {
			latest = e
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *mockInspectionRepo) DeleteByOperatorSince(_ context.Context, operatorID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.events[:0]
	var deleted int64
	for _, e := range m.events {
		if e.OperatorID == operatorID && !e.Timestamp.Before(since) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return deleted, nil
}

func (m *mockInspectionRepo) ListByStatus(_ context.Context, f repository.EventFilter, status string) ([]model.InspectionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.injected("ListByStatus"); err != nil {
		return nil, err
	}
	var out []model.InspectionEvent
	for _, e := range m.matched(f) {
		if e.Status == status {
			out = append(out, *e)
		}
	}
	sortByTimestampDesc(out)
	return out, nil
}

func (m *mockInspectionRepo) ListReworkHistory(_ context.Context, from, to time.Time) ([]model.InspectionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inRange := func(t time.Time) bool { return !t.Before(from) && t.Before(to) }

	var out []model.InspectionEvent
	for _, e := range m.events {
		if e.Status != model.StatusRework && e.ReworkCheckedAt == nil {
			continue
		}
		if inRange(e.Timestamp) || (e.ReworkCheckedAt != nil && inRange(*e.ReworkCheckedAt)) {
			out = append(out, *e)
		}
	}
	sortByTimestampDesc(out)
	return out, nil
}

func (m *mockInspectionRepo) UpdateRework(_ context.Context, id, status, inspector string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected("UpdateRework"); err != nil {
		return 0, err
	}
	for _, e := range m.events {
		if e.EventID == id && e.Status == model.StatusRework {
			e.Status = status
			e.ReworkCheckedBy = &inspector
			e.ReworkCheckedAt = &at
			return 1, nil
		}
	}
	return 0, nil
}

func sortByTimestampDesc(events []model.InspectionEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

// ── Mock PlanRepository ──

type mockPlanRepo struct {
	mu    sync.RWMutex
	plans []*model.ProductionPlan // 按创建顺序
	fail  error
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{}
}

func (m *mockPlanRepo) Upsert(_ context.Context, plan *model.ProductionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	for _, p := range m.plans {
		if p.DateString == plan.DateString && p.Model == plan.Model &&
			p.Shift == plan.Shift && p.PartCode == plan.PartCode {
			p.TargetQuantity = plan.TargetQuantity
			p.CycleTimeSeconds = plan.CycleTimeSeconds
			p.UpdatedBy = plan.UpdatedBy
			plan.PlanID = p.PlanID
			return nil
		}
	}
	plan.PlanID = fmt.Sprintf("plan-%03d", len(m.plans)+1)
	cp := *plan
	m.plans = append(m.plans, &cp)
	return nil
}

func (m *mockPlanRepo) List(_ context.Context, f repository.PlanFilter) ([]model.ProductionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fail != nil {
		return nil, m.fail
	}
	var out []model.ProductionPlan
	for _, p := range m.plans {
		if p.DateString != f.DateString {
			continue
		}
		if f.Shift != "" && p.Shift != f.Shift {
			continue
		}
		if f.Model != "" && p.Model != f.Model {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockPlanRepo) ListByDateRange(_ context.Context, from, to, modelName string) ([]model.ProductionPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ProductionPlan
	for _, p := range m.plans {
		if p.DateString < from || p.DateString > to {
			continue
		}
		if modelName != "" && p.Model != modelName {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

// ── Mock TokenBlacklist / ReportArchiver ──

type mockBlacklist struct {
	mu   sync.Mutex
	jtis map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{jtis: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jtis[jti] = ttl
	return nil
}

type mockArchiver struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (m *mockArchiver) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return key, nil
}

// ── 构造带固定时钟的 Service ──

func newTestDashboard(r *testRepos, now time.Time) *dashboardService {
	svc := NewDashboardService(r.repo, testResolver(), testOptions(), zap.NewNop()).(*dashboardService)
	svc.now = fixedClock(now)
	return svc
}

func newTestInspection(r *testRepos, now time.Time) *inspectionService {
	svc := NewInspectionService(r.repo, testResolver(), testOptions(), zap.NewNop()).(*inspectionService)
	svc.now = fixedClock(now)
	return svc
}

func newTestRework(r *testRepos, now time.Time) *reworkService {
	svc := NewReworkService(r.repo, testResolver(), newTestDashboard(r, now), zap.NewNop()).(*reworkService)
	svc.now = fixedClock(now)
	return svc
}
