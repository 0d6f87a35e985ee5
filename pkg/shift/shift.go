// Package shift 将“日期 + 班次”解析为具体的时间窗口。
//
// 产线实行两班制：白班 08:00–20:00，夜班 20:00–次日 08:00。
// 所有墙钟运算都基于注入的固定时差（默认 UTC+7），不查询时区数据库，
// 因此结果与宿主机时区无关。
package shift

import (
	"fmt"
	"time"

	apperrors "assembly-qc/pkg/errors"
)

// Shift 班次标签
type Shift string

const (
	Day   Shift = "day"
	Night Shift = "night"
)

// DateLayout 日历日期格式
const DateLayout = "2006-01-02"

const (
	dayStartHour   = 8
	nightStartHour = 20
)

// ErrInvalidShift 未知班次标签
var ErrInvalidShift = fmt.Errorf("%w: 班次仅支持 day 或 night", apperrors.ErrValidation)

// ParseShift 解析班次标签
func ParseShift(label string) (Shift, error) {
	switch Shift(label) {
	case Day, Night:
		return Shift(label), nil
	default:
		return "", ErrInvalidShift
	}
}

// Window 半开区间 [Start, End)
type Window struct {
	Date  string    `json:"date"`
	Shift Shift     `json:"shift"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 窗口长度
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains t 是否落在窗口内
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Elapsed 截至 now 窗口已经过的时长，限制在 [0, Duration()] 内
func (w Window) Elapsed(now time.Time) time.Duration {
	if now.Before(w.Start) {
		return 0
	}
	if now.After(w.End) {
		return w.Duration()
	}
	return now.Sub(w.Start)
}

// Resolver 固定时差下的班次窗口解析器
type Resolver struct {
	offsetMinutes int
	loc           *time.Location
}

// NewResolver 创建解析器，offsetMinutes 为相对 UTC 的分钟数（UTC+7 即 420）
func NewResolver(offsetMinutes int) *Resolver {
	sign := "+"
	abs := offsetMinutes
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/60, abs%60)
	return &Resolver{
		offsetMinutes: offsetMinutes,
		loc:           time.FixedZone(name, offsetMinutes*60),
	}
}

// OffsetMinutes 固定时差（分钟）
func (r *Resolver) OffsetMinutes() int {
	return r.offsetMinutes
}

// Location 固定时差对应的 time.Location
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// ParseDate 将 YYYY-MM-DD 解析为本地零点
func (r *Resolver) ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, date, r.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidDate, date)
	}
	return t, nil
}

// Resolve 将日期与班次解析为时间窗口
func (r *Resolver) Resolve(date string, s Shift) (Window, error) {
	midnight, err := r.ParseDate(date)
	if err != nil {
		return Window{}, err
	}

	w := Window{Date: date, Shift: s}
	switch s {
	case Day:
		w.Start = midnight.Add(dayStartHour * time.Hour)
		w.End = midnight.Add(nightStartHour * time.Hour)
	case Night:
		w.Start = midnight.Add(nightStartHour * time.Hour)
		w.End = midnight.AddDate(0, 0, 1).Add(dayStartHour * time.Hour)
	default:
		return Window{}, ErrInvalidShift
	}
	return w, nil
}

// DayStart t 所在本地日的零点
func (r *Resolver) DayStart(t time.Time) time.Time {
	local := t.In(r.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
}

// DateOf t 所在本地日的日期字符串
func (r *Resolver) DateOf(t time.Time) string {
	return t.In(r.loc).Format(DateLayout)
}

// Hour t 的本地小时（0-23）
func (r *Resolver) Hour(t time.Time) int {
	return t.In(r.loc).Hour()
}

// DateRange 将闭区间日期 [from, to] 转为半开时间区间 [from 00:00, to+1 00:00)
func (r *Resolver) DateRange(from, to string) (time.Time, time.Time, error) {
	start, err := r.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := r.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: 结束日期早于开始日期", apperrors.ErrValidation)
	}
	return start, end.AddDate(0, 0, 1), nil
}
