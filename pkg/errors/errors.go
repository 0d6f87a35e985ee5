package errors

import "errors"

// ── 通用错误分类 ──
// 各业务模块的错误均包装以下分类之一，调用方可通过 errors.Is 判定类别

var (
	// ErrValidation 必填字段缺失或格式错误，直接返回调用方，不重试
	ErrValidation = errors.New("参数校验失败")
	// ErrNotFound 目标记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrStore 底层存储访问失败，不做自动重试
	ErrStore = errors.New("数据存储访问失败")
	// ErrInvalidDate 无法解析的日历日期
	ErrInvalidDate = errors.New("无效的日期")
)

// Store 将底层存储错误包装为 ErrStore，保留原始错误链
func Store(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrStore, err)
}
