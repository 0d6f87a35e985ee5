package model

// ── 分组聚合查询结果（不落库） ──

// DefectCount 不良项统计
type DefectCount struct {
	Defect string `gorm:"column:defect" json:"defect"`
	Count  int64  `gorm:"column:count"  json:"count"`
}

// HourlyCount 按本地小时统计
type HourlyCount struct {
	Hour   int   `gorm:"column:hour"   json:"hour"`
	OK     int64 `gorm:"column:ok"     json:"ok"`
	NG     int64 `gorm:"column:ng"     json:"ng"`
	Rework int64 `gorm:"column:rework" json:"rework"`
}

// PartCount 按 (机型, 零件号) 统计的合格数
type PartCount struct {
	Model    string `gorm:"column:model"     json:"model"`
	PartCode string `gorm:"column:part_code" json:"part_code"`
	TotalOK  int64  `gorm:"column:total_ok"  json:"total_ok"`
}
