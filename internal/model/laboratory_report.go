package model

import "time"

// LaboratoryReport 化验报告表，对应 laboratory_reports
// 创建后不可修改，随病例级联删除
type LaboratoryReport struct {
	ID            uint      `gorm:"primaryKey"                         json:"id"`
	CaseID        uint      `gorm:"not null;index"                     json:"case_id"`
	ReportTitle   string    `gorm:"type:varchar(200);not null"         json:"report_title"`
	ReportDetails string    `gorm:"type:text;not null"                 json:"report_details"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (LaboratoryReport) TableName() string { return "laboratory_reports" }
