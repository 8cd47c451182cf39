package dto

import "time"

// ── 病例模块 DTO ──

// CaseRequest 创建/更新病例请求（PUT 为整体替换）
// 所有者由服务端根据调用者设置，请求体中不接受 owner 字段
type CaseRequest struct {
	Category              string  `json:"category"               binding:"required,case_category"`
	CaseTitle             string  `json:"case_title"             binding:"required,max=200"`
	SignalmentAndHistory  *string `json:"signalment_and_history"`
	ClinicalExamination   *string `json:"clinical_examination"`
	ClinicalFindings      *string `json:"clinical_findings"`
	DifferentialDiagnoses *string `json:"differential_diagnoses"`
	TentativeDiagnoses    *string `json:"tentative_diagnoses"`
	Management            *string `json:"management"`
	DiagnosticPlan        *string `json:"diagnostic_plan"`
	AdviceToClients       *string `json:"advice_to_clients"`
	Assistants            *string `json:"assistants"`
}

// LaboratoryReportRequest 添加化验报告请求
type LaboratoryReportRequest struct {
	ReportTitle   string `json:"report_title"   binding:"required,max=200"`
	ReportDetails string `json:"report_details" binding:"required"`
}

// LaboratoryReportResponse 化验报告响应
type LaboratoryReportResponse struct {
	ID            uint      `json:"id"`
	CaseID        uint      `json:"case_id"`
	ReportTitle   string    `json:"report_title"`
	ReportDetails string    `json:"report_details"`
	CreatedAt     time.Time `json:"created_at"`
}

// CaseResponse 病例响应（含化验报告）
type CaseResponse struct {
	ID                    uint                       `json:"id"`
	OwnerID               uint                       `json:"owner_id"`
	Owner                 string                     `json:"owner,omitempty"`
	Category              string                     `json:"category"`
	CaseTitle             string                     `json:"case_title"`
	Image                 *string                    `json:"image"`
	SignalmentAndHistory  *string                    `json:"signalment_and_history"`
	ClinicalExamination   *string                    `json:"clinical_examination"`
	ClinicalFindings      *string                    `json:"clinical_findings"`
	DifferentialDiagnoses *string                    `json:"differential_diagnoses"`
	TentativeDiagnoses    *string                    `json:"tentative_diagnoses"`
	Management            *string                    `json:"management"`
	DiagnosticPlan        *string                    `json:"diagnostic_plan"`
	AdviceToClients       *string                    `json:"advice_to_clients"`
	Assistants            *string                    `json:"assistants"`
	LaboratoryReports     []LaboratoryReportResponse `json:"laboratory_reports"`
	CreatedAt             time.Time                  `json:"created_at"`
	UpdatedAt             time.Time                  `json:"updated_at"`
}
