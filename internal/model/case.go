package model

// 病例分类
const (
	CaseCategorySurgery  = "Surgery"
	CaseCategoryMedicine = "Medicine"
)

// CaseCategories 允许的病例分类
var CaseCategories = []string{CaseCategorySurgery, CaseCategoryMedicine}

// IsValidCaseCategory 判断分类是否合法（区分大小写）
func IsValidCaseCategory(category string) bool {
	for _, c := range CaseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Case 临床病例表，对应 cases
type Case struct {
	ID                    uint    `gorm:"primaryKey"                        json:"id"`
	UserID                uint    `gorm:"not null;index"                    json:"owner_id"`
	Category              string  `gorm:"type:varchar(100);not null"        json:"category"`
	CaseTitle             string  `gorm:"type:varchar(200);not null"        json:"case_title"`
	Image                 *string `gorm:"type:varchar(255)"                 json:"image,omitempty"`
	SignalmentAndHistory  *string `gorm:"type:text"                         json:"signalment_and_history,omitempty"`
	ClinicalExamination   *string `gorm:"type:text"                         json:"clinical_examination,omitempty"`
	ClinicalFindings      *string `gorm:"type:text"                         json:"clinical_findings,omitempty"`
	DifferentialDiagnoses *string `gorm:"type:text"                         json:"differential_diagnoses,omitempty"`
	TentativeDiagnoses    *string `gorm:"type:text"                         json:"tentative_diagnoses,omitempty"`
	Management            *string `gorm:"type:text"                         json:"management,omitempty"`
	DiagnosticPlan        *string `gorm:"type:text"                         json:"diagnostic_plan,omitempty"`
	AdviceToClients       *string `gorm:"type:text"                         json:"advice_to_clients,omitempty"`
	Assistants            *string `gorm:"type:text"                         json:"assistants,omitempty"`
	BaseModel

	// 关联
	Owner             *User              `gorm:"foreignKey:UserID"                      json:"owner,omitempty"`
	LaboratoryReports []LaboratoryReport `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"laboratory_reports,omitempty"`
}

// TableName 指定表名
func (Case) TableName() string { return "cases" }
