package model

// DefaultAccountType 注册时未指定 account_type 的默认值
const DefaultAccountType = "basic"

// User 用户表，对应 users
type User struct {
	ID                     uint    `gorm:"primaryKey"                                json:"id"`
	Username               string  `gorm:"type:varchar(150);not null;uniqueIndex:uk_users_username" json:"username"`
	PasswordHash           string  `gorm:"type:varchar(255);not null"                json:"-"`
	AccountType            string  `gorm:"type:varchar(50);not null;default:'basic'" json:"account_type"`
	Email                  *string `gorm:"type:varchar(254)"                         json:"email,omitempty"`
	PhoneNumber            *string `gorm:"type:varchar(50)"                          json:"phone_number,omitempty"`
	Address                *string `gorm:"type:text"                                 json:"address,omitempty"`
	Name                   *string `gorm:"type:varchar(50)"                          json:"name,omitempty"`
	Gender                 *string `gorm:"type:varchar(50)"                          json:"gender,omitempty"`
	DOB                    *string `gorm:"column:dob;type:varchar(50)"               json:"dob,omitempty"`
	Qualification          *string `gorm:"type:varchar(50)"                          json:"qualification,omitempty"`
	VCNNumber              *string `gorm:"column:vcn_number;type:varchar(50)"        json:"vcn_number,omitempty"`
	SpecializationCategory *string `gorm:"type:varchar(100)"                         json:"specialization_category,omitempty"`
	University             *string `gorm:"type:varchar(100)"                         json:"university,omitempty"`
	State                  *string `gorm:"type:varchar(100)"                         json:"state,omitempty"`
	BaseModel

	// 关联
	Cases []Case `gorm:"foreignKey:UserID" json:"cases,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// DisplayName 有姓名时返回姓名，否则返回用户名
func (u *User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	return u.Username
}
