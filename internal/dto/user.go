package dto

import "time"

// ── 用户模块 DTO ──

// UpdateUserRequest 更新用户资料请求（仅更新非 nil 字段）
type UpdateUserRequest struct {
	Email                  *string `json:"email"                   binding:"omitempty,email,max=254"`
	PhoneNumber            *string `json:"phone_number"            binding:"omitempty,max=15"`
	Address                *string `json:"address"`
	Name                   *string `json:"name"                    binding:"omitempty,max=50"`
	Gender                 *string `json:"gender"                  binding:"omitempty,max=50"`
	DOB                    *string `json:"dob"                     binding:"omitempty,max=50"`
	Qualification          *string `json:"qualification"           binding:"omitempty,max=50"`
	VCNNumber              *string `json:"vcn_number"              binding:"omitempty,max=50"`
	SpecializationCategory *string `json:"specialization_category" binding:"omitempty,max=100"`
	University             *string `json:"university"              binding:"omitempty,max=100"`
	State                  *string `json:"state"                   binding:"omitempty,max=100"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                     uint      `json:"id"`
	Username               string    `json:"username"`
	AccountType            string    `json:"account_type"`
	Email                  *string   `json:"email"`
	PhoneNumber            *string   `json:"phone_number"`
	Address                *string   `json:"address"`
	Name                   *string   `json:"name"`
	Gender                 *string   `json:"gender"`
	DOB                    *string   `json:"dob"`
	Qualification          *string   `json:"qualification"`
	VCNNumber              *string   `json:"vcn_number"`
	SpecializationCategory *string   `json:"specialization_category"`
	University             *string   `json:"university"`
	State                  *string   `json:"state"`
	CreatedAt              time.Time `json:"created_at"`
}

// UserDetailResponse 用户详情（含其全部病例）
type UserDetailResponse struct {
	UserResponse
	Cases []CaseResponse `json:"cases"`
}
