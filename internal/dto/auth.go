package dto

// ── 认证模块 DTO ──

// SignUpRequest 注册请求
type SignUpRequest struct {
	Username               string  `json:"username"                binding:"required,max=150"`
	Password               string  `json:"password"                binding:"required,max=72"`
	Email                  *string `json:"email"                   binding:"omitempty,email,max=254"`
	PhoneNumber            *string `json:"phone_number"            binding:"omitempty,max=15"`
	Address                *string `json:"address"`
	AccountType            *string `json:"account_type"            binding:"omitempty,max=50"`
	Name                   *string `json:"name"                    binding:"omitempty,max=50"`
	Gender                 *string `json:"gender"                  binding:"omitempty,max=50"`
	DOB                    *string `json:"dob"                     binding:"omitempty,max=50"`
	Qualification          *string `json:"qualification"           binding:"omitempty,max=50"`
	VCNNumber              *string `json:"vcn_number"              binding:"omitempty,max=50"`
	SpecializationCategory *string `json:"specialization_category" binding:"omitempty,max=100"`
	University             *string `json:"university"              binding:"omitempty,max=100"`
	State                  *string `json:"state"                   binding:"omitempty,max=100"`
}

// SignInRequest 登录请求
// Department 必须与用户的 account_type 完全一致
type SignInRequest struct {
	Username   string `json:"username"   binding:"required"`
	Password   string `json:"password"   binding:"required"`
	Department string `json:"department" binding:"required"`
}

// SignUpResponse 注册成功响应
type SignUpResponse struct {
	Token string `json:"token"`
}

// SignInResponse 登录成功响应
type SignInResponse struct {
	Token string `json:"token"`
	ID    uint   `json:"id"`
}
