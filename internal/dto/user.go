package dto

// ── 账号管理 DTO（管理员） ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role       string `form:"role"       binding:"omitempty,oneof=operator inspector admin"`
	Department string `form:"department" binding:"omitempty,max=100"`
	Keyword    string `form:"keyword"    binding:"omitempty,max=50"`
}

// CreateUserRequest 管理员创建账号，可创建任意角色，初始密码由系统生成
type CreateUserRequest struct {
	Username   string `json:"username"    binding:"required,min=3,max=50"`
	FullName   string `json:"full_name"   binding:"required,max=100"`
	Role       string `json:"role"        binding:"required,oneof=operator inspector admin"`
	Department string `json:"department"  binding:"omitempty,max=100"`
	EmployeeID string `json:"employee_id" binding:"omitempty,max=50"`
}

// CreateUserResponse 创建账号响应，临时密码仅返回一次
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password"`
}

// UpdateUserRequest 更新账号信息，仅更新非 nil 字段
type UpdateUserRequest struct {
	FullName   *string `json:"full_name"   binding:"omitempty,max=100"`
	Department *string `json:"department"  binding:"omitempty,max=100"`
	EmployeeID *string `json:"employee_id" binding:"omitempty,max=50"`
	Role       *string `json:"role"        binding:"omitempty,oneof=operator inspector admin"`
	IsActive   *bool   `json:"is_active"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse 批量导入账号响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
	// Accounts 导入成功的账号及其初始密码
	Accounts []ImportedAccount `json:"accounts,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportedAccount 导入成功的账号
type ImportedAccount struct {
	Username     string `json:"username"`
	TempPassword string `json:"temp_password"`
}
