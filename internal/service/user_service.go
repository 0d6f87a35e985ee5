package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"assembly-qc/internal/dto"
	"assembly-qc/internal/model"
	"assembly-qc/internal/repository"
	apperrors "assembly-qc/pkg/errors"
)

// ── 账号管理业务错误 ──

var (
	ErrUserSelfRoleChange = errors.New("不能修改自己的角色")
	ErrUserSelfDeactivate = errors.New("不能停用自己的账号")
)

// UserService 账号管理业务接口（管理员）
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	// Update 更新资料、角色与启用状态；停用账号同时将其标记为离线
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	ResetPassword(ctx context.Context, id string) (*dto.ResetPasswordResponse, error)
	ParseImportFile(reader io.Reader) ([]ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error)
}

// ImportUserRow Excel 导入解析后的单行数据
type ImportUserRow struct {
	Row        int
	Username   string
	FullName   string
	Role       string
	Department string
	EmployeeID string
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	username := strings.TrimSpace(req.Username)
	if !model.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: 角色无效 %q", apperrors.ErrValidation, req.Role)
	}

	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	tempPassword, hash, err := newTempCredential()
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}

	department := strings.TrimSpace(req.Department)
	if department == "" {
		department = model.DefaultDepartment
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Department:   department,
		EmployeeID:   strings.TrimSpace(req.EmployeeID),
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.String("username", username), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	s.logger.Info("管理员创建账号", zap.String("user_id", user.UserID), zap.String("role", user.Role))
	return &dto.CreateUserResponse{
		User:         toUserResponse(user),
		TempPassword: tempPassword,
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filters := repository.UserListFilters{
		Role:       req.Role,
		Department: strings.TrimSpace(req.Department),
		Keyword:    strings.TrimSpace(req.Keyword),
	}

	users, total, err := s.repo.User.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, apperrors.Store(err)
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if id == callerID {
		if req.Role != nil && *req.Role != user.Role {
			return nil, ErrUserSelfRoleChange
		}
		if req.IsActive != nil && !*req.IsActive {
			return nil, ErrUserSelfDeactivate
		}
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, fmt.Errorf("%w: 姓名不能为空", apperrors.ErrValidation)
		}
		user.FullName = name
	}
	if req.Department != nil {
		user.Department = strings.TrimSpace(*req.Department)
		if user.Department == "" {
			user.Department = model.DefaultDepartment
		}
	}
	if req.EmployeeID != nil {
		user.EmployeeID = strings.TrimSpace(*req.EmployeeID)
	}
	if req.Role != nil {
		if !model.IsValidRole(*req.Role) {
			return nil, fmt.Errorf("%w: 角色无效 %q", apperrors.ErrValidation, *req.Role)
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
		if !user.IsActive {
			user.IsOnline = false
		}
	}

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string) (*dto.ResetPasswordResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	tempPassword, hash, err := newTempCredential()
	if err != nil {
		s.logger.Error("生成临时密码失败", zap.Error(err))
		return nil, err
	}

	user.PasswordHash = hash
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	return &dto.ResetPasswordResponse{TempPassword: tempPassword}, nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 500

var (
	ErrImportNoData      = fmt.Errorf("%w: Excel 文件无数据行（第一行为表头）", apperrors.ErrValidation)
	ErrImportTooManyRows = fmt.Errorf("%w: 数据行数超过上限 %d 行", apperrors.ErrValidation, maxImportRows)
	ErrImportBadHeader   = fmt.Errorf("%w: Excel 表头缺少必要列（用户名/姓名）", apperrors.ErrValidation)
	ErrImportBadFile     = fmt.Errorf("%w: 无法解析 Excel 文件", apperrors.ErrValidation)
)

// ParseImportFile 解析账号导入 Excel，表头列序不限
func (s *userService) ParseImportFile(reader io.Reader) ([]ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, errors.Join(ErrImportBadFile, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Join(ErrImportBadFile, err)
	}
	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["username"] < 0 || colIndex["full_name"] < 0 {
		return nil, ErrImportBadHeader
	}

	cellAt := func(row []string, key string) string {
		idx := colIndex[key]
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rows []ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := ImportUserRow{
			Row:        i + 1,
			Username:   cellAt(row, "username"),
			FullName:   cellAt(row, "full_name"),
			Role:       strings.ToLower(cellAt(row, "role")),
			Department: cellAt(row, "department"),
			EmployeeID: cellAt(row, "employee_id"),
		}

		// 跳过全空行
		if item == (ImportUserRow{Row: item.Row}) {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return rows, nil
}

// parseHeaderIndex 解析表头，返回列名 → 列索引
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"username":    -1,
		"full_name":   -1,
		"role":        -1,
		"department":  -1,
		"employee_id": -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "用户名", "username":
			idx["username"] = i
		case "姓名", "full_name", "name":
			idx["full_name"] = i
		case "角色", "role":
			idx["role"] = i
		case "部门", "department":
			idx["department"] = i
		case "工号", "employee_id":
			idx["employee_id"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []ImportUserRow) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}
	fail := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	// 第一阶段：逐行校验，不写库
	var (
		users    []model.User
		accounts []dto.ImportedAccount
		seen     = make(map[string]int, len(rows))
	)
	for _, row := range rows {
		if row.Username == "" || row.FullName == "" {
			fail(row.Row, "必填字段为空")
			continue
		}
		role := row.Role
		if role == "" {
			role = model.RoleOperator
		}
		if !model.IsValidRole(role) {
			fail(row.Row, fmt.Sprintf("角色无效: %s", row.Role))
			continue
		}
		if first, dup := seen[row.Username]; dup {
			fail(row.Row, fmt.Sprintf("用户名与第 %d 行重复: %s", first, row.Username))
			continue
		}
		if _, err := s.repo.User.GetByUsername(ctx, row.Username); err == nil {
			fail(row.Row, fmt.Sprintf("用户名已存在: %s", row.Username))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询用户失败", zap.Error(err))
			return nil, apperrors.Store(err)
		}

		tempPassword, hash, err := newTempCredential()
		if err != nil {
			fail(row.Row, "密码哈希失败")
			continue
		}

		department := row.Department
		if department == "" {
			department = model.DefaultDepartment
		}
		seen[row.Username] = row.Row
		users = append(users, model.User{
			Username:     row.Username,
			PasswordHash: hash,
			FullName:     row.FullName,
			Role:         role,
			Department:   department,
			EmployeeID:   row.EmployeeID,
			IsActive:     true,
		})
		accounts = append(accounts, dto.ImportedAccount{Username: row.Username, TempPassword: tempPassword})
	}

	// 第二阶段：单事务批量写入
	if err := s.repo.User.CreateBatch(ctx, users); err != nil {
		s.logger.Error("批量导入写入失败，事务回滚", zap.Int("rows", len(users)), zap.Error(err))
		return nil, apperrors.Store(err)
	}

	resp.Success = len(users)
	resp.Accounts = accounts
	s.logger.Info("批量导入账号完成", zap.Int("success", resp.Success), zap.Int("failed", resp.Failed))
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, apperrors.Store(err)
	}
	return user, nil
}

// newTempCredential 生成 8 位临时密码及其 bcrypt 哈希
func newTempCredential() (string, string, error) {
	password, err := generateTempPassword(8)
	if err != nil {
		return "", "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return password, string(hash), nil
}

// generateTempPassword 生成指定长度的临时密码（至少含 1 个字母与 1 个数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
