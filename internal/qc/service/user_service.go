package service

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-qc/internal/qc/entity"
	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserService 用户与检验员目录
type UserService struct {
	userRepo      *repository.UserRepository
	inspectorRepo *repository.InspectorRepository
	db            *gorm.DB
}

func NewUserService(repos *repository.Repositories, db *gorm.DB) *UserService {
	return &UserService{
		userRepo:      repos.User,
		inspectorRepo: repos.Inspector,
		db:            db,
	}
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email"`
	Role     string `json:"role" binding:"required"`
}

// CreateUser 创建用户。角色为 qc 时同步建立检验员档案（空标签账本）。
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*entity.User, error) {
	switch req.Role {
	case entity.RoleAdmin, entity.RoleManager, entity.RoleQC:
	default:
		return nil, validationErrorf("未知角色: %s", req.Role)
	}

	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return nil, &ConflictError{Message: "用户名已存在"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user := &entity.User{
		ID:       uuid.New().String()[:32],
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Status:   "active",
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		if user.Role == entity.RoleQC {
			inspector := &entity.Inspector{
				ID:            uuid.New().String()[:32],
				UserID:        user.ID,
				AllotedLabels: datatypes.JSONSlice[int64]{},
				UsedLabels:    datatypes.JSONSlice[int64]{},
			}
			return repository.NewInspectorRepository(tx).Create(ctx, inspector)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ListUsers 查询用户列表
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.User, int64, error) {
	return s.userRepo.FindAll(ctx, page, pageSize, filters)
}

// GetUser 查询用户
func (s *UserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// InspectorView 检验员列表项，附带标签账本计数
type InspectorView struct {
	entity.Inspector
	AllotedCount int `json:"alloted_count"`
	UsedCount    int `json:"used_count"`
}

// ListInspectors 查询检验员列表
func (s *UserService) ListInspectors(ctx context.Context, page, pageSize int) ([]InspectorView, int64, error) {
	inspectors, total, err := s.inspectorRepo.FindAll(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	views := make([]InspectorView, 0, len(inspectors))
	for _, inspector := range inspectors {
		views = append(views, InspectorView{
			Inspector:    inspector,
			AllotedCount: len(inspector.AllotedLabels),
			UsedCount:    len(inspector.UsedLabels),
		})
	}
	return views, total, nil
}

// GetInspector 查询检验员
func (s *UserService) GetInspector(ctx context.Context, id string) (*entity.Inspector, error) {
	return s.inspectorRepo.FindByID(ctx, id)
}
