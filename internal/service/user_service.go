package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/milith0kun/Portafolio-sub000/internal/dto"
	"github.com/milith0kun/Portafolio-sub000/internal/model"
	"github.com/milith0kun/Portafolio-sub000/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserSelfRoleChange = errors.New("cannot change your own role")
	ErrUserSelfDelete     = errors.New("cannot delete yourself")
)

// UserService is the user administration interface.
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.CreateUserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.CreateUserResponse, error) {
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	password := randomPassword()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:           req.Name,
		Email:          req.Email,
		DocumentNumber: req.DocumentNumber,
		PasswordHash:   string(hash),
		Role:           req.Role,
		IsActive:       true,
	}
	user.CreatedBy = &callerID
	user.UpdatedBy = &callerID

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("create user failed", zap.Error(err))
		return nil, err
	}

	return &dto.CreateUserResponse{
		User:            *toUserResponse(user),
		InitialPassword: password,
	}, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("get user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	users, total, err := s.repo.User.List(ctx, req.Role, req.Keyword, (page-1)*pageSize, pageSize)
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.User.GetByEmail(ctx, *req.Email); err == nil {
			return nil, ErrEmailTaken
		}
		user.Email = *req.Email
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("update user failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── AssignRole ──────────────────────

func (s *userService) AssignRole(ctx context.Context, id string, req *dto.AssignRoleRequest, callerID string) error {
	if id == callerID {
		return ErrUserSelfRoleChange
	}

	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	user.Role = req.Role
	user.UpdatedBy = &callerID
	return s.repo.User.Update(ctx, user)
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}

	if _, err := s.repo.User.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return s.repo.User.Delete(ctx, id, callerID)
}

// ── helpers ──

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:             user.UserID,
		Name:           user.Name,
		Email:          user.Email,
		DocumentNumber: user.DocumentNumber,
		Role:           user.Role,
		IsActive:       user.IsActive,
		CreatedAt:      user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      user.UpdatedAt.Format(time.RFC3339),
	}
}

func randomPassword() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
