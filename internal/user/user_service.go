package user

import (
	"context"
	"errors"
	"strings"

	"go-salary/internal/auth"
	"go-salary/internal/domain"
	"go-salary/internal/shared/actor"
	"go-salary/internal/shared/contextutil"
	usererrors "go-salary/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)


// Service manages operator accounts. Accounts are created through
// auth.Register.
type Service interface {
	GetAll(ctx context.Context) ([]UserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	AssignRole(ctx context.Context, op actor.Operator, id, role string) (UserResponse, error)
	ToggleStatus(ctx context.Context, op actor.Operator, id string, isActive bool) (UserResponse, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	ResetPassword(ctx context.Context, id, newPassword string) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetAll(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = mapToResponse(&users[i])
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	u, err := s.find(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	return mapToResponse(u), nil
}

func (s *service) AssignRole(ctx context.Context, op actor.Operator, id, role string) (UserResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	role = strings.ToUpper(strings.TrimSpace(role))
	if !domain.IsValidRole(role) {
		return UserResponse{}, usererrors.ErrInvalidRole
	}
	if op.ID == id {
		return UserResponse{}, usererrors.ErrSelfModification
	}

	u, err := s.find(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}

	previous := u.Role
	u.Role = role
	if err := s.repo.Update(ctx, u); err != nil {
		log.Error("assign role failed", zap.String("user_id", id), zap.Error(err))
		return UserResponse{}, err
	}

	log.Info("user role changed",
		zap.String("user_id", id),
		zap.String("from", previous),
		zap.String("to", role),
		zap.String("by", op.Label()),
	)
	return mapToResponse(u), nil
}

func (s *service) ToggleStatus(ctx context.Context, op actor.Operator, id string, isActive bool) (UserResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if op.ID == id {
		return UserResponse{}, usererrors.ErrSelfModification
	}

	u, err := s.find(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}

	u.IsActive = isActive
	if err := s.repo.Update(ctx, u); err != nil {
		log.Error("failed to update user status", zap.String("user_id", id), zap.Error(err))
		return UserResponse{}, err
	}

	log.Info("user status changed", zap.String("user_id", id), zap.Bool("is_active", isActive), zap.String("by", op.Label()))
	return mapToResponse(u), nil
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.find(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(currentPassword)); err != nil {
		return usererrors.ErrWrongPassword
	}

	return s.setPassword(ctx, u, newPassword)
}

func (s *service) ResetPassword(ctx context.Context, id, newPassword string) error {
	u, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, u, newPassword)
}

func (s *service) setPassword(ctx context.Context, u *auth.User, newPassword string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("failed to hash new password", zap.Error(err))
		return err
	}

	u.Password = string(hashed)
	return s.repo.Update(ctx, u)
}

func (s *service) find(ctx context.Context, id string) (*auth.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usererrors.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func mapToResponse(u *auth.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
