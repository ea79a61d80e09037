package user

import (
	"context"

	"go-salary/internal/auth"

	"gorm.io/gorm"
)

//go:generate mockgen -source=user_repo.go -destination=mock/user_repo_mock.go -package=mock
type Repository interface {
	FindAll(ctx context.Context) ([]auth.User, error)
	FindByID(ctx context.Context, id string) (*auth.User, error)
	Update(ctx context.Context, u *auth.User) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context) ([]auth.User, error) {
	var users []auth.User
	err := r.db.WithContext(ctx).Order("email ASC").Find(&users).Error
	return users, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	var u auth.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Update(ctx context.Context, u *auth.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}
