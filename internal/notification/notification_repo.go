package notification

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=notification_repo.go -destination=mock/notification_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, notificationType string, limit int) ([]Notification, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *repository) List(ctx context.Context, notificationType string, limit int) ([]Notification, error) {
	var list []Notification
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if notificationType != "" {
		q = q.Where("type = ?", notificationType)
	}
	err := q.Find(&list).Error
	return list, err
}
