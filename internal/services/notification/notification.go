// Package notification содержит бизнес-логику уведомлений дашборда.
package notification

import (
	"context"
	"log/slog"

	"github.com/ainexo/declair/internal/models"
)

// Repository определяет методы для работы с уведомлениями в хранилище.
type Repository interface {
	CreateNotification(ctx context.Context, n models.Notification) (int, error)
	ListNotifications(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id int, userUID string) (int, error)
}

// Service реализует операции над уведомлениями пользователя.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List возвращает уведомления пользователя, непрочитанные первыми.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error) {
	return s.repo.ListNotifications(ctx, userUID, limit, offset)
}

// MarkRead помечает уведомление прочитанным и возвращает
// число затронутых записей.
func (s *Service) MarkRead(ctx context.Context, userUID string, id int) (int, error) {
	return s.repo.MarkNotificationRead(ctx, id, userUID)
}
