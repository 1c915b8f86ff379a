// Package dashboard собирает статистику для дашборда компании.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ainexo/declair/internal/models"
)

// defaultWindowDays окно статистики по умолчанию.
const defaultWindowDays = 30

// Repository определяет методы хранилища, используемые дашбордом.
type Repository interface {
	CountConversationsByDay(ctx context.Context, companyUID string, from, to time.Time) ([]*models.DailyCount, error)
	CountConversationsTotal(ctx context.Context, companyUID string) (int, error)
}

// Stats представляет сводку для дашборда.
type Stats struct {
	TotalConversations int                  `json:"total_conversations"`
	Daily              []*models.DailyCount `json:"daily"`
	From               time.Time            `json:"from"`
	To                 time.Time            `json:"to"`
}

// Service реализует подсчет статистики диалогов.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Stats возвращает сводку за последние days дней. Нулевое значение
// days означает окно по умолчанию.
func (s *Service) Stats(ctx context.Context, companyUID string, days int) (*Stats, error) {
	const op = "dashboard.Stats"

	if days <= 0 {
		days = defaultWindowDays
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	daily, err := s.repo.CountConversationsByDay(ctx, companyUID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	total, err := s.repo.CountConversationsTotal(ctx, companyUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Stats{
		TotalConversations: total,
		Daily:              daily,
		From:               from,
		To:                 to,
	}, nil
}
