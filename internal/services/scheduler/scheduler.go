// Package scheduler периодически находит заканчивающиеся пробные
// периоды, публикует почтовые задания и создает уведомления дашборда.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/models"
)

// reminderDays за сколько дней до конца пробного периода
// отправляются напоминания.
var reminderDays = []int{7, 3, 1}

// UserRepository определяет методы хранилища, используемые планировщиком.
type UserRepository interface {
	FindTrialsEndingInDays(ctx context.Context, days int) ([]*models.User, error)
	CreateNotification(ctx context.Context, n models.Notification) (int, error)
}

// EmailPublisher описывает публикацию почтовых заданий.
type EmailPublisher interface {
	PublishEmailJob(job models.EmailJob) error
}

// Service реализует планировщик напоминаний о пробном периоде.
type Service struct {
	repo   UserRepository
	emails EmailPublisher
	log    *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, emails EmailPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		emails: emails,
		log:    log,
	}
}

// Run запускает ежедневный цикл напоминаний. Первый проход выполняется
// сразу, далее раз в сутки до отмены контекста.
func (s *Service) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	s.log.Info("starting trial reminder pass")
	for _, days := range reminderDays {
		users, err := s.repo.FindTrialsEndingInDays(ctx, days)
		if err != nil {
			s.log.Error("failed to find expiring trials", sl.Err(err),
				slog.Int("days", days))
			continue
		}
		if len(users) == 0 {
			continue
		}
		s.log.Info("found expiring trials",
			slog.Int("days", days), slog.Int("count", len(users)))
		for _, user := range users {
			s.remind(ctx, user, days)
		}
	}
}

func (s *Service) remind(ctx context.Context, user *models.User, days int) {
	if err := s.emails.PublishEmailJob(models.EmailJob{
		Kind:     models.EmailTrialExpiring,
		Email:    user.Email,
		Name:     user.Name,
		DaysLeft: days,
	}); err != nil {
		s.log.Error("failed to publish reminder", sl.Err(err),
			slog.String("user_uid", user.UID))
	}

	title := "Trial period is ending"
	body := fmt.Sprintf("Your trial period ends in %d day(s). Choose a plan to keep access.", days)
	if days == 1 {
		body = "Your trial period ends tomorrow. Choose a plan to keep access."
	}
	if _, err := s.repo.CreateNotification(ctx, models.Notification{
		UserUID: user.UID,
		Title:   title,
		Body:    body,
	}); err != nil {
		s.log.Error("failed to create notification", sl.Err(err),
			slog.String("user_uid", user.UID))
	}
}
