// Package access вычисляет право доступа пользователя к продукту
// по состоянию его пробного периода или подписки.
package access

import (
	"context"
	"fmt"
	"time"

	"github.com/ainexo/declair/internal/config"
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/services/trial"
)

// UserRepository определяет методы хранилища, используемые при оценке доступа.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Service оборачивает чистую оценку доступа загрузкой пользователя.
type Service struct {
	repo   UserRepository
	policy trial.Policy
}

// New создает новый экземпляр Service.
func New(repo UserRepository, policy config.AccessPolicy) *Service {
	p := trial.DefaultPolicy
	if policy.GracePeriodDays > 0 {
		p.GracePeriodDays = policy.GracePeriodDays
	}
	if policy.WarningDays > 0 {
		p.WarningDays = policy.WarningDays
	}
	if policy.CriticalDays > 0 {
		p.CriticalDays = policy.CriticalDays
	}
	return &Service{repo: repo, policy: p}
}

// EvaluateUser возвращает оценку доступа для пользователя.
func (s *Service) EvaluateUser(ctx context.Context, userUID string) (*trial.Evaluation, error) {
	const op = "access.EvaluateUser"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ev := trial.Evaluate(user.SubscriptionStatus, user.TrialEndDate,
		user.SubscriptionEndDate, time.Now().UTC(), s.policy)
	return &ev, nil
}
