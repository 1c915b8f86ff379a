// Package billing реализует сверку локального состояния подписки
// с авторитетным состоянием платёжного провайдера (Stripe).
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	stripe "github.com/stripe/stripe-go/v81"

	"github.com/ainexo/declair/internal/config"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/models"
)

// Ошибки сверки. Обработчики транслируют их в HTTP статусы:
// ErrNoCustomer и ErrNoSubscription — 404, ErrUnknownPrice и ErrBadDates — 400.
var (
	ErrNoCustomer     = errors.New("no billing customer on file")
	ErrNoSubscription = errors.New("no subscription found at payment provider")
	ErrUnknownPrice   = errors.New("subscription price is not mapped to any plan")
	ErrBadDates       = errors.New("subscription dates are not parseable")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByStripeCustomer(ctx context.Context, customerID string) (*models.User, error)
	UpdateSubscriptionState(ctx context.Context, userUID string, state models.SubscriptionState) error
}

// StripeAPI описывает используемую часть API платёжного провайдера.
type StripeAPI interface {
	GetSubscription(id string) (*stripe.Subscription, error)
	ListSubscriptions(customerID string) ([]*stripe.Subscription, error)
	CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error)
}

// Service реализует бизнес-логику биллинга.
type Service struct {
	repo   UserRepository
	stripe StripeAPI
	prices config.Stripe
	log    *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo UserRepository, stripeAPI StripeAPI, prices config.Stripe, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		stripe: stripeAPI,
		prices: prices,
		log:    log,
	}
}

// Sync сверяет локальные поля подписки пользователя с провайдером
// и сохраняет результат одним обновлением. Повторный запуск при
// неизменном состоянии провайдера не меняет данные.
func (s *Service) Sync(ctx context.Context, userUID string) (*models.SubscriptionState, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if user.StripeCustomerID == "" {
		return nil, ErrNoCustomer
	}

	sub, err := s.fetchSubscription(user)
	if err != nil {
		return nil, err
	}

	state, err := s.stateFromSubscription(sub)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateSubscriptionState(ctx, userUID, *state); err != nil {
		return nil, err
	}
	s.log.Info("subscription state reconciled",
		slog.String("user_uid", userUID),
		slog.String("status", state.Status),
		slog.String("plan", state.Plan))
	return state, nil
}

// fetchSubscription получает подписку: сначала напрямую по сохранённому id,
// при неудаче — перечислением всех подписок клиента. Среди результатов
// предпочитается активная или пробная, иначе берётся первая.
func (s *Service) fetchSubscription(user *models.User) (*stripe.Subscription, error) {
	if user.StripeSubscriptionID != "" {
		sub, err := s.stripe.GetSubscription(user.StripeSubscriptionID)
		if err == nil {
			return sub, nil
		}
		s.log.Warn("direct subscription fetch failed, falling back to list",
			slog.String("subscription_id", user.StripeSubscriptionID), sl.Err(err))
	}

	subs, err := s.stripe.ListSubscriptions(user.StripeCustomerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil, ErrNoSubscription
	}

	for _, sub := range subs {
		if sub.Status == stripe.SubscriptionStatusActive ||
			sub.Status == stripe.SubscriptionStatusTrialing {
			return sub, nil
		}
	}
	return subs[0], nil
}

// stateFromSubscription переводит подписку провайдера во внутреннее состояние.
func (s *Service) stateFromSubscription(sub *stripe.Subscription) (*models.SubscriptionState, error) {
	status := mapStatus(sub.Status)
	if status == "" {
		return nil, fmt.Errorf("unknown provider status %q", sub.Status)
	}

	if sub.CurrentPeriodStart < 0 || sub.CurrentPeriodEnd < 0 {
		return nil, ErrBadDates
	}
	if sub.CurrentPeriodStart == 0 {
		return nil, ErrBadDates
	}
	startDate := time.Unix(sub.CurrentPeriodStart, 0).UTC()
	endDate := time.Now().UTC().AddDate(0, 0, 30)
	if sub.CurrentPeriodEnd > 0 {
		endDate = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}

	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}
	plan, ok := s.prices.PlanForPrice(priceID)
	if !ok {
		return nil, ErrUnknownPrice
	}

	var cancelAt *time.Time
	if sub.CancelAt > 0 {
		t := time.Unix(sub.CancelAt, 0).UTC()
		cancelAt = &t
	}

	return &models.SubscriptionState{
		Status:               status,
		Plan:                 plan,
		StartDate:            startDate,
		EndDate:              endDate,
		CancelAt:             cancelAt,
		Canceled:             sub.CancelAtPeriodEnd || status == models.StatusCanceled,
		StripeSubscriptionID: sub.ID,
	}, nil
}

// mapStatus переводит словарь статусов провайдера во внутренний:
// trialing становится active, остальные совпадают 1:1.
func mapStatus(status stripe.SubscriptionStatus) string {
	switch status {
	case stripe.SubscriptionStatusTrialing, stripe.SubscriptionStatusActive:
		return models.StatusActive
	case stripe.SubscriptionStatusPastDue:
		return models.StatusPastDue
	case stripe.SubscriptionStatusUnpaid:
		return models.StatusUnpaid
	case stripe.SubscriptionStatusCanceled:
		return models.StatusCanceled
	case stripe.SubscriptionStatusIncomplete:
		return models.StatusIncomplete
	case stripe.SubscriptionStatusIncompleteExpired:
		return models.StatusIncompleteExpired
	case stripe.SubscriptionStatusPaused:
		return models.StatusPaused
	}
	return ""
}

// ApplySubscriptionEvent применяет подписку из вебхука провайдера
// к пользователю, найденному по идентификатору клиента.
func (s *Service) ApplySubscriptionEvent(ctx context.Context, sub *stripe.Subscription) error {
	if sub.Customer == nil || sub.Customer.ID == "" {
		return ErrNoCustomer
	}
	user, err := s.repo.GetUserByStripeCustomer(ctx, sub.Customer.ID)
	if err != nil {
		return err
	}

	state, err := s.stateFromSubscription(sub)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateSubscriptionState(ctx, user.UID, *state); err != nil {
		return err
	}
	s.log.Info("subscription event applied",
		slog.String("user_uid", user.UID),
		slog.String("status", state.Status))
	return nil
}

// CreateCheckout создает сессию оплаты для перехода на тарифный план
// и возвращает URL страницы оплаты.
func (s *Service) CreateCheckout(ctx context.Context, userUID, plan, successURL, cancelURL string) (string, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return "", err
	}
	if user.StripeCustomerID == "" {
		return "", ErrNoCustomer
	}
	priceID, ok := s.prices.PriceForPlan(plan)
	if !ok {
		return "", ErrUnknownPrice
	}
	return s.stripe.CreateCheckoutSession(user.StripeCustomerID, priceID, successURL, cancelURL)
}
