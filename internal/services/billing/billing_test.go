package billing_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ainexo/declair/internal/config"
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/services/billing"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByStripeCustomer(ctx context.Context, customerID string) (*models.User, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdateSubscriptionState(ctx context.Context, userUID string, state models.SubscriptionState) error {
	args := m.Called(ctx, userUID, state)
	return args.Error(0)
}

// Мок для StripeAPI
type StripeMock struct {
	mock.Mock
}

func (m *StripeMock) GetSubscription(id string) (*stripe.Subscription, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.Subscription), args.Error(1)
}

func (m *StripeMock) ListSubscriptions(customerID string) ([]*stripe.Subscription, error) {
	args := m.Called(customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*stripe.Subscription), args.Error(1)
}

func (m *StripeMock) CreateCheckoutSession(customerID, priceID, successURL, cancelURL string) (string, error) {
	args := m.Called(customerID, priceID, successURL, cancelURL)
	return args.String(0), args.Error(1)
}

func testPrices() config.Stripe {
	return config.Stripe{
		PriceStarter:      "price_starter",
		PriceProfessional: "price_professional",
		PriceEnterprise:   "price_enterprise",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func providerSub(id string, status stripe.SubscriptionStatus, priceID string, start, end int64) *stripe.Subscription {
	return &stripe.Subscription{
		ID:                 id,
		Status:             status,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{ID: priceID}},
			},
		},
	}
}

func TestBillingService_Sync(t *testing.T) {
	now := time.Now().UTC()
	periodStart := now.AddDate(0, -1, 0).Unix()
	periodEnd := now.AddDate(0, 1, 0).Unix()

	userWithBilling := &models.User{
		UID:                  "user-1",
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: "sub_123",
	}

	tests := []struct {
		name       string
		setupMocks func(r *UserRepoMock, s *StripeMock)
		wantStatus string
		wantPlan   string
		wantErr    error
	}{
		{
			name: "active subscription fetched directly",
			setupMocks: func(r *UserRepoMock, s *StripeMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(userWithBilling, nil).Once()
				s.On("GetSubscription", "sub_123").
					Return(providerSub("sub_123", stripe.SubscriptionStatusActive, "price_professional", periodStart, periodEnd), nil).Once()
				r.On("UpdateSubscriptionState", mock.Anything, "user-1", mock.MatchedBy(func(state models.SubscriptionState) bool {
					return state.Status == models.StatusActive &&
						state.Plan == models.PlanProfessional &&
						state.StripeSubscriptionID == "sub_123"
				})).Return(nil).Once()
			},
			wantStatus: models.StatusActive,
			wantPlan:   models.PlanProfessional,
		},
		{
			name: "trialing maps to active",
			setupMocks: func(r *UserRepoMock, s *StripeMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(userWithBilling, nil).Once()
				s.On("GetSubscription", "sub_123").
					Return(providerSub("sub_123", stripe.SubscriptionStatusTrialing, "price_starter", periodStart, periodEnd), nil).Once()
				r.On("UpdateSubscriptionState", mock.Anything, "user-1", mock.Anything).Return(nil).Once()
			},
			wantStatus: models.StatusActive,
			wantPlan:   models.PlanStarter,
		},
		{
			name: "past due is preserved as past_due",
			setupMocks: func(r *UserRepoMock, s *StripeMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(userWithBilling, nil).Once()
				s.On("GetSubscription", "sub_123").
					Return(providerSub("sub_123", stripe.SubscriptionStatusPastDue, "price_professional", periodStart, periodEnd), nil).Once()
				r.On("UpdateSubscriptionState", mock.Anything, "user-1", mock.MatchedBy(func(state models.SubscriptionState) bool {
					return state.Status == models.StatusPastDue
				})).Return(nil).Once()
			},
			wantStatus: models.StatusPastDue,
			wantPlan:   models.PlanProfessional,
		},
		{
			name: "direct fetch fails, list fallback prefers active",
			setupMocks: func(r *UserRepoMock, s *StripeMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(userWithBilling, nil).Once()
				s.On("GetSubscription", "sub_123").Return(nil, errors.New("no such subscription")).Once()
				s.On("ListSubscriptions", "cus_123").Return([]*stripe.Subscription{
					providerSub("sub_old", stripe.SubscriptionStatusCanceled, "price_starter", periodStart, periodEnd),
					providerSub("sub_new", stripe.SubscriptionStatusActive, "price_enterprise", periodStart, periodEnd),
				}, nil).Once()
				r.On("UpdateSubscriptionState", mock.Anything, "user-1", mock.MatchedBy(func(state models.SubscriptionState) bool {
					return state.StripeSubscriptionID == "sub_new" && state.Status == models.StatusActive
				})).Return(nil).Once()
			},
			wantStatus: models.StatusActive,
			wantPlan:   models.PlanEnterprise,
		},
		{
			name: "no customer on file",
			setupMocks: func(r *UserRepoMock, _ *StripeMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(&models.User{UID: "user-1"}, nil).Once()
			},
			wantErr: billing.ErrNoCustomer,
		},
		{
			name: "customer has no subscriptions",
			setupMocks: func(r *UserRepoMock, s *StripeMock) {
				r.On("GetUser", mock.Anything, "user-1").
					Return(&models.User{UID: "user-1", StripeCustomerID: "cus_123"}, nil).Once()
				s.On("ListSubscriptions", "cus_123").Return([]*stripe.Subscription{}, nil).Once()
			},
			wantErr: billing.ErrNoSubscription,
		},
		{
			name: "unknown price rejects sync without touching the database",
			setupMocks: func(r *UserRepoMock, s *StripeMock) {
				r.On("GetUser", mock.Anything, "user-1").Return(userWithBilling, nil).Once()
				s.On("GetSubscription", "sub_123").
					Return(providerSub("sub_123", stripe.SubscriptionStatusActive, "price_legacy", periodStart, periodEnd), nil).Once()
			},
			wantErr: billing.ErrUnknownPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			provider := new(StripeMock)
			svc := billing.New(repo, provider, testPrices(), testLogger())

			tt.setupMocks(repo, provider)

			state, err := svc.Sync(context.Background(), "user-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "UpdateSubscriptionState", mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, state.Status)
				assert.Equal(t, tt.wantPlan, state.Plan)
			}

			repo.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}

// Повторная сверка при неизменном состоянии провайдера обновляет
// те же самые поля теми же значениями.
func TestBillingService_Sync_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	periodStart := now.AddDate(0, -1, 0).Unix()
	periodEnd := now.AddDate(0, 1, 0).Unix()

	repo := new(UserRepoMock)
	provider := new(StripeMock)
	svc := billing.New(repo, provider, testPrices(), testLogger())

	user := &models.User{
		UID:                  "user-1",
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: "sub_123",
	}
	repo.On("GetUser", mock.Anything, "user-1").Return(user, nil).Twice()
	provider.On("GetSubscription", "sub_123").
		Return(providerSub("sub_123", stripe.SubscriptionStatusActive, "price_starter", periodStart, periodEnd), nil).Twice()
	repo.On("UpdateSubscriptionState", mock.Anything, "user-1", mock.Anything).Return(nil).Twice()

	first, err := svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)
	second, err := svc.Sync(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestBillingService_ApplySubscriptionEvent(t *testing.T) {
	now := time.Now().UTC()
	sub := providerSub("sub_evt", stripe.SubscriptionStatusPastDue, "price_professional",
		now.AddDate(0, -1, 0).Unix(), now.AddDate(0, 1, 0).Unix())
	sub.Customer = &stripe.Customer{ID: "cus_evt"}

	repo := new(UserRepoMock)
	provider := new(StripeMock)
	svc := billing.New(repo, provider, testPrices(), testLogger())

	repo.On("GetUserByStripeCustomer", mock.Anything, "cus_evt").
		Return(&models.User{UID: "user-9", StripeCustomerID: "cus_evt"}, nil).Once()
	repo.On("UpdateSubscriptionState", mock.Anything, "user-9", mock.MatchedBy(func(state models.SubscriptionState) bool {
		return state.Status == models.StatusPastDue && state.StripeSubscriptionID == "sub_evt"
	})).Return(nil).Once()

	err := svc.ApplySubscriptionEvent(context.Background(), sub)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestBillingService_CreateCheckout(t *testing.T) {
	repo := new(UserRepoMock)
	provider := new(StripeMock)
	svc := billing.New(repo, provider, testPrices(), testLogger())

	repo.On("GetUser", mock.Anything, "user-1").
		Return(&models.User{UID: "user-1", StripeCustomerID: "cus_123"}, nil).Twice()
	provider.On("CreateCheckoutSession", "cus_123", "price_enterprise", "https://app/success", "https://app/cancel").
		Return("https://checkout/session", nil).Once()

	url, err := svc.CreateCheckout(context.Background(), "user-1", models.PlanEnterprise, "https://app/success", "https://app/cancel")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout/session", url)

	_, err = svc.CreateCheckout(context.Background(), "user-1", "legacy", "https://app/success", "https://app/cancel")
	require.ErrorIs(t, err, billing.ErrUnknownPrice)

	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}
