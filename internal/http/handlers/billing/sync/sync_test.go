package sync

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/services/billing"
)

// Мок сервиса с методом Sync
type BillingServiceMock struct {
	mock.Mock
}

func (m *BillingServiceMock) Sync(ctx context.Context, userUID string) (*models.SubscriptionState, error) {
	args := m.Called(ctx, userUID)
	var state *models.SubscriptionState
	if args.Get(0) != nil {
		state = args.Get(0).(*models.SubscriptionState)
	}
	return state, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSyncHandler_ServeHTTP(t *testing.T) {
	now := time.Now().UTC()
	state := &models.SubscriptionState{
		Status:    models.StatusActive,
		Plan:      "professional",
		StartDate: now,
		EndDate:   now.AddDate(0, 1, 0),
	}

	tests := []struct {
		name           string
		userUID        string
		mockState      *models.SubscriptionState
		mockErr        error
		callExpected   bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "successful sync",
			userUID:        "uid-123",
			mockState:      state,
			callExpected:   true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "no user in context",
			userUID:        "",
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
		},
		{
			name:           "no customer",
			userUID:        "uid-123",
			mockErr:        billing.ErrNoCustomer,
			callExpected:   true,
			wantStatusCode: http.StatusNotFound,
			wantError:      "no billing customer on file",
		},
		{
			name:           "no subscription",
			userUID:        "uid-123",
			mockErr:        billing.ErrNoSubscription,
			callExpected:   true,
			wantStatusCode: http.StatusNotFound,
			wantError:      "no subscription found",
		},
		{
			name:           "unmapped price",
			userUID:        "uid-123",
			mockErr:        billing.ErrUnknownPrice,
			callExpected:   true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "subscription price is not mapped to any plan",
		},
		{
			name:           "bad dates",
			userUID:        "uid-123",
			mockErr:        billing.ErrBadDates,
			callExpected:   true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "subscription dates are not parseable",
		},
		{
			name:           "provider failure",
			userUID:        "uid-123",
			mockErr:        errors.New("stripe unavailable"),
			callExpected:   true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(BillingServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.callExpected {
				serviceMock.On("Sync", mock.Anything, tt.userUID).
					Return(tt.mockState, tt.mockErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/billing/sync", nil)
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			req = req.WithContext(ctx)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err := json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, models.StatusActive, data["status"])
				assert.Equal(t, "professional", data["plan"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
