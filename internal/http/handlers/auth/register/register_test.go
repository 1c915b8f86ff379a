package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ainexo/declair/internal/services/auth"
)

// Мок сервиса с методом Register
type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, req auth.RegisterRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	validBody := Request{
		CompanyName:  "Acme Consulting",
		Name:         "Alice",
		Email:        "alice@example.com",
		Password:     "password123",
		CaptchaToken: "captcha-token",
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		mockUID        string
		mockErr        error
		callExpected   bool
		wantStatusCode int
		wantError      string
		wantStatus     string
	}{
		{
			name:           "valid registration",
			requestBody:    validBody,
			mockUID:        "uid-123",
			callExpected:   true,
			wantStatusCode: http.StatusCreated,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name: "validation error - missing password",
			requestBody: Request{
				CompanyName:  "Acme Consulting",
				Name:         "Alice",
				Email:        "alice@example.com",
				CaptchaToken: "captcha-token",
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password is a required field",
			wantStatus:     "Error",
		},
		{
			name:           "email already taken",
			requestBody:    validBody,
			mockErr:        auth.ErrEmailTaken,
			callExpected:   true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "email is already registered",
			wantStatus:     "Error",
		},
		{
			name:           "captcha rejected",
			requestBody:    validBody,
			mockErr:        auth.ErrBotSuspected,
			callExpected:   true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "captcha verification failed",
			wantStatus:     "Error",
		},
		{
			name:           "internal error",
			requestBody:    validBody,
			mockErr:        errors.New("db down"),
			callExpected:   true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "failed to register user",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(AuthServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.callExpected {
				serviceMock.On("Register", mock.Anything, mock.Anything).
					Return(tt.mockUID, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				assert.Nil(t, got["error"])
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "uid-123", data["user_uid"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
