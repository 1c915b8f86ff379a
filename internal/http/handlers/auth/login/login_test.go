package login

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

	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/services/auth"
)

// Мок сервиса с методом Login
type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	args := m.Called(ctx, email, rawPassword)
	var user *models.User
	if args.Get(1) != nil {
		user = args.Get(1).(*models.User)
	}
	return args.String(0), user, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	validBody := Request{
		Email:    "alice@example.com",
		Password: "password123",
	}
	user := &models.User{
		UID:   "uid-123",
		Email: "alice@example.com",
		Role:  models.RoleAdmin,
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		mockToken      string
		mockUser       *models.User
		mockErr        error
		callExpected   bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "valid login",
			requestBody:    validBody,
			mockToken:      "jwt-token",
			mockUser:       user,
			callExpected:   true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "invalid credentials",
			requestBody:    validBody,
			mockErr:        auth.ErrInvalidCredentials,
			callExpected:   true,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "invalid credentials",
		},
		{
			name:           "too many attempts",
			requestBody:    validBody,
			mockErr:        auth.ErrTooManyAttempts,
			callExpected:   true,
			wantStatusCode: http.StatusTooManyRequests,
			wantError:      "too many failed attempts, try again later",
		},
		{
			name:           "email not verified",
			requestBody:    validBody,
			mockErr:        auth.ErrEmailNotVerified,
			callExpected:   true,
			wantStatusCode: http.StatusForbidden,
			wantError:      "email is not verified",
		},
		{
			name:           "internal error",
			requestBody:    validBody,
			mockErr:        errors.New("db down"),
			callExpected:   true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(AuthServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.callExpected {
				serviceMock.On("Login", mock.Anything, validBody.Email, validBody.Password).
					Return(tt.mockToken, tt.mockUser, tt.mockErr).Once()
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

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, "jwt-token", data["token"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
