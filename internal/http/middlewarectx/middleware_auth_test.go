package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/lib/jwt"
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/services/trial"
)

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(username, role, userUID, companyUID string) (string, error) {
	args := m.Called(username, role, userUID, companyUID)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(tokenStr string) (*jwt.CustomClaims, error) {
	args := m.Called(tokenStr)
	claims, _ := args.Get(0).(*jwt.CustomClaims)
	return claims, args.Error(1)
}

// Мок для AccessEvaluator
type AccessEvaluatorMock struct {
	mock.Mock
}

func (m *AccessEvaluatorMock) EvaluateUser(ctx context.Context, userUID string) (*trial.Evaluation, error) {
	args := m.Called(ctx, userUID)
	ev, _ := args.Get(0).(*trial.Evaluation)
	return ev, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestJWTMiddleware(t *testing.T) {
	validClaims := &jwt.CustomClaims{
		Username:   "alice@example.com",
		Role:       models.RoleAdmin,
		UserUID:    "uid-123",
		CompanyUID: "company-1",
	}

	tests := []struct {
		name           string
		authHeader     string
		mockClaims     *jwt.CustomClaims
		mockErr        error
		parseExpected  bool
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer badtoken",
			mockErr:        errors.New("token is malformed"),
			parseExpected:  true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer validtoken",
			mockClaims:     validClaims,
			parseExpected:  true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			makerMock := new(JwtMakerMock)
			if tt.parseExpected {
				makerMock.On("ParseToken", mock.Anything).Return(tt.mockClaims, tt.mockErr).Once()
			}

			handlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				assert.Equal(t, "alice@example.com", r.Context().Value(middlewarectx.User))
				assert.Equal(t, models.RoleAdmin, r.Context().Value(middlewarectx.Role))
				assert.Equal(t, "uid-123", r.Context().Value(middlewarectx.UserUID))
				assert.Equal(t, "company-1", r.Context().Value(middlewarectx.CompanyUID))
				w.WriteHeader(http.StatusOK)
			})

			mw := middlewarectx.JWTMiddleware(makerMock, newNoopLogger())(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			makerMock.AssertExpectations(t)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		role           any
		allowedRoles   []string
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "role allowed",
			role:           models.RoleAdmin,
			allowedRoles:   []string{models.RoleAdmin, models.RoleSuperuser},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "role not allowed",
			role:           models.RoleMember,
			allowedRoles:   []string{models.RoleAdmin},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "role missing in context",
			role:           nil,
			allowedRoles:   []string{models.RoleAdmin},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			mw := middlewarectx.RequireRole(newNoopLogger(), tt.allowedRoles...)(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != nil {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Role, tt.role))
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
		})
	}
}

func TestSubscriptionAccessMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		userUID        string
		mockEval       *trial.Evaluation
		mockErr        error
		callExpected   bool
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "access granted",
			userUID:        "uid-123",
			mockEval:       &trial.Evaluation{HasAccess: true},
			callExpected:   true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:    "access denied after grace period",
			userUID: "uid-123",
			mockEval: &trial.Evaluation{
				HasAccess: false,
				Message:   "Your subscription has expired. Please renew to continue.",
			},
			callExpected:   true,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "no user in context",
			userUID:        "",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "evaluation error",
			userUID:        "uid-123",
			mockErr:        errors.New("db down"),
			callExpected:   true,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalMock := new(AccessEvaluatorMock)
			if tt.callExpected {
				evalMock.On("EvaluateUser", mock.Anything, tt.userUID).
					Return(tt.mockEval, tt.mockErr).Once()
			}

			handlerCalled := false
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			mw := middlewarectx.SubscriptionAccessMiddleware(newNoopLogger(), evalMock)(nextHandler)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userUID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID))
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			evalMock.AssertExpectations(t)
		})
	}
}
