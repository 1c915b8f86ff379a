package search

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

	"github.com/ainexo/declair/internal/http/middlewarectx"
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/services/chat"
)

// Мок сервиса с методом Search
type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) Search(ctx context.Context, companyUID, chatbotID, query string, limit int) ([]*models.SearchResult, error) {
	args := m.Called(ctx, companyUID, chatbotID, query, limit)
	var results []*models.SearchResult
	if args.Get(0) != nil {
		results = args.Get(0).([]*models.SearchResult)
	}
	return results, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSearchHandler_ServeHTTP(t *testing.T) {
	const botID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

	results := []*models.SearchResult{
		{Content: "Возврат возможен в течение 14 дней."},
		{Content: "Доставка занимает от двух до пяти дней."},
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		companyUID     string
		mockResults    []*models.SearchResult
		mockErr        error
		callExpected   bool
		wantStatusCode int
		wantError      string
		wantCount      float64
	}{
		{
			name:           "successful search",
			requestBody:    Request{Question: "Какие условия возврата?", ChatbotID: botID, Limit: 5},
			companyUID:     "company-1",
			mockResults:    results,
			callExpected:   true,
			wantStatusCode: http.StatusOK,
			wantCount:      2,
		},
		{
			name:           "empty results",
			requestBody:    Request{Question: "Что-то совсем не по теме", ChatbotID: botID},
			companyUID:     "company-1",
			mockResults:    nil,
			callExpected:   true,
			wantStatusCode: http.StatusOK,
			wantCount:      0,
		},
		{
			name:           "missing question",
			requestBody:    Request{ChatbotID: botID, Limit: 5},
			companyUID:     "company-1",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing chatbot id",
			requestBody:    Request{Question: "Какие условия возврата?"},
			companyUID:     "company-1",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "chatbot of another company",
			requestBody:    Request{Question: "Какие условия возврата?", ChatbotID: botID},
			companyUID:     "company-1",
			mockErr:        chat.ErrUnknownChatbot,
			callExpected:   true,
			wantStatusCode: http.StatusBadRequest,
			wantError:      "unknown chatbot",
		},
		{
			name:           "no company in context",
			requestBody:    Request{Question: "Какие условия возврата?", ChatbotID: botID},
			companyUID:     "",
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "unauthorized",
		},
		{
			name:           "internal error",
			requestBody:    Request{Question: "Какие условия возврата?", ChatbotID: botID},
			companyUID:     "company-1",
			mockErr:        errors.New("embedding provider unavailable"),
			callExpected:   true,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal service error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ChatServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.callExpected {
				serviceMock.On("Search", mock.Anything, tt.companyUID, botID, mock.Anything, mock.Anything).
					Return(tt.mockResults, tt.mockErr).Once()
			}

			bodyBytes, err := json.Marshal(tt.requestBody)
			if err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(http.MethodPost, "/chat/search", bytes.NewReader(bodyBytes))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.companyUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.CompanyUID, tt.companyUID)
			}
			req = req.WithContext(ctx)

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
			}
			if tt.wantStatusCode == http.StatusOK {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, tt.wantCount, data["results_count"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
