package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/storage/repository"
)

// Мок хранилища поиска
type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetChatbotSettings(ctx context.Context, companyUID string) (*models.ChatbotSettings, error) {
	args := m.Called(ctx, companyUID)
	var settings *models.ChatbotSettings
	if args.Get(0) != nil {
		settings = args.Get(0).(*models.ChatbotSettings)
	}
	return settings, args.Error(1)
}

func (m *RepoMock) SearchChunks(ctx context.Context, companyUID string, embedding pgvector.Vector, limit int, minSimilarity float64) ([]*models.SearchResult, error) {
	args := m.Called(ctx, companyUID, embedding, limit, minSimilarity)
	var results []*models.SearchResult
	if args.Get(0) != nil {
		results = args.Get(0).([]*models.SearchResult)
	}
	return results, args.Error(1)
}

func (m *RepoMock) CreateConversation(ctx context.Context, conv models.Conversation) (int, error) {
	args := m.Called(ctx, conv)
	return args.Int(0), args.Error(1)
}

// Мок построителя эмбеддингов
type EmbedderMock struct {
	mock.Mock
}

func (m *EmbedderMock) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(pgvector.Vector), args.Error(1)
}

func (m *EmbedderMock) EmbedBatch(ctx context.Context, texts []string) ([]pgvector.Vector, error) {
	args := m.Called(ctx, texts)
	var vectors []pgvector.Vector
	if args.Get(0) != nil {
		vectors = args.Get(0).([]pgvector.Vector)
	}
	return vectors, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_Search(t *testing.T) {
	const companyUID = "company-1"
	ctx := context.Background()
	vector := pgvector.NewVector([]float32{0.1, 0.2, 0.3})
	results := []*models.SearchResult{
		{Content: "Возврат возможен в течение 14 дней.", Similarity: 0.9},
		{Content: "Доставка занимает от двух до пяти дней.", Similarity: 0.7},
	}
	ownSettings := &models.ChatbotSettings{CompanyUID: companyUID, BotName: "Acme Assistant"}

	t.Run("successful search logs conversation", func(t *testing.T) {
		repoMock := new(RepoMock)
		embedderMock := new(EmbedderMock)
		service := New(repoMock, embedderMock, newNoopLogger())

		repoMock.On("GetChatbotSettings", mock.Anything, companyUID).Return(ownSettings, nil).Once()
		embedderMock.On("Embed", mock.Anything, "Какие условия возврата?").Return(vector, nil).Once()
		repoMock.On("SearchChunks", mock.Anything, companyUID, vector, 5, minSimilarity).
			Return(results, nil).Once()
		// в журнал диалогов попадает лучший найденный фрагмент
		repoMock.On("CreateConversation", mock.Anything, mock.MatchedBy(func(conv models.Conversation) bool {
			return conv.CompanyUID == companyUID && conv.Answer == results[0].Content
		})).Return(1, nil).Once()

		got, err := service.Search(ctx, companyUID, companyUID, "Какие условия возврата?", 5)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		repoMock.AssertExpectations(t)
		embedderMock.AssertExpectations(t)
	})

	t.Run("unknown chatbot id", func(t *testing.T) {
		repoMock := new(RepoMock)
		embedderMock := new(EmbedderMock)
		service := New(repoMock, embedderMock, newNoopLogger())

		repoMock.On("GetChatbotSettings", mock.Anything, "no-such-bot").
			Return(nil, repository.ErrNotFound).Once()

		_, err := service.Search(ctx, companyUID, "no-such-bot", "Какие условия возврата?", 5)
		assert.ErrorIs(t, err, ErrUnknownChatbot)
		embedderMock.AssertNotCalled(t, "Embed")
		repoMock.AssertNotCalled(t, "SearchChunks")
	})

	t.Run("chatbot of another company", func(t *testing.T) {
		repoMock := new(RepoMock)
		embedderMock := new(EmbedderMock)
		service := New(repoMock, embedderMock, newNoopLogger())

		foreignSettings := &models.ChatbotSettings{CompanyUID: "company-2", BotName: "Other Bot"}
		repoMock.On("GetChatbotSettings", mock.Anything, "company-2").Return(foreignSettings, nil).Once()

		_, err := service.Search(ctx, companyUID, "company-2", "Какие условия возврата?", 5)
		assert.ErrorIs(t, err, ErrUnknownChatbot)
		embedderMock.AssertNotCalled(t, "Embed")
	})

	t.Run("limit is clamped to bounds", func(t *testing.T) {
		repoMock := new(RepoMock)
		embedderMock := new(EmbedderMock)
		service := New(repoMock, embedderMock, newNoopLogger())

		repoMock.On("GetChatbotSettings", mock.Anything, companyUID).Return(ownSettings, nil).Twice()
		embedderMock.On("Embed", mock.Anything, mock.Anything).Return(vector, nil).Twice()
		repoMock.On("SearchChunks", mock.Anything, companyUID, vector, maxLimit, minSimilarity).
			Return(nil, nil).Once()
		repoMock.On("SearchChunks", mock.Anything, companyUID, vector, defaultLimit, minSimilarity).
			Return(nil, nil).Once()
		repoMock.On("CreateConversation", mock.Anything, mock.Anything).Return(1, nil).Twice()

		_, err := service.Search(ctx, companyUID, companyUID, "вопрос", 100)
		require.NoError(t, err)
		_, err = service.Search(ctx, companyUID, companyUID, "вопрос", 0)
		require.NoError(t, err)
		repoMock.AssertExpectations(t)
	})

	t.Run("conversation log failure does not fail search", func(t *testing.T) {
		repoMock := new(RepoMock)
		embedderMock := new(EmbedderMock)
		service := New(repoMock, embedderMock, newNoopLogger())

		repoMock.On("GetChatbotSettings", mock.Anything, companyUID).Return(ownSettings, nil).Once()
		embedderMock.On("Embed", mock.Anything, mock.Anything).Return(vector, nil).Once()
		repoMock.On("SearchChunks", mock.Anything, companyUID, vector, 5, minSimilarity).
			Return(results, nil).Once()
		repoMock.On("CreateConversation", mock.Anything, mock.Anything).
			Return(0, errors.New("insert failed")).Once()

		got, err := service.Search(ctx, companyUID, companyUID, "Какие условия возврата?", 5)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
