// Package chat реализует семантический поиск по базе знаний
// для виджета чат-бота.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pgvector/pgvector-go"

	"github.com/ainexo/declair/internal/lib/embeddings"
	"github.com/ainexo/declair/internal/lib/sl"
	"github.com/ainexo/declair/internal/models"
	"github.com/ainexo/declair/internal/storage/repository"
)

// ErrUnknownChatbot возвращается, когда идентификатор чат-бота
// не принадлежит компании запрашивающего.
var ErrUnknownChatbot = errors.New("unknown chatbot")

// Пределы поиска.
const (
	defaultLimit  = 5
	maxLimit      = 20
	minSimilarity = 0.5
)

// Repository определяет методы хранилища, используемые поиском.
type Repository interface {
	GetChatbotSettings(ctx context.Context, companyUID string) (*models.ChatbotSettings, error)
	SearchChunks(ctx context.Context, companyUID string, embedding pgvector.Vector, limit int, minSimilarity float64) ([]*models.SearchResult, error)
	CreateConversation(ctx context.Context, conv models.Conversation) (int, error)
}

// Service реализует поиск ответов по базе знаний компании.
type Service struct {
	repo     Repository
	embedder embeddings.Embedder
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, embedder embeddings.Embedder, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		log:      log,
	}
}

// Search ищет фрагменты базы знаний, релевантные вопросу.
// Идентификатором чат-бота служит UID компании: у каждой компании
// ровно один бот, и chatbotID обязан указывать на бота вызывающего.
// Каждый запрос записывается в журнал диалогов для статистики дашборда.
func (s *Service) Search(ctx context.Context, companyUID, chatbotID, query string, limit int) ([]*models.SearchResult, error) {
	const op = "chat.Search"

	settings, err := s.repo.GetChatbotSettings(ctx, chatbotID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownChatbot)
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	case settings.CompanyUID != companyUID:
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownChatbot)
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	results, err := s.repo.SearchChunks(ctx, companyUID, vector, limit, minSimilarity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	answer := ""
	if len(results) > 0 {
		answer = results[0].Content
	}
	if _, err := s.repo.CreateConversation(ctx, models.Conversation{
		CompanyUID: companyUID,
		Question:   query,
		Answer:     answer,
	}); err != nil {
		// журнал диалогов не блокирует выдачу результатов
		s.log.Warn("failed to log conversation", sl.Err(err))
	}
	return results, nil
}
