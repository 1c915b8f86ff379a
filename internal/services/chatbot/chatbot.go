// Package chatbot содержит бизнес-логику настроек чат-бота с кешированием.
package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ainexo/declair/internal/models"
)

// cacheTTL время жизни настроек в кеше. Настройки читаются виджетом
// на каждом открытии чата, запись меняет их редко.
const cacheTTL = time.Hour

// Repository определяет методы для работы с настройками чат-бота в хранилище.
type Repository interface {
	GetChatbotSettings(ctx context.Context, companyUID string) (*models.ChatbotSettings, error)
	UpdateChatbotSettings(ctx context.Context, cs models.ChatbotSettings) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует чтение и обновление настроек чат-бота.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Read возвращает настройки чат-бота, используя кеш или репозиторий.
func (s *Service) Read(ctx context.Context, companyUID string) (*models.ChatbotSettings, error) {
	var result *models.ChatbotSettings
	cacheKey := fmt.Sprintf("chatbot_settings:%s", companyUID)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.GetChatbotSettings(ctx, companyUID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(cacheKey, result, cacheTTL); err != nil {
		s.log.Warn("failed to cache settings", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// Update обновляет настройки чат-бота и кеш.
func (s *Service) Update(ctx context.Context, companyUID string, req models.DummyChatbotSettings) (int, error) {
	settings := models.ChatbotSettings{
		CompanyUID: companyUID,
		BotName:    req.BotName,
		Greeting:   req.Greeting,
		Tone:       req.Tone,
		Language:   req.Language,
		Enabled:    req.Enabled,
	}
	count, err := s.repo.UpdateChatbotSettings(ctx, settings)
	if err != nil {
		return 0, err
	}

	cacheKey := fmt.Sprintf("chatbot_settings:%s", companyUID)
	if err := s.cache.Set(cacheKey, &settings, cacheTTL); err != nil {
		s.log.Warn("failed to cache settings", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return count, nil
}
