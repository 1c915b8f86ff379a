package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ainexo/declair/internal/models"
)

// GetChatbotSettings возвращает настройки чат-бота компании.
func (s *Storage) GetChatbotSettings(ctx context.Context, companyUID string) (*models.ChatbotSettings, error) {
	const op = "storage.GetChatbotSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cs := &models.ChatbotSettings{}
	query := `SELECT company_uid, bot_name, greeting, tone, language, enabled
			  FROM chatbot_settings
			  WHERE company_uid = $1`
	row := s.DB.QueryRowContext(ctx, query, companyUID)
	if err := row.Scan(&cs.CompanyUID, &cs.BotName, &cs.Greeting, &cs.Tone,
		&cs.Language, &cs.Enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cs, nil
}

// UpdateChatbotSettings обновляет настройки чат-бота компании
// и возвращает количество изменённых строк.
func (s *Storage) UpdateChatbotSettings(ctx context.Context, cs models.ChatbotSettings) (int, error) {
	const op = "storage.UpdateChatbotSettings"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE chatbot_settings
			  SET bot_name = $1, greeting = $2, tone = $3, language = $4, enabled = $5
			  WHERE company_uid = $6`
	result, err := s.DB.ExecContext(ctx, query,
		cs.BotName, cs.Greeting, cs.Tone, cs.Language, cs.Enabled, cs.CompanyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
