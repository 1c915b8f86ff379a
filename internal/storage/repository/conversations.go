package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ainexo/declair/internal/models"
)

// CreateConversation сохраняет один обмен вопрос-ответ и возвращает его ID.
func (s *Storage) CreateConversation(ctx context.Context, conv models.Conversation) (int, error) {
	const op = "storage.CreateConversation"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO conversations (company_uid, question, answer)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		conv.CompanyUID, conv.Question, conv.Answer).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// CountConversationsByDay возвращает количество диалогов компании по дням
// за указанный период для графиков дашборда.
func (s *Storage) CountConversationsByDay(ctx context.Context, companyUID string, from, to time.Time) ([]*models.DailyCount, error) {
	const op = "storage.CountConversationsByDay"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT created_at::DATE AS day, COUNT(*)
			  FROM conversations
			  WHERE company_uid = $1
			    AND created_at >= $2
			    AND created_at < $3
			  GROUP BY day
			  ORDER BY day`
	rows, err := s.DB.QueryContext(ctx, query, companyUID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.DailyCount
	for rows.Next() {
		var item models.DailyCount
		if err := rows.Scan(&item.Day, &item.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountConversationsTotal возвращает общее число диалогов компании.
func (s *Storage) CountConversationsTotal(ctx context.Context, companyUID string) (int, error) {
	const op = "storage.CountConversationsTotal"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE company_uid = $1`, companyUID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
