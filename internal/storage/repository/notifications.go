package repository

import (
	"context"
	"fmt"

	"github.com/ainexo/declair/internal/models"
)

// CreateNotification сохраняет уведомление пользователя и возвращает его ID.
func (s *Storage) CreateNotification(ctx context.Context, n models.Notification) (int, error) {
	const op = "storage.CreateNotification"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO notifications (user_uid, title, body)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		n.UserUID, n.Title, n.Body).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListNotifications возвращает уведомления пользователя, непрочитанные первыми.
func (s *Storage) ListNotifications(ctx context.Context, userUID string, limit, offset int) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, title, body, read, created_at
			  FROM notifications
			  WHERE user_uid = $1
			  ORDER BY read, created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Notification
	for rows.Next() {
		var item models.Notification
		if err := rows.Scan(&item.ID, &item.UserUID, &item.Title, &item.Body,
			&item.Read, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkNotificationRead помечает уведомление пользователя прочитанным
// и возвращает количество изменённых строк.
func (s *Storage) MarkNotificationRead(ctx context.Context, id int, userUID string) (int, error) {
	const op = "storage.MarkNotificationRead"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
