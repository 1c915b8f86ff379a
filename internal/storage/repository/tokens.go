package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ainexo/declair/internal/models"
)

// CreateVerificationToken сохраняет одноразовый токен и возвращает его ID.
func (s *Storage) CreateVerificationToken(ctx context.Context, token models.VerificationToken) (int, error) {
	const op = "storage.CreateVerificationToken"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO verification_tokens (user_uid, token, kind, expires)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		token.UserUID, token.Token, token.Kind, token.Expires).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetVerificationToken возвращает токен заданного вида.
func (s *Storage) GetVerificationToken(ctx context.Context, token, kind string) (*models.VerificationToken, error) {
	const op = "storage.GetVerificationToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	vt := &models.VerificationToken{}
	query := `SELECT id, user_uid, token, kind, expires, created_at
			  FROM verification_tokens
			  WHERE token = $1 AND kind = $2`
	row := s.DB.QueryRowContext(ctx, query, token, kind)
	if err := row.Scan(&vt.ID, &vt.UserUID, &vt.Token, &vt.Kind,
		&vt.Expires, &vt.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vt, nil
}

// RemoveVerificationToken удаляет использованный токен.
func (s *Storage) RemoveVerificationToken(ctx context.Context, id int) error {
	const op = "storage.RemoveVerificationToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
