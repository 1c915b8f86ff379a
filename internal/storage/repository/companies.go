package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ainexo/declair/internal/models"
)

// GetCompany возвращает компанию по её UID.
func (s *Storage) GetCompany(ctx context.Context, companyUID string) (*models.Company, error) {
	const op = "storage.GetCompany"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	c := &models.Company{}
	row := s.DB.QueryRowContext(ctx,
		`SELECT uid, name, created_at FROM companies WHERE uid = $1`, companyUID)
	if err := row.Scan(&c.UID, &c.Name, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
