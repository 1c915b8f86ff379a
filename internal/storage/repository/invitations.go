package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ainexo/declair/internal/models"
)

// CreateInvitation сохраняет новое приглашение и возвращает его ID.
func (s *Storage) CreateInvitation(ctx context.Context, inv models.Invitation) (int, error) {
	const op = "storage.CreateInvitation"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO invitations (company_uid, email, role, token, status, expires)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		inv.CompanyUID, inv.Email, inv.Role, inv.Token, inv.Status, inv.Expires).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetInvitationByToken возвращает приглашение по его токену.
func (s *Storage) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	const op = "storage.GetInvitationByToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	inv := &models.Invitation{}
	query := `SELECT id, company_uid, email, role, token, status, expires, created_at
			  FROM invitations
			  WHERE token = $1`
	row := s.DB.QueryRowContext(ctx, query, token)
	if err := row.Scan(&inv.ID, &inv.CompanyUID, &inv.Email, &inv.Role,
		&inv.Token, &inv.Status, &inv.Expires, &inv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inv, nil
}

// MarkInvitationStatus обновляет статус приглашения.
func (s *Storage) MarkInvitationStatus(ctx context.Context, id int, status string) error {
	const op = "storage.MarkInvitationStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE invitations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
