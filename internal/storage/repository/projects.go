package repository

import (
	"context"
	"fmt"

	"github.com/ainexo/declair/internal/models"
)

// CreateProject вставляет новый проект и возвращает его ID.
func (s *Storage) CreateProject(ctx context.Context, project models.Project) (int, error) {
	const op = "storage.CreateProject"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO projects (company_uid, name, description)
			  VALUES ($1, $2, $3)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		project.CompanyUID, project.Name, project.Description).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListProjects возвращает список проектов компании с пагинацией.
func (s *Storage) ListProjects(ctx context.Context, companyUID string, limit, offset int) ([]*models.Project, error) {
	const op = "storage.ListProjects"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, company_uid, name, description, created_at
			  FROM projects
			  WHERE company_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, companyUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Project
	for rows.Next() {
		var item models.Project
		if err := rows.Scan(&item.ID, &item.CompanyUID, &item.Name,
			&item.Description, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateProject обновляет проект и возвращает количество изменённых строк.
func (s *Storage) UpdateProject(ctx context.Context, project models.Project, id int, companyUID string) (int, error) {
	const op = "storage.UpdateProject"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE projects
			  SET name = $1, description = $2
			  WHERE id = $3 AND company_uid = $4`
	result, err := s.DB.ExecContext(ctx, query, project.Name, project.Description, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RemoveProject удаляет проект и возвращает количество удалённых строк.
func (s *Storage) RemoveProject(ctx context.Context, id int, companyUID string) (int, error) {
	const op = "storage.RemoveProject"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM projects WHERE id = $1 AND company_uid = $2`, id, companyUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
