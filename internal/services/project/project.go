// Package project содержит бизнес-логику управления проектами компании.
package project

import (
	"context"
	"log/slog"

	"github.com/ainexo/declair/internal/models"
)

// Repository определяет методы для работы с проектами в хранилище.
type Repository interface {
	CreateProject(ctx context.Context, project models.Project) (int, error)
	ListProjects(ctx context.Context, companyUID string, limit, offset int) ([]*models.Project, error)
	UpdateProject(ctx context.Context, project models.Project, id int, companyUID string) (int, error)
	RemoveProject(ctx context.Context, id int, companyUID string) (int, error)
}

// Service реализует операции над проектами.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create создает проект внутри компании и возвращает его ID.
func (s *Service) Create(ctx context.Context, companyUID string, req models.DummyProject) (int, error) {
	id, err := s.repo.CreateProject(ctx, models.Project{
		CompanyUID:  companyUID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("created project", slog.Int("id", id))
	return id, nil
}

// List возвращает проекты компании с пагинацией.
func (s *Service) List(ctx context.Context, companyUID string, limit, offset int) ([]*models.Project, error) {
	return s.repo.ListProjects(ctx, companyUID, limit, offset)
}

// Update обновляет проект и возвращает число затронутых записей.
func (s *Service) Update(ctx context.Context, companyUID string, id int, req models.DummyProject) (int, error) {
	return s.repo.UpdateProject(ctx, models.Project{
		Name:        req.Name,
		Description: req.Description,
	}, id, companyUID)
}

// Remove удаляет проект и возвращает число затронутых записей.
func (s *Service) Remove(ctx context.Context, companyUID string, id int) (int, error) {
	return s.repo.RemoveProject(ctx, id, companyUID)
}
