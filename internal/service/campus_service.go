package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

type campusRepository interface {
	List(ctx context.Context) ([]models.Campus, error)
	FindByID(ctx context.Context, id string) (*models.Campus, error)
	Create(ctx context.Context, campus *models.Campus) error
	Update(ctx context.Context, id, nome string) error
	Delete(ctx context.Context, id string) error
}

// CampusService manages campus records.
type CampusService struct {
	repo   campusRepository
	logger *zap.Logger
}

// NewCampusService constructs a CampusService.
func NewCampusService(repo campusRepository, logger *zap.Logger) *CampusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampusService{repo: repo, logger: logger}
}

// List returns all campuses ordered by name.
func (s *CampusService) List(ctx context.Context) ([]models.Campus, error) {
	campuses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campuses")
	}
	return campuses, nil
}

// Get returns a campus by ID.
func (s *CampusService) Get(ctx context.Context, id string) (*models.Campus, error) {
	campus, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campus not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campus")
	}
	return campus, nil
}

// Create registers a new campus.
func (s *CampusService) Create(ctx context.Context, nome string) (*models.Campus, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "campus name is required")
	}

	campus := &models.Campus{Nome: nome}
	if err := s.repo.Create(ctx, campus); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campus")
	}
	return campus, nil
}

// Update renames an existing campus.
func (s *CampusService) Update(ctx context.Context, id, nome string) (*models.Campus, error) {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "campus name is required")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, nome); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campus")
	}
	return s.Get(ctx, id)
}

// Delete removes a campus.
func (s *CampusService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete campus")
	}
	return nil
}
