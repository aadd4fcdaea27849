package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
)

type speakerRepository interface {
	List(ctx context.Context) ([]models.Speaker, error)
	FindByID(ctx context.Context, id string) (*models.Speaker, error)
	Create(ctx context.Context, speaker *models.Speaker) error
	Update(ctx context.Context, speaker *models.Speaker) error
	Delete(ctx context.Context, id string) error
	ListByTurma(ctx context.Context, turmaID string) ([]models.Speaker, error)
	Attach(ctx context.Context, turmaID, speakerID string) error
	Detach(ctx context.Context, turmaID, speakerID string) error
}

// SpeakerService manages speaker profiles and their assignment to classes.
type SpeakerService struct {
	repo      speakerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSpeakerService constructs a SpeakerService.
func NewSpeakerService(repo speakerRepository, validate *validator.Validate, logger *zap.Logger) *SpeakerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SpeakerService{repo: repo, validator: validate, logger: logger}
}

// List returns all speaker profiles.
func (s *SpeakerService) List(ctx context.Context) ([]models.Speaker, error) {
	speakers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list speakers")
	}
	return speakers, nil
}

// Get returns a speaker by ID.
func (s *SpeakerService) Get(ctx context.Context, id string) (*models.Speaker, error) {
	speaker, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "speaker not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load speaker")
	}
	return speaker, nil
}

// Create registers a new speaker profile.
func (s *SpeakerService) Create(ctx context.Context, req models.SpeakerRequest) (*models.Speaker, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid speaker payload")
	}

	speaker := &models.Speaker{
		Name:         req.Name,
		Bio:          req.Bio,
		AvatarURL:    req.AvatarURL,
		LinkedinURL:  req.LinkedinURL,
		InstagramURL: req.InstagramURL,
	}
	if err := s.repo.Create(ctx, speaker); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create speaker")
	}
	return speaker, nil
}

// Update modifies an existing speaker profile.
func (s *SpeakerService) Update(ctx context.Context, id string, req models.SpeakerRequest) (*models.Speaker, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid speaker payload")
	}

	speaker, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	speaker.Name = req.Name
	speaker.Bio = req.Bio
	speaker.AvatarURL = req.AvatarURL
	speaker.LinkedinURL = req.LinkedinURL
	speaker.InstagramURL = req.InstagramURL

	if err := s.repo.Update(ctx, speaker); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update speaker")
	}
	return speaker, nil
}

// Delete removes a speaker profile.
func (s *SpeakerService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete speaker")
	}
	return nil
}

// Attach links a speaker to a turma. Attaching twice is a no-op.
func (s *SpeakerService) Attach(ctx context.Context, turmaID, speakerID string) error {
	if _, err := s.Get(ctx, speakerID); err != nil {
		return err
	}
	if err := s.repo.Attach(ctx, turmaID, speakerID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach speaker")
	}
	return nil
}

// Detach unlinks a speaker from a turma.
func (s *SpeakerService) Detach(ctx context.Context, turmaID, speakerID string) error {
	if err := s.repo.Detach(ctx, turmaID, speakerID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach speaker")
	}
	return nil
}
