package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduforma/turmas-api/internal/models"
)

// SpeakerRepository handles persistence of speakers and their turma links.
type SpeakerRepository struct {
	db *sqlx.DB
}

// NewSpeakerRepository constructs the repository.
func NewSpeakerRepository(db *sqlx.DB) *SpeakerRepository {
	return &SpeakerRepository{db: db}
}

// List returns all speakers ordered by name.
func (r *SpeakerRepository) List(ctx context.Context) ([]models.Speaker, error) {
	const query = `SELECT id, name, bio, avatar_url, linkedin_url, instagram_url, created_at FROM speakers ORDER BY name ASC`
	var speakers []models.Speaker
	if err := r.db.SelectContext(ctx, &speakers, query); err != nil {
		return nil, fmt.Errorf("list speakers: %w", err)
	}
	return speakers, nil
}

// FindByID returns a speaker by its ID.
func (r *SpeakerRepository) FindByID(ctx context.Context, id string) (*models.Speaker, error) {
	const query = `SELECT id, name, bio, avatar_url, linkedin_url, instagram_url, created_at FROM speakers WHERE id = $1`
	var speaker models.Speaker
	if err := r.db.GetContext(ctx, &speaker, query, id); err != nil {
		return nil, err
	}
	return &speaker, nil
}

// Create persists a new speaker.
func (r *SpeakerRepository) Create(ctx context.Context, speaker *models.Speaker) error {
	if speaker.ID == "" {
		speaker.ID = uuid.NewString()
	}
	if speaker.CreatedAt.IsZero() {
		speaker.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO speakers (id, name, bio, avatar_url, linkedin_url, instagram_url, created_at)
        VALUES (:id, :name, :bio, :avatar_url, :linkedin_url, :instagram_url, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, speaker); err != nil {
		return fmt.Errorf("create speaker: %w", err)
	}
	return nil
}

// Update replaces the mutable speaker fields.
func (r *SpeakerRepository) Update(ctx context.Context, speaker *models.Speaker) error {
	const query = `UPDATE speakers SET name = :name, bio = :bio, avatar_url = :avatar_url,
        linkedin_url = :linkedin_url, instagram_url = :instagram_url WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, speaker); err != nil {
		return fmt.Errorf("update speaker: %w", err)
	}
	return nil
}

// Delete removes a speaker and its turma links.
func (r *SpeakerRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM speakers WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete speaker: %w", err)
	}
	return nil
}

// ListByTurma returns the speakers linked to a turma.
func (r *SpeakerRepository) ListByTurma(ctx context.Context, turmaID string) ([]models.Speaker, error) {
	const query = `SELECT s.id, s.name, s.bio, s.avatar_url, s.linkedin_url, s.instagram_url, s.created_at
        FROM speakers s
        JOIN turma_speakers ts ON ts.speaker_id = s.id
        WHERE ts.turma_id = $1
        ORDER BY s.name ASC`
	var speakers []models.Speaker
	if err := r.db.SelectContext(ctx, &speakers, query, turmaID); err != nil {
		return nil, fmt.Errorf("list turma speakers: %w", err)
	}
	return speakers, nil
}

// Attach links a speaker to a turma, ignoring duplicates.
func (r *SpeakerRepository) Attach(ctx context.Context, turmaID, speakerID string) error {
	const query = `INSERT INTO turma_speakers (turma_id, speaker_id, created_at)
        VALUES ($1, $2, $3) ON CONFLICT (turma_id, speaker_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, turmaID, speakerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("attach speaker: %w", err)
	}
	return nil
}

// Detach unlinks a speaker from a turma.
func (r *SpeakerRepository) Detach(ctx context.Context, turmaID, speakerID string) error {
	const query = `DELETE FROM turma_speakers WHERE turma_id = $1 AND speaker_id = $2`
	if _, err := r.db.ExecContext(ctx, query, turmaID, speakerID); err != nil {
		return fmt.Errorf("detach speaker: %w", err)
	}
	return nil
}
