package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduforma/turmas-api/internal/models"
)

func TestPresencaRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPresencaRepository(db)

	marker := "gestor-1"
	presenca := &models.Presenca{
		TurmaID:    "turma-1",
		UserID:     "user-1",
		Presente:   true,
		MarcadoPor: &marker,
	}

	mock.ExpectExec(`INSERT INTO presencas .+ ON CONFLICT \(turma_id, user_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), presenca))
	assert.NotEmpty(t, presenca.ID)
	assert.False(t, presenca.MarcadoEm.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPresencaRepositoryListByTurma(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPresencaRepository(db)

	now := time.Now().UTC()
	marcador := "Maria Gestora"
	rows := sqlmock.NewRows([]string{
		"id", "turma_id", "user_id", "presente", "marcado_por", "marcado_em",
		"user_nome", "user_email", "marcador_nome",
	}).AddRow("pres-1", "turma-1", "user-1", true, "gestor-1", now, "Joao Prof", "joao@exemplo.br", marcador)
	mock.ExpectQuery(`SELECT p\.id, .+ FROM presencas p`).
		WithArgs("turma-1").
		WillReturnRows(rows)

	presencas, err := repo.ListByTurma(context.Background(), "turma-1")
	require.NoError(t, err)
	require.Len(t, presencas, 1)
	assert.True(t, presencas[0].Presente)
	assert.Equal(t, "Joao Prof", presencas[0].UserNome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPresencaRepositoryCountPresent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPresencaRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FILTER \(WHERE presente\), COUNT\(\*\) FROM presencas`).
		WillReturnRows(sqlmock.NewRows([]string{"present", "total"}).AddRow(8, 10))

	present, total, err := repo.CountPresent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, present)
	assert.Equal(t, 10, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
