package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduforma/turmas-api/internal/models"
)

func TestTurmaRepositoryFindDisponivelByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTurmaRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "campus_id", "nome", "sobre", "pdf_url", "foto_capa", "data",
		"data_limite_inscricao", "hora_inicio", "hora_fim", "local", "capacidade",
		"status", "created_at", "updated_at", "campus_nome", "total_inscritos",
	}).AddRow("turma-1", "campus-1", nil, nil, nil, nil, now, nil, "09:00", "12:00",
		"Sala 3", 25, models.TurmaStatusAberta, now, now, "Campus Norte", 10)
	mock.ExpectQuery(`SELECT t\.id, .+ FROM turmas t`).
		WithArgs("turma-1").
		WillReturnRows(rows)

	turma, err := repo.FindDisponivelByID(context.Background(), "turma-1")
	require.NoError(t, err)
	assert.Equal(t, "Campus Norte", turma.CampusNome)
	assert.Equal(t, 10, turma.TotalInscritos)
	assert.Equal(t, 25, turma.Capacidade)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTurmaRepositoryListHonorsLargePageSize(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTurmaRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "campus_id", "nome", "sobre", "pdf_url", "foto_capa", "data",
		"data_limite_inscricao", "hora_inicio", "hora_fim", "local", "capacidade",
		"status", "created_at", "updated_at", "campus_nome", "total_inscritos",
	}).
		AddRow("turma-1", "campus-1", nil, nil, nil, nil, now, nil, "09:00", "12:00",
			"Sala 1", 25, models.TurmaStatusAberta, now, now, "Campus Norte", 5).
		AddRow("turma-2", "campus-1", nil, nil, nil, nil, now, nil, "14:00", "17:00",
			"Sala 2", 30, models.TurmaStatusAberta, now, now, "Campus Norte", 12)
	mock.ExpectQuery(`SELECT t\.id, .+ LIMIT 500 OFFSET 0`).
		WithArgs(models.TurmaStatusAberta).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM turmas t`).
		WithArgs(models.TurmaStatusAberta).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	turmas, total, err := repo.List(context.Background(), models.TurmaFilter{
		Status:   models.TurmaStatusAberta,
		Page:     1,
		PageSize: 500,
	})
	require.NoError(t, err)
	assert.Len(t, turmas, 2)
	assert.Equal(t, 2, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTurmaRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTurmaRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE turmas SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("turma-1", models.TurmaStatusConcluida, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "turma-1", models.TurmaStatusConcluida)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTurmaRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTurmaRepository(db)

	rows := sqlmock.NewRows([]string{"status", "total"}).
		AddRow(models.TurmaStatusAberta, 3).
		AddRow(models.TurmaStatusConcluida, 7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM turmas GROUP BY status")).
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts[models.TurmaStatusAberta])
	assert.Equal(t, 7, counts[models.TurmaStatusConcluida])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTurmaRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTurmaRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM turmas WHERE id = $1")).
		WithArgs("turma-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "turma-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
