package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduforma/turmas-api/internal/models"
)

func TestAvaliacaoRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvaliacaoRepository(db)

	respostas, _ := json.Marshal(map[string]string{"conteudo": "otimo"})
	avaliacao := &models.Avaliacao{
		TurmaID:   "turma-1",
		UserID:    "user-1",
		Respostas: respostas,
		NPS:       9,
	}

	mock.ExpectExec("INSERT INTO avaliacoes").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), avaliacao))
	assert.NotEmpty(t, avaliacao.ID)
	assert.False(t, avaliacao.EnviadaEm.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvaliacaoRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvaliacaoRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM avaliacoes WHERE turma_id = $1 AND user_id = $2 LIMIT 1")).
		WithArgs("turma-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "turma-1", "user-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM avaliacoes WHERE turma_id = $1 AND user_id = $2 LIMIT 1")).
		WithArgs("turma-1", "user-2").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.Exists(context.Background(), "turma-1", "user-2")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvaliacaoRepositoryAverageNPS(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvaliacaoRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(AVG\(nps\), 0\), COUNT\(\*\) FROM avaliacoes`).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(8.5, 12))

	avg, count, err := repo.AverageNPS(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 8.5, avg, 0.001)
	assert.Equal(t, 12, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
