package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduforma/turmas-api/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func turmaAberta(capacidade int, data string, deadline *string) models.Turma {
	t := models.Turma{
		Capacidade: capacidade,
		Data:       day(data),
		Status:     models.TurmaStatusAberta,
	}
	if deadline != nil {
		d := day(*deadline)
		t.DataLimiteInscricao = &d
	}
	return t
}

func TestComputeSeatAccounting(t *testing.T) {
	now := day("2026-03-01")
	turma := turmaAberta(30, "2026-03-10", nil)

	tests := []struct {
		name        string
		activeCount int
		wantVagas   int
	}{
		{"empty class", 0, 30},
		{"partially filled", 12, 18},
		{"exactly full", 30, 0},
		{"overfull floors at zero", 35, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compute(turma, tt.activeCount, now)
			assert.Equal(t, tt.wantVagas, p.VagasDisponiveis)
		})
	}
}

func TestComputeDeadlineRule(t *testing.T) {
	deadline := "2026-03-05"

	tests := []struct {
		name       string
		now        time.Time
		wantClosed bool
	}{
		{"day before deadline", day("2026-03-04"), false},
		{"deadline day is still valid", day("2026-03-05"), false},
		{"deadline day late evening still valid", day("2026-03-05").Add(23*time.Hour + 59*time.Minute), false},
		{"midnight after deadline closes", day("2026-03-06"), true},
		{"well past deadline", day("2026-03-20"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compute(turmaAberta(10, "2026-03-10", &deadline), 0, tt.now)
			assert.Equal(t, tt.wantClosed, p.Closed)
		})
	}
}

func TestComputeFallsBackToClassDate(t *testing.T) {
	turma := turmaAberta(10, "2026-03-10", nil)

	p := Compute(turma, 0, day("2026-03-10"))
	require.False(t, p.Closed)

	p = Compute(turma, 0, day("2026-03-11"))
	require.True(t, p.Closed)
	assert.Equal(t, models.TurmaStatusEncerrada, p.EffectiveStatus)
}

func TestComputeStoredStatusOverridesOpenDates(t *testing.T) {
	turma := turmaAberta(10, "2026-03-10", nil)
	turma.Status = models.TurmaStatusEncerrada

	p := Compute(turma, 0, day("2026-03-01"))
	assert.True(t, p.Closed)
	assert.Equal(t, models.TurmaStatusEncerrada, p.EffectiveStatus)

	turma.Status = models.TurmaStatusConcluida
	p = Compute(turma, 0, day("2026-03-01"))
	assert.True(t, p.Closed)
	assert.Equal(t, models.TurmaStatusConcluida, p.EffectiveStatus)
}

func TestComputePastDeadlineClosesDespiteStoredOpen(t *testing.T) {
	deadline := "2026-03-05"
	turma := turmaAberta(10, "2026-03-10", &deadline)

	p := Compute(turma, 0, day("2026-03-06"))
	require.True(t, p.Closed)
	assert.Equal(t, models.TurmaStatusEncerrada, p.EffectiveStatus)
}

func TestCanEnroll(t *testing.T) {
	open := Projection{VagasDisponiveis: 1, EffectiveStatus: models.TurmaStatusAberta}
	assert.True(t, CanEnroll(open))

	full := Projection{VagasDisponiveis: 0, EffectiveStatus: models.TurmaStatusAberta}
	assert.False(t, CanEnroll(full))

	closed := Projection{VagasDisponiveis: 5, Closed: true, EffectiveStatus: models.TurmaStatusEncerrada}
	assert.False(t, CanEnroll(closed))
}

func TestEffectiveDeadline(t *testing.T) {
	deadline := "2026-03-05"
	withDeadline := turmaAberta(10, "2026-03-10", &deadline)
	assert.Equal(t, day("2026-03-05"), EffectiveDeadline(withDeadline))

	withoutDeadline := turmaAberta(10, "2026-03-10", nil)
	assert.Equal(t, day("2026-03-10"), EffectiveDeadline(withoutDeadline))
}
