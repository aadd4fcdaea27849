// Package availability holds the seat and deadline arithmetic shared by the
// read-side class projection and the transactional enrollment check. Both
// paths must agree, so the rules live in exactly one place.
package availability

import (
	"time"

	"github.com/eduforma/turmas-api/internal/models"
)

// Projection is the derived enrollment state of a turma at a point in time.
type Projection struct {
	VagasDisponiveis int
	EffectiveStatus  models.TurmaStatus
	Closed           bool
}

// Compute derives available seats and the effective open/closed state.
//
// Seats never go negative even if active enrollments transiently exceed
// capacity. The deadline date (or the class date when no explicit deadline is
// set) is the last valid calendar day: enrollment closes at 00:00 the
// following day, compared at day granularity.
func Compute(turma models.Turma, activeCount int, now time.Time) Projection {
	vagas := turma.Capacidade - activeCount
	if vagas < 0 {
		vagas = 0
	}

	closed := turma.Status != models.TurmaStatusAberta || deadlinePassed(turma, now)

	status := models.TurmaStatusAberta
	if closed {
		status = models.TurmaStatusEncerrada
		if turma.Status == models.TurmaStatusConcluida {
			status = models.TurmaStatusConcluida
		}
	}

	return Projection{
		VagasDisponiveis: vagas,
		EffectiveStatus:  status,
		Closed:           closed,
	}
}

// CanEnroll reports whether an enrollment attempt could succeed against this
// projection. Advisory on the read side; the transactional check inside the
// enroll operation is authoritative.
func CanEnroll(p Projection) bool {
	return !p.Closed && p.VagasDisponiveis > 0
}

// EffectiveDeadline returns the explicit enrollment deadline or, when none is
// set, the class date itself.
func EffectiveDeadline(turma models.Turma) time.Time {
	if turma.DataLimiteInscricao != nil {
		return *turma.DataLimiteInscricao
	}
	return turma.Data
}

func deadlinePassed(turma models.Turma, now time.Time) bool {
	deadline := EffectiveDeadline(turma)
	closesAt := startOfDay(deadline, now.Location()).AddDate(0, 0, 1)
	return !now.Before(closesAt)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
