package models

import "time"

// InscricaoStatus represents the lifecycle of an enrollment.
type InscricaoStatus string

const (
	InscricaoStatusAtiva     InscricaoStatus = "ATIVA"
	InscricaoStatusCancelada InscricaoStatus = "CANCELADA"
)

// Inscricao captures a user's enrollment in a turma. At most one ATIVA row
// exists per (turma, user) pair; cancellation keeps the row for reactivation.
type Inscricao struct {
	ID        string          `db:"id" json:"id"`
	TurmaID   string          `db:"turma_id" json:"turma_id"`
	UserID    string          `db:"user_id" json:"user_id"`
	Status    InscricaoStatus `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// InscricaoDetail enriches Inscricao with the enrolled user's profile.
type InscricaoDetail struct {
	Inscricao
	UserNome     string `db:"user_nome" json:"user_nome"`
	UserEmail    string `db:"user_email" json:"user_email"`
	UserTelefone string `db:"user_telefone" json:"user_telefone"`
}

// InscricaoWithTurma is the "my enrollments" row: the enrollment joined with
// the turma and campus it points at.
type InscricaoWithTurma struct {
	Inscricao
	TurmaNome           *string     `db:"turma_nome" json:"turma_nome,omitempty"`
	TurmaData           time.Time   `db:"turma_data" json:"turma_data"`
	TurmaHoraInicio     string      `db:"turma_hora_inicio" json:"turma_hora_inicio"`
	TurmaHoraFim        string      `db:"turma_hora_fim" json:"turma_hora_fim"`
	TurmaLocal          string      `db:"turma_local" json:"turma_local"`
	TurmaStatus         TurmaStatus `db:"turma_status" json:"turma_status"`
	CampusNome          string      `db:"campus_nome" json:"campus_nome"`
	DataLimiteInscricao *time.Time  `db:"data_limite_inscricao" json:"data_limite_inscricao,omitempty"`
}

// EnrollmentResult is the discriminated outcome of the atomic enroll
// operation. Business rejections populate Message and are never errors.
type EnrollmentResult struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	Inscricao *Inscricao `json:"inscricao,omitempty"`
}

// Enrollment rejection messages returned by the atomic enroll operation.
const (
	EnrollMsgClosed          = "class not open for enrollment"
	EnrollMsgAlreadyEnrolled = "user already enrolled"
	EnrollMsgFull            = "class full"
)
