package models

import "time"

// Presenca is an attendance record for a user in a turma. One row per
// (turma, user); re-marking overwrites.
type Presenca struct {
	ID         string    `db:"id" json:"id"`
	TurmaID    string    `db:"turma_id" json:"turma_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Presente   bool      `db:"presente" json:"presente"`
	MarcadoPor *string   `db:"marcado_por" json:"marcado_por,omitempty"`
	MarcadoEm  time.Time `db:"marcado_em" json:"marcado_em"`
}

// MarkPresencaRequest is the payload for marking attendance.
type MarkPresencaRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Presente bool   `json:"presente"`
}

// PresencaDetail enriches Presenca with user and marker names.
type PresencaDetail struct {
	Presenca
	UserNome     string  `db:"user_nome" json:"user_nome"`
	UserEmail    string  `db:"user_email" json:"user_email"`
	MarcadorNome *string `db:"marcador_nome" json:"marcador_nome,omitempty"`
}
