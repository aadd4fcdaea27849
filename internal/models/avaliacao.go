package models

import (
	"encoding/json"
	"time"
)

// Avaliacao is a post-class evaluation. One per (turma, user), immutable
// after submission.
type Avaliacao struct {
	ID         string          `db:"id" json:"id"`
	TurmaID    string          `db:"turma_id" json:"turma_id"`
	UserID     string          `db:"user_id" json:"user_id"`
	Respostas  json.RawMessage `db:"respostas" json:"respostas"`
	NPS        int             `db:"nps" json:"nps"`
	Comentario *string         `db:"comentario" json:"comentario,omitempty"`
	EnviadaEm  time.Time       `db:"enviada_em" json:"enviada_em"`
}

// SubmitAvaliacaoRequest is the payload for submitting an evaluation.
type SubmitAvaliacaoRequest struct {
	Respostas  json.RawMessage `json:"respostas"`
	NPS        int             `json:"nps" validate:"min=0,max=10"`
	Comentario *string         `json:"comentario"`
}

// AvaliacaoEligibility reports whether a user may submit an evaluation and,
// when not, why.
type AvaliacaoEligibility struct {
	CanSubmit bool   `json:"can_submit"`
	Reason    string `json:"reason,omitempty"`
}

// AvaliacaoDetail enriches Avaliacao with the submitting user's profile.
type AvaliacaoDetail struct {
	Avaliacao
	UserNome  string `db:"user_nome" json:"user_nome"`
	UserEmail string `db:"user_email" json:"user_email"`
}
