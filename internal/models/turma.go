package models

import "time"

// TurmaStatus represents the stored lifecycle status of a class offering.
type TurmaStatus string

const (
	TurmaStatusAberta    TurmaStatus = "ABERTA"
	TurmaStatusEncerrada TurmaStatus = "ENCERRADA"
	TurmaStatusConcluida TurmaStatus = "CONCLUIDA"
)

// Valid returns true when the status is a supported value.
func (s TurmaStatus) Valid() bool {
	switch s {
	case TurmaStatusAberta, TurmaStatusEncerrada, TurmaStatusConcluida:
		return true
	default:
		return false
	}
}

// Turma represents a scheduled class offering tied to a campus.
type Turma struct {
	ID                  string      `db:"id" json:"id"`
	CampusID            string      `db:"campus_id" json:"campus_id"`
	Nome                *string     `db:"nome" json:"nome,omitempty"`
	Sobre               *string     `db:"sobre" json:"sobre,omitempty"`
	PDFURL              *string     `db:"pdf_url" json:"pdf_url,omitempty"`
	FotoCapa            *string     `db:"foto_capa" json:"foto_capa,omitempty"`
	Data                time.Time   `db:"data" json:"data"`
	DataLimiteInscricao *time.Time  `db:"data_limite_inscricao" json:"data_limite_inscricao,omitempty"`
	HoraInicio          string      `db:"hora_inicio" json:"hora_inicio"`
	HoraFim             string      `db:"hora_fim" json:"hora_fim"`
	Local               string      `db:"local" json:"local"`
	Capacidade          int         `db:"capacidade" json:"capacidade"`
	Status              TurmaStatus `db:"status" json:"status"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// TurmaDisponivel is the read-side projection used by the class listing:
// the turma joined with its campus name and seat accounting.
type TurmaDisponivel struct {
	Turma
	CampusNome        string      `db:"campus_nome" json:"campus_nome"`
	TotalInscritos    int         `db:"total_inscritos" json:"total_inscritos"`
	VagasDisponiveis  int         `db:"-" json:"vagas_disponiveis"`
	EffectiveStatus   TurmaStatus `db:"-" json:"effective_status"`
	InscricoesAbertas bool        `db:"-" json:"inscricoes_abertas"`
}

// TurmaDetail aggregates everything a class detail view needs. Each joined
// collection has its own composite type rather than a loose map.
type TurmaDetail struct {
	Turma
	CampusNome       string             `json:"campus_nome"`
	VagasDisponiveis int                `json:"vagas_disponiveis"`
	TotalInscritos   int                `json:"total_inscritos"`
	EffectiveStatus  TurmaStatus        `json:"effective_status"`
	Speakers         []Speaker          `json:"speakers"`
	Inscricoes       []InscricaoDetail  `json:"inscricoes"`
	Presencas        []PresencaDetail   `json:"presencas"`
	Avaliacoes       []AvaliacaoDetail  `json:"avaliacoes"`
}

// TurmaRequest is the payload for creating or updating a turma.
type TurmaRequest struct {
	CampusID            string     `json:"campus_id" validate:"required"`
	Nome                *string    `json:"nome"`
	Sobre               *string    `json:"sobre"`
	PDFURL              *string    `json:"pdf_url"`
	FotoCapa            *string    `json:"foto_capa"`
	Data                time.Time  `json:"data" validate:"required"`
	DataLimiteInscricao *time.Time `json:"data_limite_inscricao"`
	HoraInicio          string     `json:"hora_inicio" validate:"required"`
	HoraFim             string     `json:"hora_fim" validate:"required"`
	Local               string     `json:"local" validate:"required"`
	Capacidade          int        `json:"capacidade" validate:"omitempty,min=1"`
}

// TurmaFilter defines filter criteria for listing classes.
type TurmaFilter struct {
	CampusID  string
	Status    TurmaStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
