package models

import "time"

// DashboardSummary aggregates the manager dashboard counters.
type DashboardSummary struct {
	TurmasAbertas     int       `json:"turmas_abertas"`
	TurmasEncerradas  int       `json:"turmas_encerradas"`
	TurmasConcluidas  int       `json:"turmas_concluidas"`
	InscricoesAtivas  int       `json:"inscricoes_ativas"`
	PresencasMarcadas int       `json:"presencas_marcadas"`
	TaxaPresenca      float64   `json:"taxa_presenca"`
	NPSMedio          float64   `json:"nps_medio"`
	TotalAvaliacoes   int       `json:"total_avaliacoes"`
	GeneratedAt       time.Time `json:"generated_at"`
}
