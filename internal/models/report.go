package models

import "time"

// ReportKind selects which dataset an export covers.
type ReportKind string

const (
	ReportKindInscricoes ReportKind = "inscricoes"
	ReportKindPresencas  ReportKind = "presencas"
	ReportKindAvaliacoes ReportKind = "avaliacoes"
)

// Valid returns true for supported report kinds.
func (k ReportKind) Valid() bool {
	switch k {
	case ReportKindInscricoes, ReportKindPresencas, ReportKindAvaliacoes:
		return true
	default:
		return false
	}
}

// ReportFormat selects the rendered output format.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Valid returns true for supported report formats.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}

// ReportStatus tracks the lifecycle of an export request.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "PENDING"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusReady      ReportStatus = "READY"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ReportExport describes an asynchronous export request and its result.
type ReportExport struct {
	ID          string       `json:"id"`
	TurmaID     string       `json:"turma_id"`
	Kind        ReportKind   `json:"kind"`
	Format      ReportFormat `json:"format"`
	Status      ReportStatus `json:"status"`
	FilePath    string       `json:"-"`
	Token       string       `json:"token,omitempty"`
	DownloadURL string       `json:"download_url,omitempty"`
	Error       string       `json:"error,omitempty"`
	RequestedBy string       `json:"requested_by"`
	RequestedAt time.Time    `json:"requested_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// ReportRequest is the payload for requesting an export.
type ReportRequest struct {
	Kind   ReportKind   `json:"kind" validate:"required"`
	Format ReportFormat `json:"format" validate:"required"`
}
