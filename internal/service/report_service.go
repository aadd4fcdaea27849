package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
	"github.com/eduforma/turmas-api/pkg/export"
	"github.com/eduforma/turmas-api/pkg/jobs"
	"github.com/eduforma/turmas-api/pkg/storage"
)

type reportTurmaReader interface {
	FindByID(ctx context.Context, id string) (*models.Turma, error)
}

type reportInscricaoLister interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error)
}

type reportPresencaLister interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.PresencaDetail, error)
}

type reportAvaliacaoLister interface {
	ListByTurma(ctx context.Context, turmaID string) ([]models.AvaliacaoDetail, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Path(filename string) string
}

type reportQueue interface {
	Enqueue(job jobs.Job) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportMetrics interface {
	ObserveExport(kind, format string, duration time.Duration)
}

// ReportService generates CSV and PDF exports of a turma's enrollment,
// attendance and evaluation data. Generation runs asynchronously on the job
// queue; download links are HMAC-signed and expire.
type ReportService struct {
	turmas     reportTurmaReader
	inscricoes reportInscricaoLister
	presencas  reportPresencaLister
	avaliacoes reportAvaliacaoLister
	storage    reportStorage
	signer     *storage.SignedURLSigner
	queue      reportQueue
	csv        csvRenderer
	pdf        pdfRenderer
	metrics    exportMetrics
	logger     *zap.Logger
	apiPrefix  string

	mu      sync.RWMutex
	exports map[string]*models.ReportExport
}

// NewReportService constructs a ReportService. The queue is attached later
// via SetQueue because the queue handler closes over the service.
func NewReportService(
	turmas reportTurmaReader,
	inscricoes reportInscricaoLister,
	presencas reportPresencaLister,
	avaliacoes reportAvaliacaoLister,
	store reportStorage,
	signer *storage.SignedURLSigner,
	metrics exportMetrics,
	logger *zap.Logger,
	apiPrefix string,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		turmas:     turmas,
		inscricoes: inscricoes,
		presencas:  presencas,
		avaliacoes: avaliacoes,
		storage:    store,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		metrics:    metrics,
		logger:     logger,
		apiPrefix:  apiPrefix,
		exports:    make(map[string]*models.ReportExport),
	}
}

// SetQueue attaches the job queue used for asynchronous generation.
func (s *ReportService) SetQueue(queue reportQueue) {
	s.queue = queue
}

// Request validates and enqueues an export. The returned record is PENDING;
// poll Status until READY.
func (s *ReportService) Request(ctx context.Context, turmaID string, req models.ReportRequest, requestedBy string) (*models.ReportExport, error) {
	if !req.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report kind %q", req.Kind))
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", req.Format))
	}

	if _, err := s.turmas.FindByID(ctx, turmaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "turma not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load turma")
	}

	record := &models.ReportExport{
		ID:          uuid.NewString(),
		TurmaID:     turmaID,
		Kind:        req.Kind,
		Format:      req.Format,
		Status:      models.ReportStatusPending,
		RequestedBy: requestedBy,
		RequestedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.exports[record.ID] = record
	s.mu.Unlock()

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export queue is not running")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: record.ID, Type: "report", Payload: record.ID}); err != nil {
		s.fail(record.ID, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export")
	}

	return s.snapshot(record.ID), nil
}

// Status returns the current state of an export request.
func (s *ReportService) Status(exportID string) (*models.ReportExport, error) {
	record := s.snapshot(exportID)
	if record == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}
	return record, nil
}

// Resolve validates a signed download token and returns the absolute path of
// the generated file.
func (s *ReportService) Resolve(token string) (string, error) {
	exportID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}

	record := s.snapshot(exportID)
	if record == nil || record.Status != models.ReportStatusReady || record.FilePath != relPath {
		return "", appErrors.Clone(appErrors.ErrNotFound, "export not found")
	}

	return s.storage.Path(relPath), nil
}

// HandleJob is the queue handler: it builds the dataset, renders and stores
// the file, then signs the download link.
func (s *ReportService) HandleJob(ctx context.Context, job jobs.Job) error {
	exportID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected report job payload %T", job.Payload)
	}

	record := s.snapshot(exportID)
	if record == nil {
		return fmt.Errorf("export %s not found", exportID)
	}

	s.setStatus(exportID, models.ReportStatusProcessing)
	started := time.Now()

	dataset, title, err := s.buildDataset(ctx, record)
	if err != nil {
		s.fail(exportID, err)
		return err
	}

	var payload []byte
	switch record.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", record.Format)
	}
	if err != nil {
		s.fail(exportID, err)
		return err
	}

	filename := fmt.Sprintf("%s_%s_%s.%s", record.Kind, record.TurmaID, exportID[:8], record.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.fail(exportID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		s.fail(exportID, err)
		return err
	}

	completed := time.Now().UTC()
	s.mu.Lock()
	if rec, ok := s.exports[exportID]; ok {
		rec.Status = models.ReportStatusReady
		rec.FilePath = relPath
		rec.Token = token
		rec.DownloadURL = fmt.Sprintf("%s/reports/download?token=%s", s.apiPrefix, token)
		rec.CompletedAt = &completed
		rec.ExpiresAt = &expiresAt
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveExport(string(record.Kind), string(record.Format), time.Since(started))
	}

	s.logger.Info("export generated",
		zap.String("export_id", exportID),
		zap.String("kind", string(record.Kind)),
		zap.String("format", string(record.Format)),
		zap.String("file", relPath))

	return nil
}

func (s *ReportService) buildDataset(ctx context.Context, record *models.ReportExport) (export.Dataset, string, error) {
	switch record.Kind {
	case models.ReportKindInscricoes:
		inscricoes, err := s.inscricoes.ListByTurma(ctx, record.TurmaID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		rows := make([]map[string]string, 0, len(inscricoes))
		for _, i := range inscricoes {
			rows = append(rows, map[string]string{
				"Nome":        i.UserNome,
				"Email":       i.UserEmail,
				"Telefone":    i.UserTelefone,
				"Status":      string(i.Status),
				"Inscrito em": i.CreatedAt.Format(time.RFC3339),
			})
		}
		return export.Dataset{
			Headers: []string{"Nome", "Email", "Telefone", "Status", "Inscrito em"},
			Rows:    rows,
		}, "Inscricoes", nil

	case models.ReportKindPresencas:
		presencas, err := s.presencas.ListByTurma(ctx, record.TurmaID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		rows := make([]map[string]string, 0, len(presencas))
		for _, p := range presencas {
			marcador := ""
			if p.MarcadorNome != nil {
				marcador = *p.MarcadorNome
			}
			rows = append(rows, map[string]string{
				"Nome":        p.UserNome,
				"Email":       p.UserEmail,
				"Presente":    strconv.FormatBool(p.Presente),
				"Marcado em":  p.MarcadoEm.Format(time.RFC3339),
				"Marcado por": marcador,
			})
		}
		return export.Dataset{
			Headers: []string{"Nome", "Email", "Presente", "Marcado em", "Marcado por"},
			Rows:    rows,
		}, "Presencas", nil

	case models.ReportKindAvaliacoes:
		avaliacoes, err := s.avaliacoes.ListByTurma(ctx, record.TurmaID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		rows := make([]map[string]string, 0, len(avaliacoes))
		for _, a := range avaliacoes {
			comentario := ""
			if a.Comentario != nil {
				comentario = *a.Comentario
			}
			rows = append(rows, map[string]string{
				"Nome":       a.UserNome,
				"Email":      a.UserEmail,
				"NPS":        strconv.Itoa(a.NPS),
				"Comentario": comentario,
				"Enviada em": a.EnviadaEm.Format(time.RFC3339),
			})
		}
		return export.Dataset{
			Headers: []string{"Nome", "Email", "NPS", "Comentario", "Enviada em"},
			Rows:    rows,
		}, "Avaliacoes", nil
	}

	return export.Dataset{}, "", fmt.Errorf("unsupported report kind %s", record.Kind)
}

func (s *ReportService) snapshot(exportID string) *models.ReportExport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.exports[exportID]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

func (s *ReportService) setStatus(exportID string, status models.ReportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.exports[exportID]; ok {
		record.Status = status
	}
}

func (s *ReportService) fail(exportID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.exports[exportID]; ok {
		record.Status = models.ReportStatusFailed
		record.Error = err.Error()
	}
}
