package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eduforma/turmas-api/internal/models"
	appErrors "github.com/eduforma/turmas-api/pkg/errors"
	"github.com/eduforma/turmas-api/pkg/jobs"
	"github.com/eduforma/turmas-api/pkg/storage"
)

type fakeReportQueue struct {
	jobs []jobs.Job
}

func (f *fakeReportQueue) Enqueue(job jobs.Job) error {
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeReportInscricoes struct{}

func (fakeReportInscricoes) ListByTurma(ctx context.Context, turmaID string) ([]models.InscricaoDetail, error) {
	return []models.InscricaoDetail{
		{
			Inscricao: models.Inscricao{
				ID: "insc-1", TurmaID: turmaID, UserID: "user-1",
				Status: models.InscricaoStatusAtiva, CreatedAt: time.Now().UTC(),
			},
			UserNome:  "Joana Professora",
			UserEmail: "joana@exemplo.br",
		},
	}, nil
}

func newReportServiceForTest(t *testing.T) (*ReportService, *fakeReportQueue) {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	turmas := &fakeTurmaReader{turmas: map[string]*models.Turma{
		"turma-1": {ID: "turma-1", Status: models.TurmaStatusConcluida},
	}}
	svc := NewReportService(
		turmas,
		fakeReportInscricoes{},
		emptyPresencaLister{},
		emptyAvaliacaoLister{},
		store,
		signer,
		nil,
		zap.NewNop(),
		"/api/v1",
	)
	queue := &fakeReportQueue{}
	svc.SetQueue(queue)
	return svc, queue
}

func TestReportServiceGeneratesCSVExport(t *testing.T) {
	svc, queue := newReportServiceForTest(t)
	ctx := context.Background()

	record, err := svc.Request(ctx, "turma-1", models.ReportRequest{
		Kind:   models.ReportKindInscricoes,
		Format: models.ReportFormatCSV,
	}, "gestor-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, record.Status)
	require.Len(t, queue.jobs, 1)

	// Run the queued job inline.
	require.NoError(t, svc.HandleJob(ctx, queue.jobs[0]))

	ready, err := svc.Status(record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReady, ready.Status)
	assert.NotEmpty(t, ready.Token)
	assert.Contains(t, ready.DownloadURL, "/api/v1/reports/download?token=")
	require.NotNil(t, ready.ExpiresAt)

	path, err := svc.Resolve(ready.Token)
	require.NoError(t, err)
	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(payload)
	assert.True(t, strings.Contains(content, "Joana Professora"))
	assert.True(t, strings.Contains(content, "Nome"))
}

func TestReportServiceRequestValidation(t *testing.T) {
	svc, _ := newReportServiceForTest(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, "turma-1", models.ReportRequest{Kind: "bogus", Format: models.ReportFormatCSV}, "gestor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Request(ctx, "turma-1", models.ReportRequest{Kind: models.ReportKindPresencas, Format: "xml"}, "gestor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Request(ctx, "missing", models.ReportRequest{Kind: models.ReportKindPresencas, Format: models.ReportFormatCSV}, "gestor-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceResolveRejectsBadToken(t *testing.T) {
	svc, _ := newReportServiceForTest(t)

	_, err := svc.Resolve("garbage-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportServiceStatusUnknownExport(t *testing.T) {
	svc, _ := newReportServiceForTest(t)

	_, err := svc.Status("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
