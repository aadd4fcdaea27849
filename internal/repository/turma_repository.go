package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduforma/turmas-api/internal/models"
)

// TurmaRepository handles persistence of class offerings.
type TurmaRepository struct {
	db *sqlx.DB
}

// NewTurmaRepository constructs the repository.
func NewTurmaRepository(db *sqlx.DB) *TurmaRepository {
	return &TurmaRepository{db: db}
}

const turmaColumns = `id, campus_id, nome, sobre, pdf_url, foto_capa, data, data_limite_inscricao, hora_inicio, hora_fim, local, capacidade, status, created_at, updated_at`

// List returns turmas joined with campus name and active enrollment count.
// Seat availability and effective status are derived by the caller from the
// returned counts; the repository only reports stored state.
func (r *TurmaRepository) List(ctx context.Context, filter models.TurmaFilter) ([]models.TurmaDisponivel, int, error) {
	base := `FROM turmas t
JOIN campus c ON c.id = t.campus_id`
	var conditions []string
	var args []interface{}

	if filter.CampusID != "" {
		conditions = append(conditions, fmt.Sprintf("t.campus_id = $%d", len(args)+1))
		args = append(args, filter.CampusID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("t.data >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("t.data <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(t.nome ILIKE $%d OR t.local ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"data":        "t.data",
		"campus_nome": "c.nome",
		"created_at":  "t.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "t.data"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	// Callers own the upper bound: the availability projection reads the
	// whole open set in one page, so only nonsense values are replaced.
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT t.id, t.campus_id, t.nome, t.sobre, t.pdf_url, t.foto_capa, t.data,
        t.data_limite_inscricao, t.hora_inicio, t.hora_fim, t.local, t.capacidade, t.status,
        t.created_at, t.updated_at, c.nome AS campus_nome,
        (SELECT COUNT(*) FROM inscricoes i WHERE i.turma_id = t.id AND i.status = 'ATIVA') AS total_inscritos
        %s ORDER BY %s %s, t.hora_inicio ASC LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var turmas []models.TurmaDisponivel
	if err := r.db.SelectContext(ctx, &turmas, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list turmas: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count turmas: %w", err)
	}
	return turmas, total, nil
}

// FindByID returns a turma by its ID.
func (r *TurmaRepository) FindByID(ctx context.Context, id string) (*models.Turma, error) {
	query := fmt.Sprintf(`SELECT %s FROM turmas WHERE id = $1`, turmaColumns)
	var turma models.Turma
	if err := r.db.GetContext(ctx, &turma, query, id); err != nil {
		return nil, err
	}
	return &turma, nil
}

// FindDisponivelByID returns a single turma with campus name and active count.
func (r *TurmaRepository) FindDisponivelByID(ctx context.Context, id string) (*models.TurmaDisponivel, error) {
	const query = `SELECT t.id, t.campus_id, t.nome, t.sobre, t.pdf_url, t.foto_capa, t.data,
        t.data_limite_inscricao, t.hora_inicio, t.hora_fim, t.local, t.capacidade, t.status,
        t.created_at, t.updated_at, c.nome AS campus_nome,
        (SELECT COUNT(*) FROM inscricoes i WHERE i.turma_id = t.id AND i.status = 'ATIVA') AS total_inscritos
        FROM turmas t
        JOIN campus c ON c.id = t.campus_id
        WHERE t.id = $1`
	var turma models.TurmaDisponivel
	if err := r.db.GetContext(ctx, &turma, query, id); err != nil {
		return nil, err
	}
	return &turma, nil
}

// Create persists a new turma.
func (r *TurmaRepository) Create(ctx context.Context, turma *models.Turma) error {
	if turma.ID == "" {
		turma.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if turma.CreatedAt.IsZero() {
		turma.CreatedAt = now
	}
	turma.UpdatedAt = now
	if turma.Status == "" {
		turma.Status = models.TurmaStatusAberta
	}
	const query = `INSERT INTO turmas (id, campus_id, nome, sobre, pdf_url, foto_capa, data, data_limite_inscricao,
        hora_inicio, hora_fim, local, capacidade, status, created_at, updated_at)
        VALUES (:id, :campus_id, :nome, :sobre, :pdf_url, :foto_capa, :data, :data_limite_inscricao,
        :hora_inicio, :hora_fim, :local, :capacidade, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, turma); err != nil {
		return fmt.Errorf("create turma: %w", err)
	}
	return nil
}

// Update replaces the mutable turma fields.
func (r *TurmaRepository) Update(ctx context.Context, turma *models.Turma) error {
	turma.UpdatedAt = time.Now().UTC()
	const query = `UPDATE turmas SET campus_id = :campus_id, nome = :nome, sobre = :sobre, pdf_url = :pdf_url,
        foto_capa = :foto_capa, data = :data, data_limite_inscricao = :data_limite_inscricao,
        hora_inicio = :hora_inicio, hora_fim = :hora_fim, local = :local, capacidade = :capacidade,
        status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, turma); err != nil {
		return fmt.Errorf("update turma: %w", err)
	}
	return nil
}

// UpdateStatus transitions the stored lifecycle status.
func (r *TurmaRepository) UpdateStatus(ctx context.Context, id string, status models.TurmaStatus) error {
	const query = `UPDATE turmas SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update turma status: %w", err)
	}
	return nil
}

// Delete removes a turma. Dependent enrollments, attendance and evaluations
// cascade at the database level.
func (r *TurmaRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM turmas WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete turma: %w", err)
	}
	return nil
}

// CountByStatus returns the number of turmas per stored status.
func (r *TurmaRepository) CountByStatus(ctx context.Context) (map[models.TurmaStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM turmas GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count turmas by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TurmaStatus]int)
	for rows.Next() {
		var status models.TurmaStatus
		var total int
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("scan turma status count: %w", err)
		}
		counts[status] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turma status counts: %w", err)
	}
	return counts, nil
}
