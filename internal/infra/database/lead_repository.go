package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/xavierca1/ligue-crm/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

const leadColumns = `id, id_clinica, nome, telefone, id_etapa, origem, score, created_at`

// where monta o filtro comum de List e Count. Sempre por clínica e conjunto de etapas.
func leadWhere(f entity.LeadFilter) (string, []any) {
	clauses := []string{"id_clinica = $1", "id_etapa = ANY($2)"}
	args := []any{f.ClinicID, pq.Array(f.StageIDs)}

	if term := strings.TrimSpace(f.Search); term != "" {
		args = append(args, likePattern(term))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(nome ILIKE $%d OR telefone::text ILIKE $%d OR origem ILIKE $%d)", n, n, n))
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *LeadRepository) List(ctx context.Context, f entity.LeadFilter) ([]entity.Lead, error) {
	where, args := leadWhere(f)
	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY %s`, leadColumns, where, orderBy(f.Sort))

	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []entity.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}

func (r *LeadRepository) Count(ctx context.Context, f entity.LeadFilter) (int, error) {
	where, args := leadWhere(f)
	var total int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM leads `+where, args...).Scan(&total)
	return total, err
}

func (r *LeadRepository) FindByID(ctx context.Context, clinicID string, leadID int64) (*entity.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1 AND id_clinica = $2`, leadColumns)

	l, err := scanLead(r.DB.QueryRowContext(ctx, query, leadID, clinicID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	return l, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l      entity.Lead
		name   sql.NullString
		phone  sql.NullInt64
		stage  sql.NullInt64
		origin sql.NullString
		score  sql.NullFloat64
	)
	if err := row.Scan(&l.ID, &l.ClinicID, &name, &phone, &stage, &origin, &score, &l.CreatedAt); err != nil {
		return nil, err
	}
	if name.Valid {
		l.Name = &name.String
	}
	if phone.Valid {
		l.Phone = &phone.Int64
	}
	if stage.Valid {
		l.StageID = &stage.Int64
	}
	if origin.Valid {
		l.Origin = &origin.String
	}
	if score.Valid {
		l.Score = &score.Float64
	}
	return &l, nil
}
