package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type StageRepository struct {
	DB *sql.DB
}

func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{DB: db}
}

// ListByFunnel devolve as etapas na ordem do banco; quem ordena é o diretório.
func (r *StageRepository) ListByFunnel(ctx context.Context, funnelID int64) ([]entity.Stage, error) {
	query := `SELECT id, nome, ordem, id_funil FROM etapas WHERE id_funil = $1 ORDER BY ordem ASC NULLS LAST, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, funnelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := []entity.Stage{}
	for rows.Next() {
		var (
			s    entity.Stage
			rank sql.NullInt32
		)
		if err := rows.Scan(&s.ID, &s.Name, &rank, &s.FunnelID); err != nil {
			return nil, err
		}
		if rank.Valid {
			v := int(rank.Int32)
			s.Rank = &v
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}
