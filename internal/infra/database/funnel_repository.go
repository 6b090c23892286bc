package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type FunnelRepository struct {
	DB *sql.DB
}

func NewFunnelRepository(db *sql.DB) *FunnelRepository {
	return &FunnelRepository{DB: db}
}

func (r *FunnelRepository) FindByID(ctx context.Context, clinicID string, id int64) (*entity.Funnel, error) {
	query := `SELECT id, nome FROM funis WHERE id = $1 AND id_clinica = $2`

	var f entity.Funnel
	err := r.DB.QueryRowContext(ctx, query, id, clinicID).Scan(&f.ID, &f.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrFunnelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FunnelRepository) ListByClinic(ctx context.Context, clinicID string) ([]entity.Funnel, error) {
	query := `SELECT id, nome FROM funis WHERE id_clinica = $1 ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	funnels := []entity.Funnel{}
	for rows.Next() {
		var f entity.Funnel
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		funnels = append(funnels, f)
	}
	return funnels, rows.Err()
}
