package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type CashbackRepository struct {
	DB *sql.DB
}

func NewCashbackRepository(db *sql.DB) *CashbackRepository {
	return &CashbackRepository{DB: db}
}

func (r *CashbackRepository) FindByClinic(ctx context.Context, clinicID string) (*entity.CashbackConfig, error) {
	query := `
		SELECT id_clinica, percentual, validade_dias, compra_minima_centavos, ativo, updated_at
		FROM cashback_config WHERE id_clinica = $1
	`
	var c entity.CashbackConfig
	err := r.DB.QueryRowContext(ctx, query, clinicID).
		Scan(&c.ClinicID, &c.Percentage, &c.ValidityDays, &c.MinimumPurchaseCents, &c.Enabled, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCashbackNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CashbackRepository) Upsert(ctx context.Context, c *entity.CashbackConfig) error {
	query := `
		INSERT INTO cashback_config (id_clinica, percentual, validade_dias, compra_minima_centavos, ativo, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id_clinica)
		DO UPDATE SET
			percentual = EXCLUDED.percentual,
			validade_dias = EXCLUDED.validade_dias,
			compra_minima_centavos = EXCLUDED.compra_minima_centavos,
			ativo = EXCLUDED.ativo,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query,
		c.ClinicID, c.Percentage, c.ValidityDays, c.MinimumPurchaseCents, c.Enabled, c.UpdatedAt)
	return err
}
