package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type StageMessageRepository struct {
	DB *sql.DB
}

func NewStageMessageRepository(db *sql.DB) *StageMessageRepository {
	return &StageMessageRepository{DB: db}
}

const stageMessageColumns = `m.id, m.id_clinica, m.id_etapa, m.conteudo, m.tipo_envio, m.atraso_minutos, m.created_at, m.updated_at`

func (r *StageMessageRepository) ListByFunnel(ctx context.Context, clinicID string, funnelID int64) ([]entity.StageMessage, error) {
	query := `
		SELECT ` + stageMessageColumns + `
		FROM etapa_mensagens m
		JOIN etapas e ON e.id = m.id_etapa
		WHERE m.id_clinica = $1 AND e.id_funil = $2
		ORDER BY e.ordem ASC NULLS LAST, m.id ASC
	`
	return r.list(ctx, query, clinicID, funnelID)
}

func (r *StageMessageRepository) ListByStage(ctx context.Context, clinicID string, stageID int64) ([]entity.StageMessage, error) {
	query := `
		SELECT ` + stageMessageColumns + `
		FROM etapa_mensagens m
		WHERE m.id_clinica = $1 AND m.id_etapa = $2
		ORDER BY m.id ASC
	`
	return r.list(ctx, query, clinicID, stageID)
}

func (r *StageMessageRepository) list(ctx context.Context, query string, args ...any) ([]entity.StageMessage, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []entity.StageMessage{}
	for rows.Next() {
		var m entity.StageMessage
		if err := rows.Scan(&m.ID, &m.ClinicID, &m.StageID, &m.Content, &m.Timing, &m.DelayMinutes, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Save insere quando ID == 0; senão atualiza a linha da própria clínica.
func (r *StageMessageRepository) Save(ctx context.Context, m *entity.StageMessage) error {
	if m.ID == 0 {
		query := `
			INSERT INTO etapa_mensagens (id_clinica, id_etapa, conteudo, tipo_envio, atraso_minutos, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING id, created_at, updated_at
		`
		err := r.DB.QueryRowContext(ctx, query, m.ClinicID, m.StageID, m.Content, m.Timing, m.DelayMinutes).
			Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if pgCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("etapa %d inexistente: %w", m.StageID, err)
		}
		return err
	}

	query := `
		UPDATE etapa_mensagens
		SET id_etapa = $1, conteudo = $2, tipo_envio = $3, atraso_minutos = $4, updated_at = NOW()
		WHERE id = $5 AND id_clinica = $6
		RETURNING created_at, updated_at
	`
	err := r.DB.QueryRowContext(ctx, query, m.StageID, m.Content, m.Timing, m.DelayMinutes, m.ID, m.ClinicID).
		Scan(&m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return entity.ErrStageMessageNotFound
	}
	return err
}

func (r *StageMessageRepository) Delete(ctx context.Context, clinicID string, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM etapa_mensagens WHERE id = $1 AND id_clinica = $2`, id, clinicID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrStageMessageNotFound
	}
	return nil
}
