package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type InstanceRepository struct {
	DB *sql.DB
}

func NewInstanceRepository(db *sql.DB) *InstanceRepository {
	return &InstanceRepository{DB: db}
}

const instanceColumns = `id, id_clinica, nome, COALESCE(id_externo, ''), status, created_at`

func (r *InstanceRepository) ListByClinic(ctx context.Context, clinicID string) ([]entity.Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instancias WHERE id_clinica = $1 ORDER BY created_at ASC`

	rows, err := r.DB.QueryContext(ctx, query, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []entity.Instance{}
	for rows.Next() {
		var i entity.Instance
		if err := rows.Scan(&i.ID, &i.ClinicID, &i.Name, &i.ExternalID, &i.Status, &i.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, i)
	}
	return list, rows.Err()
}

func (r *InstanceRepository) FindByID(ctx context.Context, clinicID, id string) (*entity.Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instancias WHERE id = $1 AND id_clinica = $2`

	var i entity.Instance
	err := r.DB.QueryRowContext(ctx, query, id, clinicID).
		Scan(&i.ID, &i.ClinicID, &i.Name, &i.ExternalID, &i.Status, &i.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrInstanceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *InstanceRepository) Create(ctx context.Context, i *entity.Instance) error {
	query := `
		INSERT INTO instancias (id, id_clinica, nome, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.ExecContext(ctx, query, i.ID, i.ClinicID, i.Name, i.Status, i.CreatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return fmt.Errorf("instância %q já existe: %w", i.Name, err)
		}
		return err
	}
	return nil
}

func (r *InstanceRepository) UpdateExternal(ctx context.Context, id, externalID, status string) error {
	query := `UPDATE instancias SET id_externo = $1, status = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, externalID, status, id)
	return err
}

func (r *InstanceRepository) Delete(ctx context.Context, clinicID, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM instancias WHERE id = $1 AND id_clinica = $2`, id, clinicID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entity.ErrInstanceNotFound
	}
	return nil
}
