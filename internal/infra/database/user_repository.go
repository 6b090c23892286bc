package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) ListByClinic(ctx context.Context, clinicID string) ([]entity.ClinicUser, error) {
	query := `
		SELECT id_usuario, id_clinica, nome, email, role, created_at
		FROM usuarios_clinica
		WHERE id_clinica = $1
		ORDER BY nome ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []entity.ClinicUser{}
	for rows.Next() {
		var u entity.ClinicUser
		if err := rows.Scan(&u.ID, &u.ClinicID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
