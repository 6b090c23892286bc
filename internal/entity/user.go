package entity

import (
	"context"
	"time"
)

const (
	RoleAdmin     = "admin"
	RoleAttendant = "atendente"
)

type ClinicUser struct {
	ID        string    `json:"id"`
	ClinicID  string    `json:"id_clinica"`
	Name      string    `json:"nome"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type UserRepositoryInterface interface {
	ListByClinic(ctx context.Context, clinicID string) ([]ClinicUser, error)
}
