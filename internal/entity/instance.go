package entity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInstanceNotFound = errors.New("instância não encontrada")

// Instance é uma conexão de WhatsApp da clínica gerenciada pela automação.
type Instance struct {
	ID         string    `json:"id"`
	ClinicID   string    `json:"id_clinica"`
	Name       string    `json:"nome"`
	ExternalID string    `json:"id_externo"`
	Status     string    `json:"status"` // PENDING, CONNECTED, DISCONNECTED
	CreatedAt  time.Time `json:"created_at"`
}

func NewInstance(clinicID, name string) *Instance {
	return &Instance{
		ID:        uuid.New().String(),
		ClinicID:  clinicID,
		Name:      name,
		Status:    "PENDING",
		CreatedAt: time.Now(),
	}
}

type InstanceRepositoryInterface interface {
	ListByClinic(ctx context.Context, clinicID string) ([]Instance, error)
	FindByID(ctx context.Context, clinicID, id string) (*Instance, error)
	Create(ctx context.Context, i *Instance) error
	UpdateExternal(ctx context.Context, id, externalID, status string) error
	Delete(ctx context.Context, clinicID, id string) error
}
