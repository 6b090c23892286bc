package entity

import (
	"context"
	"errors"
	"time"
)

var ErrStageMessageNotFound = errors.New("mensagem da etapa não encontrada")

type MessageTiming string

const (
	TimingImmediate MessageTiming = "imediato"
	TimingDelayed   MessageTiming = "atrasado"
)

// StageMessage é o template enviado quando um lead entra na etapa.
type StageMessage struct {
	ID           int64         `json:"id"`
	ClinicID     string        `json:"id_clinica"`
	StageID      int64         `json:"id_etapa" validate:"required,gt=0"`
	Content      string        `json:"conteudo" validate:"required,max=4096"`
	Timing       MessageTiming `json:"tipo_envio" validate:"required,oneof=imediato atrasado"`
	DelayMinutes int           `json:"atraso_minutos" validate:"gte=0,lte=43200"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Delay returns how long after the stage change the message must go out.
func (m StageMessage) Delay() time.Duration {
	if m.Timing != TimingDelayed {
		return 0
	}
	return time.Duration(m.DelayMinutes) * time.Minute
}

type StageMessageRepositoryInterface interface {
	ListByFunnel(ctx context.Context, clinicID string, funnelID int64) ([]StageMessage, error)
	ListByStage(ctx context.Context, clinicID string, stageID int64) ([]StageMessage, error)
	Save(ctx context.Context, m *StageMessage) error
	Delete(ctx context.Context, clinicID string, id int64) error
}

type ScheduledStatus string

const (
	ScheduledPending   ScheduledStatus = "pendente"
	ScheduledSending   ScheduledStatus = "enviando"
	ScheduledSent      ScheduledStatus = "enviada"
	ScheduledFailed    ScheduledStatus = "falhou"
	ScheduledCancelled ScheduledStatus = "cancelada"
)

// ScheduledMessage é uma mensagem atrasada aguardando o horário de envio.
type ScheduledMessage struct {
	ID        string          `json:"id"`
	ClinicID  string          `json:"id_clinica"`
	LeadID    int64           `json:"id_lead"`
	StageID   int64           `json:"id_etapa"`
	MessageID int64           `json:"id_mensagem"`
	Content   string          `json:"conteudo"`
	DueAt     time.Time       `json:"due_at"`
	Status    ScheduledStatus `json:"status"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type ScheduledMessageRepositoryInterface interface {
	Create(ctx context.Context, m *ScheduledMessage) error
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]ScheduledMessage, error)
	MarkStatus(ctx context.Context, id string, status ScheduledStatus, lastError string) error
}
