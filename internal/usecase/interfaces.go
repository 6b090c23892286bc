package usecase

import (
	"context"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/cache"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

type StageDirectory interface {
	ListStages(ctx context.Context, funnelID int64) ([]entity.Stage, error)
	ResolveStageName(stageID int64) string
}

type LeadCache interface {
	List(ctx context.Context, q cache.Query) (cache.Page, error)
	SetLeadStage(q cache.Query, leadID int64, stageID *int64) (*int64, bool)
	RestoreLeadStage(q cache.Query, leadID int64, expected, prev *int64) bool
	Invalidate(q cache.Query)
	InvalidateClinic(clinicID string)
}

// StageCommander envia o comando de transição de etapa para a automação.
type StageCommander interface {
	ChangeStage(ctx context.Context, input automation.ChangeStageInput) error
}

type MessageSender interface {
	SendMessage(ctx context.Context, input automation.SendMessageInput) error
}

type UserProvisioner interface {
	CreateUser(ctx context.Context, input automation.CreateUserInput) (string, error)
}

type InstanceProvisioner interface {
	CreateInstance(ctx context.Context, input automation.CreateInstanceInput) (*automation.InstanceOutput, error)
	DeleteInstance(ctx context.Context, clinicID, instanceID string) error
}

type QueueProducerInterface interface {
	PublishStageChanged(ctx context.Context, event queue.StageChangedEvent) error
}

type EmailService interface {
	SendWelcome(to, name, role string) error
}

// BoardQuery monta a chave de cache do quadro: sem paginação, todas as etapas.
func BoardQuery(clinicID string, funnelID int64, search string, sort entity.LeadSort, stageIDs []int64) cache.Query {
	return cache.Query{
		ClinicID: clinicID,
		FunnelID: funnelID,
		Mode:     entity.ModeBoard,
		Search:   search,
		Sort:     sort,
		StageIDs: stageIDs,
	}
}
