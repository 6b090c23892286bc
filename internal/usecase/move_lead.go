package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/cache"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"github.com/xavierca1/ligue-crm/internal/infra/metrics"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"go.uber.org/zap"
)

type MoveOutcome string

const (
	OutcomeMoved   MoveOutcome = "moved"
	OutcomeNoOp    MoveOutcome = "noop"
	OutcomeAborted MoveOutcome = "aborted"
)

type MoveLeadInput struct {
	ClinicID      string
	FunnelID      int64
	Search        string
	Sort          entity.LeadSort
	DragData      string // o que veio no canal de drag-data (id do lead em texto)
	TargetStageID int64
}

type MoveLeadOutput struct {
	Outcome     MoveOutcome `json:"outcome"`
	LeadID      int64       `json:"lead_id,omitempty"`
	FromStageID *int64      `json:"from_stage_id,omitempty"`
	ToStageID   int64       `json:"to_stage_id,omitempty"`
	Notice      string      `json:"notice,omitempty"`
}

// MoveLeadUseCase aplica a troca de etapa no cache na hora do drop, envia o
// comando para a automação e reconcilia: sucesso invalida o cache, falha
// restaura o valor anterior.
type MoveLeadUseCase struct {
	Funnels   entity.FunnelRepositoryInterface
	Stages    StageDirectory
	Leads     LeadCache
	Commander StageCommander
	Queue     QueueProducerInterface

	seq *leadSequencer
	now func() time.Time
}

func NewMoveLeadUseCase(
	funnels entity.FunnelRepositoryInterface,
	stages StageDirectory,
	leads LeadCache,
	commander StageCommander,
	queue QueueProducerInterface,
) *MoveLeadUseCase {
	return &MoveLeadUseCase{
		Funnels:   funnels,
		Stages:    stages,
		Leads:     leads,
		Commander: commander,
		Queue:     queue,
		seq:       newLeadSequencer(),
		now:       time.Now,
	}
}

func (uc *MoveLeadUseCase) Execute(ctx context.Context, input MoveLeadInput) (*MoveLeadOutput, error) {
	leadID, ok := ParseDragData(input.DragData)
	if !ok {
		metrics.RecordStageTransition(string(OutcomeAborted))
		return &MoveLeadOutput{Outcome: OutcomeAborted}, nil
	}

	_, stages, err := loadFunnelStages(ctx, uc.Funnels, uc.Stages, input.ClinicID, input.FunnelID)
	if err != nil {
		return nil, err
	}
	if !hasStage(stages, input.TargetStageID) {
		return nil, ValidationErrors{{Field: "stage_id", Message: "does not belong to the funnel"}}
	}

	q := BoardQuery(input.ClinicID, input.FunnelID, input.Search, input.Sort, entity.StageIDs(stages))
	page, err := uc.Leads.List(ctx, q)
	if err != nil {
		return nil, &FetchError{Op: "leads", Err: err}
	}

	lead := findLead(page.Leads, leadID)
	if lead == nil || lead.InStage(input.TargetStageID) {
		metrics.RecordStageTransition(string(OutcomeNoOp))
		return &MoveLeadOutput{Outcome: OutcomeNoOp, LeadID: leadID}, nil
	}

	log := zap.L().With(
		zap.String("clinic_id", input.ClinicID),
		zap.Int64("lead_id", leadID),
		zap.Int64("target_stage_id", input.TargetStageID),
	)

	// otimista: visível antes da resposta da automação
	target := input.TargetStageID
	t := uc.seq.enqueue(leadID, lead.StageID)
	defer uc.seq.release(leadID, t)
	uc.Leads.SetLeadStage(q, leadID, &target)

	if err := uc.seq.wait(ctx, t); err != nil {
		uc.rollback(q, leadID, t, &target)
		metrics.RecordStageTransition("failed")
		return nil, &MutationError{Op: "mover lead", Detail: "operação cancelada", Err: err}
	}

	// os comandos anteriores já terminaram: esta é a etapa real no servidor
	prev := uc.seq.confirmed(leadID)

	err = uc.Commander.ChangeStage(ctx, automation.ChangeStageInput{
		LeadID:        leadID,
		TargetStageID: target,
		ClinicID:      input.ClinicID,
	})
	if err != nil {
		uc.rollback(q, leadID, t, &target)
		metrics.RecordStageTransition("failed")
		log.Warn("stage transition rejected", zap.Error(err))
		return nil, &MutationError{Op: "mover lead", Detail: errorDetail(err), Err: err}
	}

	uc.seq.confirm(leadID, target)
	uc.Leads.InvalidateClinic(input.ClinicID)
	metrics.RecordStageTransition(string(OutcomeMoved))

	event := queue.StageChangedEvent{
		EventID:     uuid.New().String(),
		ClinicID:    input.ClinicID,
		LeadID:      leadID,
		FromStageID: prev,
		ToStageID:   target,
		OccurredAt:  uc.now(),
	}
	if uc.Queue != nil {
		if err := uc.Queue.PublishStageChanged(ctx, event); err != nil {
			// a etapa já mudou na automação; só as mensagens da etapa ficam para trás
			log.Error("stage changed but event was not published", zap.Error(err))
		}
	}

	return &MoveLeadOutput{
		Outcome:     OutcomeMoved,
		LeadID:      leadID,
		FromStageID: prev,
		ToStageID:   target,
		Notice:      fmt.Sprintf("Lead movido para %s", uc.Stages.ResolveStageName(target)),
	}, nil
}

// rollback restaura a última etapa confirmada pelo servidor, a menos que um
// drop mais novo do mesmo lead já esteja na fila. Nesse caso quem restaura é
// o drop mais novo, se ele também falhar.
func (uc *MoveLeadUseCase) rollback(q cache.Query, leadID int64, t *ticket, optimistic *int64) {
	if !uc.seq.latest(leadID, t) {
		return
	}
	uc.Leads.RestoreLeadStage(q, leadID, optimistic, uc.seq.confirmed(leadID))
}

// ParseDragData lê o id do lead do canal de drag-data. Vazio ou inválido = false.
func ParseDragData(data string) (int64, bool) {
	data = strings.TrimSpace(data)
	if data == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(data, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func errorDetail(err error) string {
	var we *automation.WebhookError
	if errors.As(err, &we) && we.Body != "" {
		return we.Body
	}
	r := []rune(err.Error())
	if len(r) > automation.MaxErrorDetail {
		r = r[:automation.MaxErrorDetail]
	}
	return string(r)
}

func hasStage(stages []entity.Stage, id int64) bool {
	for _, s := range stages {
		if s.ID == id {
			return true
		}
	}
	return false
}

func findLead(leads []entity.Lead, id int64) *entity.Lead {
	for i := range leads {
		if leads[i].ID == id {
			return &leads[i]
		}
	}
	return nil
}
