package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"github.com/xavierca1/ligue-crm/internal/infra/metrics"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
	"go.uber.org/zap"
)

const DefaultDueBatch = 50

// DispatchMessagesUseCase envia as mensagens configuradas quando um lead entra
// numa etapa. Imediatas saem na hora; atrasadas vão para mensagens_agendadas e
// o scheduler chama SendDue.
type DispatchMessagesUseCase struct {
	Leads     entity.LeadRepositoryInterface
	Templates entity.StageMessageRepositoryInterface
	Scheduled entity.ScheduledMessageRepositoryInterface
	Sender    MessageSender
	BatchSize int

	now func() time.Time
}

func NewDispatchMessagesUseCase(
	leads entity.LeadRepositoryInterface,
	templates entity.StageMessageRepositoryInterface,
	scheduled entity.ScheduledMessageRepositoryInterface,
	sender MessageSender,
) *DispatchMessagesUseCase {
	return &DispatchMessagesUseCase{
		Leads:     leads,
		Templates: templates,
		Scheduled: scheduled,
		Sender:    sender,
		BatchSize: DefaultDueBatch,
		now:       time.Now,
	}
}

// HandleStageChanged só devolve erro quando não conseguiu ler o lead ou os
// templates; falhas de envio ficam no log para o evento não ser reprocessado.
func (uc *DispatchMessagesUseCase) HandleStageChanged(ctx context.Context, event queue.StageChangedEvent) error {
	log := zap.L().With(
		zap.String("event_id", event.EventID),
		zap.String("clinic_id", event.ClinicID),
		zap.Int64("lead_id", event.LeadID),
		zap.Int64("stage_id", event.ToStageID),
	)

	templates, err := uc.Templates.ListByStage(ctx, event.ClinicID, event.ToStageID)
	if err != nil {
		return &FetchError{Op: "mensagens da etapa", Err: err}
	}
	if len(templates) == 0 {
		return nil
	}

	lead, err := uc.Leads.FindByID(ctx, event.ClinicID, event.LeadID)
	if err != nil {
		return &FetchError{Op: "lead", Err: err}
	}

	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = uc.now()
	}

	for _, tpl := range templates {
		content := RenderMessage(tpl.Content, lead)

		if tpl.Timing == entity.TimingDelayed {
			sm := &entity.ScheduledMessage{
				ID:        uuid.New().String(),
				ClinicID:  event.ClinicID,
				LeadID:    event.LeadID,
				StageID:   event.ToStageID,
				MessageID: tpl.ID,
				Content:   content,
				DueAt:     occurred.Add(tpl.Delay()),
				Status:    entity.ScheduledPending,
				CreatedAt: uc.now(),
			}
			if err := uc.Scheduled.Create(ctx, sm); err != nil {
				metrics.RecordStageMessage(string(tpl.Timing), "failed")
				log.Error("failed to schedule stage message", zap.Int64("message_id", tpl.ID), zap.Error(err))
				continue
			}
			metrics.RecordStageMessage(string(tpl.Timing), "scheduled")
			continue
		}

		if err := uc.send(ctx, lead, event.ToStageID, content); err != nil {
			metrics.RecordStageMessage(string(tpl.Timing), "failed")
			log.Warn("failed to send stage message", zap.Int64("message_id", tpl.ID), zap.Error(err))
			continue
		}
		metrics.RecordStageMessage(string(tpl.Timing), "sent")
	}
	return nil
}

// SendDue processa um lote de mensagens vencidas e devolve quantas foram enviadas.
func (uc *DispatchMessagesUseCase) SendDue(ctx context.Context) (int, error) {
	batch := uc.BatchSize
	if batch <= 0 {
		batch = DefaultDueBatch
	}

	due, err := uc.Scheduled.ClaimDue(ctx, uc.now(), batch)
	if err != nil {
		return 0, &FetchError{Op: "mensagens agendadas", Err: err}
	}

	sent := 0
	for _, sm := range due {
		log := zap.L().With(zap.String("scheduled_id", sm.ID), zap.Int64("lead_id", sm.LeadID))

		lead, err := uc.Leads.FindByID(ctx, sm.ClinicID, sm.LeadID)
		if err != nil {
			uc.mark(ctx, sm.ID, entity.ScheduledFailed, err.Error())
			metrics.RecordStageMessage(string(entity.TimingDelayed), "failed")
			continue
		}

		// lead saiu da etapa antes do horário
		if !lead.InStage(sm.StageID) {
			uc.mark(ctx, sm.ID, entity.ScheduledCancelled, "")
			metrics.RecordStageMessage(string(entity.TimingDelayed), "cancelled")
			continue
		}

		if err := uc.send(ctx, lead, sm.StageID, sm.Content); err != nil {
			log.Warn("failed to send scheduled message", zap.Error(err))
			uc.mark(ctx, sm.ID, entity.ScheduledFailed, errorDetail(err))
			metrics.RecordStageMessage(string(entity.TimingDelayed), "failed")
			continue
		}

		uc.mark(ctx, sm.ID, entity.ScheduledSent, "")
		metrics.RecordStageMessage(string(entity.TimingDelayed), "sent")
		sent++
	}
	return sent, nil
}

func (uc *DispatchMessagesUseCase) send(ctx context.Context, lead *entity.Lead, stageID int64, content string) error {
	if lead.Phone == nil {
		return &MutationError{Op: "enviar mensagem", Detail: "lead sem telefone"}
	}
	phone, ok := NormalizePhone(strconv.FormatInt(*lead.Phone, 10))
	if !ok {
		return &MutationError{Op: "enviar mensagem", Detail: "telefone inválido"}
	}
	return uc.Sender.SendMessage(ctx, automation.SendMessageInput{
		ClinicID: lead.ClinicID,
		LeadID:   lead.ID,
		StageID:  stageID,
		Phone:    "55" + phone,
		Message:  content,
	})
}

func (uc *DispatchMessagesUseCase) mark(ctx context.Context, id string, status entity.ScheduledStatus, lastError string) {
	if err := uc.Scheduled.MarkStatus(ctx, id, status, lastError); err != nil {
		zap.L().Error("failed to update scheduled message",
			zap.String("scheduled_id", id), zap.String("status", string(status)), zap.Error(err))
	}
}

// RenderMessage troca {{nome}} e {{primeiro_nome}} pelos dados do lead.
func RenderMessage(content string, lead *entity.Lead) string {
	name := ""
	if lead != nil && lead.Name != nil {
		name = strings.TrimSpace(*lead.Name)
	}
	first := name
	if i := strings.IndexByte(name, ' '); i > 0 {
		first = name[:i]
	}
	r := strings.NewReplacer("{{nome}}", name, "{{primeiro_nome}}", first)
	return r.Replace(content)
}
