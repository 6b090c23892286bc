package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type StageMessagesUseCase struct {
	Repo   entity.StageMessageRepositoryInterface
	Stages StageDirectory
}

func NewStageMessagesUseCase(repo entity.StageMessageRepositoryInterface, stages StageDirectory) *StageMessagesUseCase {
	return &StageMessagesUseCase{Repo: repo, Stages: stages}
}

func (uc *StageMessagesUseCase) List(ctx context.Context, clinicID string, funnelID int64) ([]entity.StageMessage, error) {
	msgs, err := uc.Repo.ListByFunnel(ctx, clinicID, funnelID)
	if err != nil {
		return nil, &FetchError{Op: "mensagens", Err: err}
	}
	if msgs == nil {
		msgs = []entity.StageMessage{}
	}
	return msgs, nil
}

// Save cria (ID zero) ou atualiza a mensagem. O funil só é checado quando funnelID > 0.
func (uc *StageMessagesUseCase) Save(ctx context.Context, clinicID string, funnelID int64, m entity.StageMessage) (*entity.StageMessage, error) {
	m.ClinicID = clinicID
	m.Content = strings.TrimSpace(m.Content)
	if errs := ValidateStageMessage(m); len(errs) > 0 {
		return nil, errs
	}

	if funnelID > 0 {
		stages, err := uc.Stages.ListStages(ctx, funnelID)
		if err != nil {
			return nil, &FetchError{Op: "etapas", Err: err}
		}
		if !hasStage(stages, m.StageID) {
			return nil, ValidationErrors{{Field: "StageID", Message: "does not belong to the funnel"}}
		}
	}

	if err := uc.Repo.Save(ctx, &m); err != nil {
		if errors.Is(err, entity.ErrStageMessageNotFound) {
			return nil, &MutationError{Op: "salvar mensagem", Detail: "mensagem não encontrada", Err: err}
		}
		return nil, &MutationError{Op: "salvar mensagem", Err: err}
	}
	return &m, nil
}

func (uc *StageMessagesUseCase) Delete(ctx context.Context, clinicID string, id int64) error {
	if id <= 0 {
		return ValidationErrors{{Field: "id", Message: "is invalid"}}
	}
	if err := uc.Repo.Delete(ctx, clinicID, id); err != nil {
		if errors.Is(err, entity.ErrStageMessageNotFound) {
			return &MutationError{Op: "excluir mensagem", Detail: "mensagem não encontrada", Err: err}
		}
		return &MutationError{Op: "excluir mensagem", Err: err}
	}
	return nil
}
