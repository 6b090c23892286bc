package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type CashbackUseCase struct {
	Repo entity.CashbackRepositoryInterface
	now  func() time.Time
}

func NewCashbackUseCase(repo entity.CashbackRepositoryInterface) *CashbackUseCase {
	return &CashbackUseCase{Repo: repo, now: time.Now}
}

// Get devolve a configuração salva ou o padrão quando a clínica nunca salvou.
func (uc *CashbackUseCase) Get(ctx context.Context, clinicID string) (*entity.CashbackConfig, error) {
	cfg, err := uc.Repo.FindByClinic(ctx, clinicID)
	if errors.Is(err, entity.ErrCashbackNotFound) || (err == nil && cfg == nil) {
		return entity.DefaultCashbackConfig(clinicID), nil
	}
	if err != nil {
		return nil, &FetchError{Op: "cashback", Err: err}
	}
	return cfg, nil
}

func (uc *CashbackUseCase) Save(ctx context.Context, clinicID string, cfg entity.CashbackConfig) (*entity.CashbackConfig, error) {
	cfg.ClinicID = clinicID
	if errs := ValidateCashbackConfig(cfg); len(errs) > 0 {
		return nil, errs
	}
	cfg.UpdatedAt = uc.now()
	if err := uc.Repo.Upsert(ctx, &cfg); err != nil {
		return nil, &MutationError{Op: "salvar cashback", Err: err}
	}
	return &cfg, nil
}
