package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"go.uber.org/zap"
)

type InstancesUseCase struct {
	Repo        entity.InstanceRepositoryInterface
	Provisioner InstanceProvisioner
}

func NewInstancesUseCase(repo entity.InstanceRepositoryInterface, provisioner InstanceProvisioner) *InstancesUseCase {
	return &InstancesUseCase{Repo: repo, Provisioner: provisioner}
}

func (uc *InstancesUseCase) List(ctx context.Context, clinicID string) ([]entity.Instance, error) {
	list, err := uc.Repo.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, &FetchError{Op: "instâncias", Err: err}
	}
	if list == nil {
		list = []entity.Instance{}
	}
	return list, nil
}

// Create grava a linha, pede a instância para a automação e guarda o id
// remoto. Se a automação falhar, a linha é removida.
func (uc *InstancesUseCase) Create(ctx context.Context, clinicID string, input CreateInstanceInput) (*entity.Instance, error) {
	input.Name = strings.TrimSpace(input.Name)
	if errs := ValidateCreateInstanceInput(input); len(errs) > 0 {
		return nil, errs
	}

	inst := entity.NewInstance(clinicID, input.Name)
	var remote *automation.InstanceOutput

	tx := NewTransaction()
	tx.AddStep("insert_instance",
		func(ctx context.Context) error { return uc.Repo.Create(ctx, inst) },
		func(ctx context.Context) error { return uc.Repo.Delete(ctx, clinicID, inst.ID) },
	)
	tx.AddStep("create_remote_instance",
		func(ctx context.Context) error {
			out, err := uc.Provisioner.CreateInstance(ctx, automation.CreateInstanceInput{
				ClinicID:     clinicID,
				InstanceName: inst.Name,
			})
			if err != nil {
				return err
			}
			remote = out
			return nil
		},
		func(ctx context.Context) error {
			return uc.Provisioner.DeleteInstance(ctx, clinicID, remote.InstanceID)
		},
	)
	tx.AddStep("store_remote_id",
		func(ctx context.Context) error {
			status := remote.Status
			if status == "" {
				status = inst.Status
			}
			if err := uc.Repo.UpdateExternal(ctx, inst.ID, remote.InstanceID, status); err != nil {
				return err
			}
			inst.ExternalID = remote.InstanceID
			inst.Status = status
			return nil
		},
		nil,
	)

	if err := tx.Execute(ctx); err != nil {
		return nil, &MutationError{Op: "criar instância", Detail: errorDetail(unwrapStep(err)), Err: err}
	}
	return inst, nil
}

// Delete remove na automação primeiro; a linha só sai se a automação aceitou.
func (uc *InstancesUseCase) Delete(ctx context.Context, clinicID, id string) error {
	inst, err := uc.Repo.FindByID(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, entity.ErrInstanceNotFound) {
			return &MutationError{Op: "excluir instância", Detail: "instância não encontrada", Err: err}
		}
		return &FetchError{Op: "instância", Err: err}
	}

	if inst.ExternalID != "" {
		if err := uc.Provisioner.DeleteInstance(ctx, clinicID, inst.ExternalID); err != nil {
			return &MutationError{Op: "excluir instância", Detail: errorDetail(err), Err: err}
		}
	}

	if err := uc.Repo.Delete(ctx, clinicID, id); err != nil {
		zap.L().Error("remote instance deleted but row remains",
			zap.String("clinic_id", clinicID), zap.String("instance_id", id), zap.Error(err))
		return &MutationError{Op: "excluir instância", Err: err}
	}
	return nil
}

func unwrapStep(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	return err
}
