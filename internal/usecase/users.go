package usecase

import (
	"context"
	"strings"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"go.uber.org/zap"
)

type UsersUseCase struct {
	Repo        entity.UserRepositoryInterface
	Provisioner UserProvisioner
	Email       EmailService
}

func NewUsersUseCase(repo entity.UserRepositoryInterface, provisioner UserProvisioner, email EmailService) *UsersUseCase {
	return &UsersUseCase{Repo: repo, Provisioner: provisioner, Email: email}
}

func (uc *UsersUseCase) List(ctx context.Context, clinicID string) ([]entity.ClinicUser, error) {
	users, err := uc.Repo.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, &FetchError{Op: "usuários", Err: err}
	}
	if users == nil {
		users = []entity.ClinicUser{}
	}
	return users, nil
}

type CreateUserOutput struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (uc *UsersUseCase) Create(ctx context.Context, clinicID string, input CreateUserInput) (*CreateUserOutput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if errs := ValidateCreateUserInput(input); len(errs) > 0 {
		return nil, errs
	}

	userID, err := uc.Provisioner.CreateUser(ctx, automation.CreateUserInput{
		Email:    input.Email,
		Name:     input.Name,
		Role:     input.Role,
		ClinicID: clinicID,
	})
	if err != nil {
		return nil, &MutationError{Op: "criar usuário", Detail: errorDetail(err), Err: err}
	}

	if uc.Email != nil {
		// o usuário já existe; o e-mail de boas-vindas não desfaz nada
		if err := uc.Email.SendWelcome(input.Email, input.Name, input.Role); err != nil {
			zap.L().Warn("welcome email not sent",
				zap.String("clinic_id", clinicID), zap.String("user_id", userID), zap.Error(err))
		}
	}

	return &CreateUserOutput{UserID: userID, Email: input.Email, Role: input.Role}, nil
}
