package usecase

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xavierca1/ligue-crm/internal/entity"
)

var validate = validator.New()

var nonDigits = regexp.MustCompile(`\D`)

// fieldErrors converte os erros do validator para o formato da API.
func fieldErrors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{{Field: "body", Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{Field: fe.Field(), Message: tagMessage(fe)})
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "is invalid"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "max":
		return "must not exceed " + fe.Param()
	case "min":
		return "must have at least " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

func ValidateStageMessage(m entity.StageMessage) ValidationErrors {
	var errs ValidationErrors
	if err := validate.Struct(m); err != nil {
		errs = append(errs, fieldErrors(err)...)
	}

	if strings.TrimSpace(m.Content) == "" && m.Content != "" {
		errs = append(errs, ValidationError{"Content", "is required"})
	}
	switch m.Timing {
	case entity.TimingDelayed:
		if m.DelayMinutes < 1 {
			errs = append(errs, ValidationError{"DelayMinutes", "must be at least 1 minute for delayed messages"})
		}
	case entity.TimingImmediate:
		if m.DelayMinutes != 0 {
			errs = append(errs, ValidationError{"DelayMinutes", "must be 0 for immediate messages"})
		}
	}
	return errs
}

func ValidateCashbackConfig(c entity.CashbackConfig) ValidationErrors {
	if err := validate.Struct(c); err != nil {
		return fieldErrors(err)
	}
	return nil
}

type CreateUserInput struct {
	Name  string `json:"nome" validate:"required,min=3,max=200"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin atendente"`
}

func ValidateCreateUserInput(input CreateUserInput) ValidationErrors {
	if err := validate.Struct(input); err != nil {
		return fieldErrors(err)
	}
	return nil
}

type CreateInstanceInput struct {
	Name string `json:"nome" validate:"required,min=3,max=60"`
}

func ValidateCreateInstanceInput(input CreateInstanceInput) ValidationErrors {
	var errs ValidationErrors
	if err := validate.Struct(input); err != nil {
		errs = append(errs, fieldErrors(err)...)
	}
	if strings.ContainsAny(input.Name, " /") {
		errs = append(errs, ValidationError{"Name", "must not contain spaces or slashes"})
	}
	return errs
}

// NormalizePhone deixa só os dígitos e valida o tamanho (DDD + número, com ou sem 55).
func NormalizePhone(phone string) (string, bool) {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	if strings.HasPrefix(cleaned, "55") && len(cleaned) >= 12 {
		cleaned = cleaned[2:]
	}
	return cleaned, len(cleaned) >= 10 && len(cleaned) <= 11
}
