package usecase

import (
	"errors"
	"fmt"
	"strings"
)

// FetchError: uma leitura no banco falhou (rede ou query).
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("falha ao carregar %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// ValidationError: pré-condição local do formulário. Nunca chega na rede.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// MutationError: uma escrita (mover etapa, salvar, excluir, enviar) falhou no servidor.
type MutationError struct {
	Op     string
	Detail string
	Err    error
}

func (e *MutationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("falha ao %s: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("falha ao %s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

func IsMutationError(err error) bool {
	var me *MutationError
	return errors.As(err, &me)
}
