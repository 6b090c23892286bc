package entity

import (
	"context"
	"errors"
	"time"
)

var ErrCashbackNotFound = errors.New("configuração de cashback não encontrada")

type CashbackConfig struct {
	ClinicID             string    `json:"id_clinica"`
	Percentage           float64   `json:"percentual" validate:"gte=0,lte=100"`
	ValidityDays         int       `json:"validade_dias" validate:"gte=1,lte=365"`
	MinimumPurchaseCents int       `json:"compra_minima_centavos" validate:"gte=0"`
	Enabled              bool      `json:"ativo"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// DefaultCashbackConfig é o que a clínica vê antes de salvar a primeira configuração.
func DefaultCashbackConfig(clinicID string) *CashbackConfig {
	return &CashbackConfig{
		ClinicID:     clinicID,
		Percentage:   5,
		ValidityDays: 90,
		Enabled:      false,
	}
}

// CreditFor returns the cashback in cents earned by a purchase.
func (c CashbackConfig) CreditFor(purchaseCents int) int {
	if !c.Enabled || purchaseCents < c.MinimumPurchaseCents {
		return 0
	}
	return int(float64(purchaseCents) * c.Percentage / 100)
}

type CashbackRepositoryInterface interface {
	FindByClinic(ctx context.Context, clinicID string) (*CashbackConfig, error)
	Upsert(ctx context.Context, c *CashbackConfig) error
}
