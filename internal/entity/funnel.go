package entity

import (
	"context"
	"errors"
	"sort"
)

// UnknownStageName é exibido quando o id da etapa não está no cache (id antigo ou de outro funil)
const UnknownStageName = "Etapa desconhecida"

var ErrFunnelNotFound = errors.New("funil não encontrado")

type Funnel struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

type Stage struct {
	ID       int64  `json:"id"`
	Name     string `json:"nome"`
	Rank     *int   `json:"ordem"`
	FunnelID int64  `json:"id_funil"`
}

// SortStages ordena pela ordem crescente. Etapas sem ordem vão para o final e
// empates mantêm a ordem de chegada.
func SortStages(stages []Stage) {
	sort.SliceStable(stages, func(i, j int) bool {
		a, b := stages[i].Rank, stages[j].Rank
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

func StageIDs(stages []Stage) []int64 {
	ids := make([]int64, 0, len(stages))
	for _, s := range stages {
		ids = append(ids, s.ID)
	}
	return ids
}

type FunnelRepositoryInterface interface {
	FindByID(ctx context.Context, clinicID string, id int64) (*Funnel, error)
	ListByClinic(ctx context.Context, clinicID string) ([]Funnel, error)
}

type StageRepositoryInterface interface {
	ListByFunnel(ctx context.Context, funnelID int64) ([]Stage, error)
}
