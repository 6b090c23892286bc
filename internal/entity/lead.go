package entity

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var ErrLeadNotFound = errors.New("lead não encontrado")

type Lead struct {
	ID        int64     `json:"id"`
	ClinicID  string    `json:"id_clinica"`
	Name      *string   `json:"nome"`
	Phone     *int64    `json:"telefone"`
	StageID   *int64    `json:"id_etapa"` // nil = sem etapa
	Origin    *string   `json:"origem"`
	Score     *float64  `json:"score"` // 0 a 10
	CreatedAt time.Time `json:"created_at"`
}

// InStage reports whether the lead currently sits in stageID.
func (l Lead) InStage(stageID int64) bool {
	return l.StageID != nil && *l.StageID == stageID
}

// Matches aplica o filtro de busca: substring sem diferenciar maiúsculas em nome,
// dígitos do telefone e origem.
func (l Lead) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	if l.Name != nil && strings.Contains(strings.ToLower(*l.Name), term) {
		return true
	}
	if l.Phone != nil && strings.Contains(strconv.FormatInt(*l.Phone, 10), term) {
		return true
	}
	if l.Origin != nil && strings.Contains(strings.ToLower(*l.Origin), term) {
		return true
	}
	return false
}

type LeadSort string

const (
	SortRecent   LeadSort = "recent"
	SortOldest   LeadSort = "oldest"
	SortNameAsc  LeadSort = "name_asc"
	SortNameDesc LeadSort = "name_desc"
)

// ParseLeadSort falls back to SortRecent for empty or unknown keys.
func ParseLeadSort(s string) LeadSort {
	switch LeadSort(s) {
	case SortOldest, SortNameAsc, SortNameDesc:
		return LeadSort(s)
	default:
		return SortRecent
	}
}

// SortLeads ordena em memória com a mesma regra usada no banco: nomes pela
// collation pt-BR sem diferenciar maiúsculas, nome nulo sempre por último. A
// ordenação é estável: leads com a mesma chave mantêm a posição relativa.
func SortLeads(leads []Lead, key LeadSort) {
	var less func(a, b Lead) bool
	switch key {
	case SortOldest:
		less = func(a, b Lead) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortNameAsc, SortNameDesc:
		// Collator não é seguro para uso concorrente; um por chamada.
		coll := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
		dir := 1
		if key == SortNameDesc {
			dir = -1
		}
		less = func(a, b Lead) bool {
			switch {
			case a.Name == nil:
				return false
			case b.Name == nil:
				return true
			}
			return dir*coll.CompareString(*a.Name, *b.Name) < 0
		}
	default:
		less = func(a, b Lead) bool { return a.CreatedAt.After(b.CreatedAt) }
	}

	sort.SliceStable(leads, func(i, j int) bool { return less(leads[i], leads[j]) })
}

type PresentationMode string

const (
	ModeBoard PresentationMode = "board"
	ModeList  PresentationMode = "list"
)

// LeadFilter é o que o repositório precisa para montar a consulta.
type LeadFilter struct {
	ClinicID string
	StageIDs []int64
	Search   string
	Sort     LeadSort
	Limit    int // 0 = sem paginação
	Offset   int
}

type LeadRepositoryInterface interface {
	List(ctx context.Context, filter LeadFilter) ([]Lead, error)
	Count(ctx context.Context, filter LeadFilter) (int, error)
	FindByID(ctx context.Context, clinicID string, leadID int64) (*Lead, error)
}
