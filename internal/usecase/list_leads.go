package usecase

import (
	"context"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/cache"
)

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
)

type ListLeadsInput struct {
	ClinicID string
	FunnelID int64
	Page     int
	PageSize int
	Search   string
	Sort     entity.LeadSort
}

type LeadView struct {
	entity.Lead
	StageName string `json:"nome_etapa"`
}

type ListLeadsOutput struct {
	Leads      []LeadView `json:"leads"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalCount int        `json:"total_count"`
	TotalPages int        `json:"total_pages"`
	Clamped    bool       `json:"clamped,omitempty"` // página pedida além do fim, devolvida a última
}

type ListLeadsUseCase struct {
	Funnels entity.FunnelRepositoryInterface
	Stages  StageDirectory
	Leads   LeadCache
}

func NewListLeadsUseCase(funnels entity.FunnelRepositoryInterface, stages StageDirectory, leads LeadCache) *ListLeadsUseCase {
	return &ListLeadsUseCase{Funnels: funnels, Stages: stages, Leads: leads}
}

func (uc *ListLeadsUseCase) Execute(ctx context.Context, input ListLeadsInput) (*ListLeadsOutput, error) {
	size := input.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	page := input.Page
	if page < 1 {
		page = 1
	}

	_, stages, err := loadFunnelStages(ctx, uc.Funnels, uc.Stages, input.ClinicID, input.FunnelID)
	if err != nil {
		return nil, err
	}

	q := cache.Query{
		ClinicID: input.ClinicID,
		FunnelID: input.FunnelID,
		Mode:     entity.ModeList,
		Page:     page,
		PageSize: size,
		Search:   input.Search,
		Sort:     input.Sort,
		StageIDs: entity.StageIDs(stages),
	}

	result, err := uc.Leads.List(ctx, q)
	if err != nil {
		return nil, &FetchError{Op: "leads", Err: err}
	}

	total := 0
	if result.Total != nil {
		total = *result.Total
	}
	totalPages := (total + size - 1) / size

	out := &ListLeadsOutput{Page: page, PageSize: size, TotalCount: total, TotalPages: totalPages}

	// volta para a última página válida
	if totalPages > 0 && page > totalPages {
		q.Page = totalPages
		result, err = uc.Leads.List(ctx, q)
		if err != nil {
			return nil, &FetchError{Op: "leads", Err: err}
		}
		out.Page = totalPages
		out.Clamped = true
	}

	out.Leads = make([]LeadView, 0, len(result.Leads))
	for _, l := range result.Leads {
		name := entity.UnknownStageName
		if l.StageID != nil {
			name = uc.Stages.ResolveStageName(*l.StageID)
		}
		out.Leads = append(out.Leads, LeadView{Lead: l, StageName: name})
	}
	return out, nil
}
