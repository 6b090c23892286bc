package usecase

import (
	"context"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	EmptyFunnelMessage = "Este funil ainda não tem etapas. Cadastre as etapas para usar o quadro."
	EmptyBoardMessage  = "Nenhum lead encontrado para este funil."
)

type LoadBoardInput struct {
	ClinicID string
	FunnelID int64
	Search   string
	Sort     entity.LeadSort
}

type BoardColumn struct {
	Stage entity.Stage  `json:"stage"`
	Leads []entity.Lead `json:"leads"`
	Count int           `json:"count"`
}

type BoardOutput struct {
	Funnel     entity.Funnel `json:"funnel"`
	Columns    []BoardColumn `json:"columns"`
	TotalLeads int           `json:"total_leads"`
	EmptyState string        `json:"empty_state,omitempty"`
}

type LoadBoardUseCase struct {
	Funnels entity.FunnelRepositoryInterface
	Stages  StageDirectory
	Leads   LeadCache
}

func NewLoadBoardUseCase(funnels entity.FunnelRepositoryInterface, stages StageDirectory, leads LeadCache) *LoadBoardUseCase {
	return &LoadBoardUseCase{Funnels: funnels, Stages: stages, Leads: leads}
}

// loadFunnelStages confere que o funil é da clínica e traz as etapas em
// paralelo. Funil de outra clínica responde como não encontrado.
func loadFunnelStages(ctx context.Context, funnels entity.FunnelRepositoryInterface, dir StageDirectory, clinicID string, funnelID int64) (*entity.Funnel, []entity.Stage, error) {
	var (
		funnel *entity.Funnel
		stages []entity.Stage
	)

	// funil e etapas são independentes
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := funnels.FindByID(gctx, clinicID, funnelID)
		if err != nil {
			return &FetchError{Op: "funil", Err: err}
		}
		funnel = f
		return nil
	})
	g.Go(func() error {
		s, err := dir.ListStages(gctx, funnelID)
		if err != nil {
			return &FetchError{Op: "etapas", Err: err}
		}
		stages = s
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return funnel, stages, nil
}

func (uc *LoadBoardUseCase) Execute(ctx context.Context, input LoadBoardInput) (*BoardOutput, error) {
	funnel, stages, err := loadFunnelStages(ctx, uc.Funnels, uc.Stages, input.ClinicID, input.FunnelID)
	if err != nil {
		return nil, err
	}

	out := &BoardOutput{Funnel: *funnel, Columns: make([]BoardColumn, 0, len(stages))}
	if len(stages) == 0 {
		out.EmptyState = EmptyFunnelMessage
		return out, nil
	}

	q := BoardQuery(input.ClinicID, input.FunnelID, input.Search, input.Sort, entity.StageIDs(stages))
	page, err := uc.Leads.List(ctx, q)
	if err != nil {
		return nil, &FetchError{Op: "leads", Err: err}
	}

	out.Columns, out.TotalLeads = groupByStage(stages, page.Leads, input.Sort, input.ClinicID, input.FunnelID)
	if out.TotalLeads == 0 {
		out.EmptyState = EmptyBoardMessage
	}
	return out, nil
}

// groupByStage distribui os leads nas colunas. Leads cuja etapa não está no
// funil ficam de fora do quadro (só log e métrica).
func groupByStage(stages []entity.Stage, leads []entity.Lead, sort entity.LeadSort, clinicID string, funnelID int64) ([]BoardColumn, int) {
	columns := make([]BoardColumn, len(stages))
	index := make(map[int64]int, len(stages))
	for i, s := range stages {
		columns[i] = BoardColumn{Stage: s, Leads: []entity.Lead{}}
		index[s.ID] = i
	}

	total, orphans := 0, 0
	for _, l := range leads {
		if l.StageID == nil {
			orphans++
			continue
		}
		i, ok := index[*l.StageID]
		if !ok {
			orphans++
			continue
		}
		columns[i].Leads = append(columns[i].Leads, l)
		total++
	}

	for i := range columns {
		entity.SortLeads(columns[i].Leads, sort)
		columns[i].Count = len(columns[i].Leads)
	}

	if orphans > 0 {
		metrics.RecordOrphanedLeads(orphans)
		zap.L().Warn("leads outside the funnel stages hidden from board",
			zap.String("clinic_id", clinicID),
			zap.Int64("funnel_id", funnelID),
			zap.Int("count", orphans))
	}
	return columns, total
}
