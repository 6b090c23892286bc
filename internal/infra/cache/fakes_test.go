package cache

import (
	"context"
	"sync"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type fakeLeadRepo struct {
	mu      sync.Mutex
	leads   []entity.Lead
	err     error
	lists   int
	counts  int
	filters []entity.LeadFilter
	block   chan struct{} // se não nil, List espera até fechar
}

func (f *fakeLeadRepo) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}

	var out []entity.Lead
	for _, l := range f.leads {
		if l.ClinicID == filter.ClinicID && l.Matches(filter.Search) && inSet(l.StageID, filter.StageIDs) {
			out = append(out, l)
		}
	}
	entity.SortLeads(out, filter.Sort)
	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return []entity.Lead{}, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[filter.Offset:end]
	}
	return out, nil
}

func (f *fakeLeadRepo) Count(ctx context.Context, filter entity.LeadFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts++
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, l := range f.leads {
		if l.ClinicID == filter.ClinicID && l.Matches(filter.Search) && inSet(l.StageID, filter.StageIDs) {
			n++
		}
	}
	return n, nil
}

func (f *fakeLeadRepo) FindByID(ctx context.Context, clinicID string, leadID int64) (*entity.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.leads {
		if l.ID == leadID && l.ClinicID == clinicID {
			return &l, nil
		}
	}
	return nil, entity.ErrLeadNotFound
}

func (f *fakeLeadRepo) setStage(leadID, stageID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.leads {
		if f.leads[i].ID == leadID {
			f.leads[i].StageID = &stageID
		}
	}
}

func (f *fakeLeadRepo) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists, f.counts
}

func inSet(id *int64, set []int64) bool {
	if id == nil {
		return false
	}
	for _, s := range set {
		if s == *id {
			return true
		}
	}
	return false
}

type fakeStageRepo struct {
	mu     sync.Mutex
	stages map[int64][]entity.Stage
	err    error
	calls  int
}

func (f *fakeStageRepo) ListByFunnel(ctx context.Context, funnelID int64) ([]entity.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]entity.Stage(nil), f.stages[funnelID]...), nil
}

func id(v int64) *int64 { return &v }

func name(s string) *string { return &s }
