package handlers

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
)

func i64(v int64) *int64 { return &v }

func str(s string) *string { return &s }

func rank(v int) *int { return &v }

type fakeFunnelRepo struct {
	funnels map[int64]entity.Funnel // chave = id; clínica c1
}

func (f *fakeFunnelRepo) FindByID(ctx context.Context, clinicID string, id int64) (*entity.Funnel, error) {
	fn, ok := f.funnels[id]
	if !ok || clinicID != "c1" {
		return nil, entity.ErrFunnelNotFound
	}
	return &fn, nil
}

func (f *fakeFunnelRepo) ListByClinic(ctx context.Context, clinicID string) ([]entity.Funnel, error) {
	var out []entity.Funnel
	for _, fn := range f.funnels {
		out = append(out, fn)
	}
	return out, nil
}

type fakeStageRepo struct {
	stages map[int64][]entity.Stage
	err    error
}

func (f *fakeStageRepo) ListByFunnel(ctx context.Context, funnelID int64) ([]entity.Stage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]entity.Stage{}, f.stages[funnelID]...), nil
}

type fakeLeadRepo struct {
	mu    sync.Mutex
	leads []entity.Lead
	err   error
}

func (f *fakeLeadRepo) matching(filter entity.LeadFilter) []entity.Lead {
	var out []entity.Lead
	for _, l := range f.leads {
		if l.ClinicID != filter.ClinicID || l.StageID == nil || !l.Matches(filter.Search) {
			continue
		}
		for _, s := range filter.StageIDs {
			if s == *l.StageID {
				out = append(out, l)
			}
		}
	}
	entity.SortLeads(out, filter.Sort)
	return out
}

func (f *fakeLeadRepo) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := f.matching(filter)
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
	if f.err != nil {
		return 0, f.err
	}
	return len(f.matching(filter)), nil
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

// setStage simula a automação gravando a etapa nova no banco.
func (f *fakeLeadRepo) setStage(leadID, stageID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.leads {
		if f.leads[i].ID == leadID {
			f.leads[i].StageID = i64(stageID)
		}
	}
}

type fakeMessageRepo struct {
	messages []entity.StageMessage
}

func (f *fakeMessageRepo) ListByFunnel(ctx context.Context, clinicID string, funnelID int64) ([]entity.StageMessage, error) {
	return f.messages, nil
}

func (f *fakeMessageRepo) ListByStage(ctx context.Context, clinicID string, stageID int64) ([]entity.StageMessage, error) {
	return nil, nil
}

func (f *fakeMessageRepo) Save(ctx context.Context, m *entity.StageMessage) error {
	if m.ID == 0 {
		m.ID = int64(len(f.messages) + 1)
		f.messages = append(f.messages, *m)
		return nil
	}
	for i := range f.messages {
		if f.messages[i].ID == m.ID {
			f.messages[i] = *m
			return nil
		}
	}
	return entity.ErrStageMessageNotFound
}

func (f *fakeMessageRepo) Delete(ctx context.Context, clinicID string, id int64) error {
	for i := range f.messages {
		if f.messages[i].ID == id {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return entity.ErrStageMessageNotFound
}

type fakeCashbackRepo struct {
	cfg *entity.CashbackConfig
}

func (f *fakeCashbackRepo) FindByClinic(ctx context.Context, clinicID string) (*entity.CashbackConfig, error) {
	if f.cfg == nil {
		return nil, entity.ErrCashbackNotFound
	}
	return f.cfg, nil
}

func (f *fakeCashbackRepo) Upsert(ctx context.Context, c *entity.CashbackConfig) error {
	f.cfg = c
	return nil
}

type fakeUserRepo struct{}

func (fakeUserRepo) ListByClinic(ctx context.Context, clinicID string) ([]entity.ClinicUser, error) {
	return []entity.ClinicUser{{ID: "u1", ClinicID: clinicID, Name: "Ana", Email: "ana@c.com", Role: entity.RoleAdmin}}, nil
}

type fakeInstanceRepo struct {
	instances map[string]entity.Instance
}

func (f *fakeInstanceRepo) ListByClinic(ctx context.Context, clinicID string) ([]entity.Instance, error) {
	var out []entity.Instance
	for _, i := range f.instances {
		out = append(out, i)
	}
	return out, nil
}

func (f *fakeInstanceRepo) FindByID(ctx context.Context, clinicID, id string) (*entity.Instance, error) {
	i, ok := f.instances[id]
	if !ok {
		return nil, entity.ErrInstanceNotFound
	}
	return &i, nil
}

func (f *fakeInstanceRepo) Create(ctx context.Context, i *entity.Instance) error {
	f.instances[i.ID] = *i
	return nil
}

func (f *fakeInstanceRepo) UpdateExternal(ctx context.Context, id, externalID, status string) error {
	i := f.instances[id]
	i.ExternalID, i.Status = externalID, status
	f.instances[id] = i
	return nil
}

func (f *fakeInstanceRepo) Delete(ctx context.Context, clinicID, id string) error {
	delete(f.instances, id)
	return nil
}

// MockAutomation cobre os webhooks usados pelos handlers.
type MockAutomation struct {
	mock.Mock
}

func (m *MockAutomation) ChangeStage(ctx context.Context, input automation.ChangeStageInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *MockAutomation) CreateUser(ctx context.Context, input automation.CreateUserInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockAutomation) CreateInstance(ctx context.Context, input automation.CreateInstanceInput) (*automation.InstanceOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*automation.InstanceOutput), args.Error(1)
}

func (m *MockAutomation) DeleteInstance(ctx context.Context, clinicID, instanceID string) error {
	args := m.Called(ctx, clinicID, instanceID)
	return args.Error(0)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }
