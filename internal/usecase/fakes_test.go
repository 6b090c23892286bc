package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

func i64(v int64) *int64 { return &v }

func str(s string) *string { return &s }

// ============ DIRETÓRIO DE ETAPAS ============

type fakeStages struct {
	mu     sync.Mutex
	stages map[int64][]entity.Stage
	err    error
	calls  int
}

func (f *fakeStages) ListStages(ctx context.Context, funnelID int64) ([]entity.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := append([]entity.Stage{}, f.stages[funnelID]...)
	entity.SortStages(out)
	return out, nil
}

func (f *fakeStages) ResolveStageName(stageID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, list := range f.stages {
		for _, s := range list {
			if s.ID == stageID {
				return s.Name
			}
		}
	}
	return entity.UnknownStageName
}

// ============ REPOSITÓRIO DE LEADS ============

type fakeLeadRepo struct {
	mu     sync.Mutex
	leads  []entity.Lead
	err    error
	lists  int
	counts int
}

func (f *fakeLeadRepo) matching(filter entity.LeadFilter) []entity.Lead {
	var out []entity.Lead
	for _, l := range f.leads {
		if l.ClinicID != filter.ClinicID || !l.Matches(filter.Search) || l.StageID == nil {
			continue
		}
		for _, s := range filter.StageIDs {
			if s == *l.StageID {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

func (f *fakeLeadRepo) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.err != nil {
		return nil, f.err
	}
	out := f.matching(filter)
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

func (f *fakeLeadRepo) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists, f.counts
}

// ============ FUNIS ============

type fakeFunnels struct {
	funnels map[int64]entity.Funnel
	owner   string // se preenchido, só essa clínica enxerga os funis
	err     error
}

// boardFunnels: funis 1, 2 e 3 da clínica c1.
func boardFunnels() *fakeFunnels {
	return &fakeFunnels{owner: "c1", funnels: map[int64]entity.Funnel{
		1: {ID: 1, Name: "Captação"},
		2: {ID: 2, Name: "Outro funil"},
		3: {ID: 3, Name: "Funil vazio"},
	}}
}

func (f *fakeFunnels) FindByID(ctx context.Context, clinicID string, id int64) (*entity.Funnel, error) {
	if f.err != nil {
		return nil, f.err
	}
	fn, ok := f.funnels[id]
	if !ok || (f.owner != "" && clinicID != f.owner) {
		return nil, entity.ErrFunnelNotFound
	}
	return &fn, nil
}

func (f *fakeFunnels) ListByClinic(ctx context.Context, clinicID string) ([]entity.Funnel, error) {
	var out []entity.Funnel
	for _, fn := range f.funnels {
		out = append(out, fn)
	}
	return out, nil
}

// ============ MOCKS DE INTEGRAÇÃO ============

type MockCommander struct {
	mock.Mock
}

func (m *MockCommander) ChangeStage(ctx context.Context, input automation.ChangeStageInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

type MockQueueProducer struct {
	mock.Mock
}

func (m *MockQueueProducer) PublishStageChanged(ctx context.Context, event queue.StageChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendMessage(ctx context.Context, input automation.SendMessageInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

type MockUserProvisioner struct {
	mock.Mock
}

func (m *MockUserProvisioner) CreateUser(ctx context.Context, input automation.CreateUserInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

type MockInstanceProvisioner struct {
	mock.Mock
}

func (m *MockInstanceProvisioner) CreateInstance(ctx context.Context, input automation.CreateInstanceInput) (*automation.InstanceOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*automation.InstanceOutput), args.Error(1)
}

func (m *MockInstanceProvisioner) DeleteInstance(ctx context.Context, clinicID, instanceID string) error {
	args := m.Called(ctx, clinicID, instanceID)
	return args.Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendWelcome(to, name, role string) error {
	args := m.Called(to, name, role)
	return args.Error(0)
}

// ============ MENSAGENS ============

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []entity.StageMessage
	nextID   int64
	err      error
}

func (f *fakeMessageRepo) ListByFunnel(ctx context.Context, clinicID string, funnelID int64) ([]entity.StageMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.StageMessage
	for _, m := range f.messages {
		if m.ClinicID == clinicID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) ListByStage(ctx context.Context, clinicID string, stageID int64) ([]entity.StageMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []entity.StageMessage
	for _, m := range f.messages {
		if m.ClinicID == clinicID && m.StageID == stageID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) Save(ctx context.Context, m *entity.StageMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if m.ID == 0 {
		f.nextID++
		m.ID = f.nextID
		f.messages = append(f.messages, *m)
		return nil
	}
	for i := range f.messages {
		if f.messages[i].ID == m.ID && f.messages[i].ClinicID == m.ClinicID {
			f.messages[i] = *m
			return nil
		}
	}
	return entity.ErrStageMessageNotFound
}

func (f *fakeMessageRepo) Delete(ctx context.Context, clinicID string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.messages {
		if f.messages[i].ID == id && f.messages[i].ClinicID == clinicID {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return entity.ErrStageMessageNotFound
}

type fakeScheduledRepo struct {
	mu       sync.Mutex
	items    []entity.ScheduledMessage
	statuses map[string]entity.ScheduledStatus
	errors   map[string]string
	err      error
}

func newFakeScheduledRepo() *fakeScheduledRepo {
	return &fakeScheduledRepo{statuses: map[string]entity.ScheduledStatus{}, errors: map[string]string{}}
}

func (f *fakeScheduledRepo) Create(ctx context.Context, m *entity.ScheduledMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.items = append(f.items, *m)
	f.statuses[m.ID] = m.Status
	return nil
}

func (f *fakeScheduledRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]entity.ScheduledMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var due []entity.ScheduledMessage
	for _, m := range f.items {
		if len(due) == limit {
			break
		}
		if f.statuses[m.ID] == entity.ScheduledPending && !m.DueAt.After(now) {
			f.statuses[m.ID] = entity.ScheduledSending
			due = append(due, m)
		}
	}
	return due, nil
}

func (f *fakeScheduledRepo) MarkStatus(ctx context.Context, id string, status entity.ScheduledStatus, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	f.errors[id] = lastError
	return nil
}

func (f *fakeScheduledRepo) status(id string) entity.ScheduledStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

// ============ CASHBACK, USUÁRIOS, INSTÂNCIAS ============

type fakeCashbackRepo struct {
	cfg *entity.CashbackConfig
	err error
}

func (f *fakeCashbackRepo) FindByClinic(ctx context.Context, clinicID string) (*entity.CashbackConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.cfg == nil {
		return nil, entity.ErrCashbackNotFound
	}
	c := *f.cfg
	return &c, nil
}

func (f *fakeCashbackRepo) Upsert(ctx context.Context, c *entity.CashbackConfig) error {
	if f.err != nil {
		return f.err
	}
	saved := *c
	f.cfg = &saved
	return nil
}

type fakeUserRepo struct {
	users []entity.ClinicUser
	err   error
}

func (f *fakeUserRepo) ListByClinic(ctx context.Context, clinicID string) ([]entity.ClinicUser, error) {
	return f.users, f.err
}

type fakeInstanceRepo struct {
	mu        sync.Mutex
	instances map[string]entity.Instance
	createErr error
	deleteErr error
	updateErr error
	deleted   []string
}

func newFakeInstanceRepo() *fakeInstanceRepo {
	return &fakeInstanceRepo{instances: map[string]entity.Instance{}}
}

func (f *fakeInstanceRepo) ListByClinic(ctx context.Context, clinicID string) ([]entity.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Instance
	for _, i := range f.instances {
		if i.ClinicID == clinicID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeInstanceRepo) FindByID(ctx context.Context, clinicID, id string) (*entity.Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.instances[id]
	if !ok || i.ClinicID != clinicID {
		return nil, entity.ErrInstanceNotFound
	}
	return &i, nil
}

func (f *fakeInstanceRepo) Create(ctx context.Context, i *entity.Instance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.instances[i.ID] = *i
	return nil
}

func (f *fakeInstanceRepo) UpdateExternal(ctx context.Context, id, externalID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	i := f.instances[id]
	i.ExternalID = externalID
	i.Status = status
	f.instances[id] = i
	return nil
}

func (f *fakeInstanceRepo) Delete(ctx context.Context, clinicID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.instances[id]; !ok {
		return entity.ErrInstanceNotFound
	}
	delete(f.instances, id)
	f.deleted = append(f.deleted, id)
	return nil
}
