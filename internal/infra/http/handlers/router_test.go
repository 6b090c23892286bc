package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/cache"
	"github.com/xavierca1/ligue-crm/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"github.com/xavierca1/ligue-crm/internal/kanban"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

type testEnv struct {
	router     Router
	leads      *fakeLeadRepo
	automation *MockAutomation
}

func newTestEnv() *testEnv {
	stageRepo := &fakeStageRepo{stages: map[int64][]entity.Stage{
		1: {
			{ID: 20, Name: "Contato", Rank: rank(2), FunnelID: 1},
			{ID: 10, Name: "Novo", Rank: rank(1), FunnelID: 1},
		},
	}}
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	leadRepo := &fakeLeadRepo{leads: []entity.Lead{
		{ID: 1, ClinicID: "c1", Name: str("Maria"), StageID: i64(10), CreatedAt: base},
		{ID: 2, ClinicID: "c1", Name: str("João"), StageID: i64(10), CreatedAt: base.Add(time.Hour)},
		{ID: 3, ClinicID: "c1", Name: str("Ana"), StageID: i64(20), CreatedAt: base.Add(2 * time.Hour)},
	}}
	funnels := &fakeFunnelRepo{funnels: map[int64]entity.Funnel{
		1: {ID: 1, Name: "Captação"},
		3: {ID: 3, Name: "Sem etapas"},
	}}

	dir := cache.NewStageDirectory(stageRepo, time.Minute)
	leadCache := cache.NewLeadCache(leadRepo, time.Minute)
	auto := new(MockAutomation)

	return &testEnv{
		leads:      leadRepo,
		automation: auto,
		router: Router{
			Health: NewHealthHandler(fakePinger{}, nil, "http://automation.local", "test"),
			Board: NewBoardHandler(
				usecase.NewLoadBoardUseCase(funnels, dir, leadCache),
				usecase.NewMoveLeadUseCase(funnels, dir, leadCache, auto, nil),
				kanban.NewRegistry(time.Minute),
			),
			Leads:          NewLeadHandler(usecase.NewListLeadsUseCase(funnels, dir, leadCache)),
			Stages:         NewStageHandler(funnels, dir),
			Messages:       NewMessageHandler(usecase.NewStageMessagesUseCase(&fakeMessageRepo{}, dir)),
			Cashback:       NewCashbackHandler(usecase.NewCashbackUseCase(&fakeCashbackRepo{})),
			Users:          NewUserHandler(usecase.NewUsersUseCase(fakeUserRepo{}, auto, nil)),
			Instances:      NewInstanceHandler(usecase.NewInstancesUseCase(&fakeInstanceRepo{instances: map[string]entity.Instance{}}, auto)),
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}

func (e *testEnv) do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.ClinicHeader, "c1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type boardBody struct {
	Columns []struct {
		Stage entity.Stage  `json:"stage"`
		Leads []entity.Lead `json:"leads"`
		Count int           `json:"count"`
	} `json:"columns"`
	TotalLeads int             `json:"total_leads"`
	EmptyState string          `json:"empty_state"`
	Drag       kanban.Snapshot `json:"drag"`
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func leadIDs(leads []entity.Lead) []int64 {
	ids := make([]int64, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.ID)
	}
	return ids
}

// ============ QUADRO ============

func TestMissingClinicHeader(t *testing.T) {
	h := newTestEnv().router.Handler()

	req := httptest.NewRequest(http.MethodGet, "/funnels/1/board", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "MISSING_CLINIC")
}

func TestBoardGet(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, env.router.Handler(), http.MethodGet, "/funnels/1/board?sort=oldest", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[boardBody](t, rec)
	require.Len(t, body.Columns, 2)
	assert.Equal(t, "Novo", body.Columns[0].Stage.Name)
	assert.Equal(t, []int64{1, 2}, leadIDs(body.Columns[0].Leads))
	assert.Equal(t, []int64{3}, leadIDs(body.Columns[1].Leads))
	assert.Equal(t, 3, body.TotalLeads)
	assert.Equal(t, kanban.StateIdle, body.Drag.State)
}

func TestBoardEmptyFunnel(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, env.router.Handler(), http.MethodGet, "/funnels/3/board", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[boardBody](t, rec)
	assert.Empty(t, body.Columns)
	assert.Equal(t, usecase.EmptyFunnelMessage, body.EmptyState)
}

func TestBoardErrors(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()

	rec := env.do(t, h, http.MethodGet, "/funnels/abc/board", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ID")

	rec = env.do(t, h, http.MethodGet, "/funnels/99/board", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.leads.err = errors.New("connection refused")
	rec = env.do(t, h, http.MethodGet, "/funnels/1/board", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "FETCH_ERROR")
}

// TestDragAndDropMovesLead - arrasto completo; depois do sucesso o quadro relê o banco
func TestDragAndDropMovesLead(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()

	env.automation.On("ChangeStage", mock.Anything, automation.ChangeStageInput{LeadID: 1, TargetStageID: 20, ClinicID: "c1"}).
		Run(func(mock.Arguments) { env.leads.setStage(1, 20) }).
		Return(nil).Once()

	rec := env.do(t, h, http.MethodGet, "/funnels/1/board", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, h, http.MethodPost, "/funnels/1/board/drag", map[string]int64{"lead_id": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, kanban.StateDragging, decodeBody[kanban.Snapshot](t, rec).State)

	rec = env.do(t, h, http.MethodPost, "/funnels/1/board/hover", map[string]int64{"stage_id": 20})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, h, http.MethodGet, "/funnels/1/board", nil)
	drag := decodeBody[boardBody](t, rec).Drag
	assert.Equal(t, kanban.StateHovering, drag.State)
	require.NotNil(t, drag.HoveredStageID)
	assert.Equal(t, int64(20), *drag.HoveredStageID)

	rec = env.do(t, h, http.MethodPost, "/funnels/1/board/drop", map[string]any{"stage_id": 20})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[usecase.MoveLeadOutput](t, rec)
	assert.Equal(t, usecase.OutcomeMoved, out.Outcome)
	assert.Equal(t, "Lead movido para Contato", out.Notice)

	rec = env.do(t, h, http.MethodGet, "/funnels/1/board", nil)
	body := decodeBody[boardBody](t, rec)
	assert.Equal(t, []int64{2}, leadIDs(body.Columns[0].Leads))
	assert.ElementsMatch(t, []int64{1, 3}, leadIDs(body.Columns[1].Leads))
	assert.Equal(t, kanban.StateIdle, body.Drag.State)
	env.automation.AssertExpectations(t)
}

func TestDropFailureRestoresBoard(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()
	env.automation.On("ChangeStage", mock.Anything, mock.Anything).
		Return(&automation.WebhookError{Path: "/webhook/mudar-etapa", Status: 500, Body: "lead bloqueado"})

	env.do(t, h, http.MethodGet, "/funnels/1/board", nil)
	env.do(t, h, http.MethodPost, "/funnels/1/board/drag", map[string]int64{"lead_id": 2})

	rec := env.do(t, h, http.MethodPost, "/funnels/1/board/drop", map[string]any{"stage_id": 20})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "MUTATION_ERROR", resp.Code)
	assert.Contains(t, resp.Message, "lead bloqueado")

	rec = env.do(t, h, http.MethodGet, "/funnels/1/board", nil)
	body := decodeBody[boardBody](t, rec)
	assert.ElementsMatch(t, []int64{1, 2}, leadIDs(body.Columns[0].Leads))
	assert.Equal(t, kanban.StateIdle, body.Drag.State)
}

func TestDropSameStageIsNoOp(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()

	env.do(t, h, http.MethodPost, "/funnels/1/board/drag", map[string]int64{"lead_id": 3})
	rec := env.do(t, h, http.MethodPost, "/funnels/1/board/drop", map[string]any{"stage_id": 20})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, usecase.OutcomeNoOp, decodeBody[usecase.MoveLeadOutput](t, rec).Outcome)
	env.automation.AssertNotCalled(t, "ChangeStage", mock.Anything, mock.Anything)
}

func TestDropStateErrors(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()

	rec := env.do(t, h, http.MethodPost, "/funnels/1/board/drop", map[string]any{"stage_id": 20})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "DRAG_STATE")

	rec = env.do(t, h, http.MethodPost, "/funnels/1/board/hover", map[string]int64{"stage_id": 20})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, h, http.MethodPost, "/funnels/1/board/drag", map[string]int64{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, h, http.MethodPost, "/funnels/1/board/drag", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_JSON")

	env.do(t, h, http.MethodPost, "/funnels/1/board/drag", map[string]int64{"lead_id": 1})
	rec = env.do(t, h, http.MethodPost, "/funnels/1/board/drop", map[string]any{"stage_id": 999})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestDragEndCancels(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()

	env.do(t, h, http.MethodPost, "/funnels/1/board/drag", map[string]int64{"lead_id": 1})
	rec := env.do(t, h, http.MethodPost, "/funnels/1/board/end", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, kanban.StateIdle, decodeBody[kanban.Snapshot](t, rec).State)
}

// ============ LISTA, ETAPAS E CADASTROS ============

func TestLeadsListClampsPage(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, env.router.Handler(), http.MethodGet, "/funnels/1/leads?page=9&page_size=2&sort=oldest", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[usecase.ListLeadsOutput](t, rec)
	assert.True(t, out.Clamped)
	assert.Equal(t, 2, out.Page)
	assert.Equal(t, 3, out.TotalCount)
	require.Len(t, out.Leads, 1)
	assert.Equal(t, "Contato", out.Leads[0].StageName)
}

func TestLeadsListUnknownFunnel(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, env.router.Handler(), http.MethodGet, "/funnels/99/leads", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestStagesList(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()

	rec := env.do(t, h, http.MethodGet, "/funnels/1/stages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stages := decodeBody[[]entity.Stage](t, rec)
	require.Len(t, stages, 2)
	assert.Equal(t, "Novo", stages[0].Name)

	rec = env.do(t, h, http.MethodGet, "/funnels/42/stages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessagesCRUD(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()

	rec := env.do(t, h, http.MethodPost, "/messages", map[string]any{
		"id_funil": 1, "id_etapa": 20, "conteudo": "Olá {{primeiro_nome}}", "tipo_envio": "imediato",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[entity.StageMessage](t, rec)
	assert.Equal(t, "c1", created.ClinicID)

	rec = env.do(t, h, http.MethodPost, "/messages", map[string]any{
		"id": created.ID, "id_etapa": 20, "conteudo": "Oi", "tipo_envio": "atrasado", "atraso_minutos": 10,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, h, http.MethodGet, "/funnels/1/messages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]entity.StageMessage](t, rec), 1)

	rec = env.do(t, h, http.MethodPost, "/messages", map[string]any{"id_etapa": 20, "tipo_envio": "imediato"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = env.do(t, h, http.MethodDelete, "/messages/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, h, http.MethodDelete, "/messages/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCashbackEndpoints(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()

	rec := env.do(t, h, http.MethodGet, "/cashback", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, decodeBody[entity.CashbackConfig](t, rec).ValidityDays)

	rec = env.do(t, h, http.MethodPut, "/cashback", map[string]any{"percentual": 120, "validade_dias": 30})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "Percentage", resp.Details[0].Field)

	rec = env.do(t, h, http.MethodPut, "/cashback", map[string]any{"percentual": 8, "validade_dias": 30, "ativo": true})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsersEndpoints(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()
	env.automation.On("CreateUser", mock.Anything, mock.Anything).Return("user-9", nil)

	rec := env.do(t, h, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, h, http.MethodPost, "/users", map[string]string{"nome": "Carlos", "email": "carlos@c.com", "role": "admin"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-9", decodeBody[usecase.CreateUserOutput](t, rec).UserID)
}

func TestInstancesEndpoints(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()
	env.automation.On("CreateInstance", mock.Anything, mock.Anything).
		Return(&automation.InstanceOutput{InstanceID: "ext-1", Status: "CONNECTED"}, nil)
	env.automation.On("DeleteInstance", mock.Anything, "c1", "ext-1").Return(nil)

	rec := env.do(t, h, http.MethodPost, "/instances", map[string]string{"nome": "recepcao"})
	require.Equal(t, http.StatusCreated, rec.Code)
	inst := decodeBody[entity.Instance](t, rec)

	rec = env.do(t, h, http.MethodDelete, "/instances/"+inst.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, h, http.MethodDelete, "/instances/"+inst.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============ INFRA ============

func TestHealth(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, env.router.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "not configured", resp.Dependencies["rabbitmq"])

	env.router.Health.DB = fakePinger{err: errors.New("timeout")}
	rec = env.do(t, env.router.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv()
	h := env.router.Handler()
	env.do(t, h, http.MethodGet, "/health", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRateLimitedMutations(t *testing.T) {
	env := newTestEnv()
	env.router.Limiter = NewRateLimiter(2, time.Minute)
	h := env.router.Handler()

	for i := 0; i < 2; i++ {
		rec := env.do(t, h, http.MethodPost, "/funnels/1/board/end", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(t, h, http.MethodPost, "/funnels/1/board/end", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// leitura não passa pelo limitador
	rec = env.do(t, h, http.MethodGet, "/funnels/1/stages", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterRefillsAndCleansUp(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }
	rl.lastCleanup = now

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.1.1.1"))

	now = now.Add(11 * time.Minute)
	rl.Allow("3.3.3.3")
	assert.Len(t, rl.visitors, 1)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	assert.Equal(t, "10.0.0.1", getClientIP(req))
}

// TestRateLimitIgnoresForwardedHeaders - trocar o X-Forwarded-For não fura o limite
func TestRateLimitIgnoresForwardedHeaders(t *testing.T) {
	env := newTestEnv()
	env.router.Limiter = NewRateLimiter(2, time.Minute)
	h := env.router.Handler()

	post := func(i int) int {
		req := httptest.NewRequest(http.MethodPost, "/funnels/1/board/end", nil)
		req.Header.Set(middleware.ClinicHeader, "c1")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		req.RemoteAddr = "192.0.2.1:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post(1))
	assert.Equal(t, http.StatusOK, post(2))
	assert.Equal(t, http.StatusTooManyRequests, post(3))

	// atrás de proxy confiável cada cliente encaminhado tem seu próprio balde
	env.router.Limiter = NewRateLimiter(2, time.Minute)
	env.router.TrustProxy = true
	h = env.router.Handler()
	for i := 1; i <= 3; i++ {
		assert.Equal(t, http.StatusOK, post(i))
	}
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{usecase.ValidationErrors{{Field: "x", Message: "y"}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{&usecase.FetchError{Op: "funil", Err: entity.ErrFunnelNotFound}, http.StatusNotFound, "NOT_FOUND"},
		{&usecase.MutationError{Op: "mover lead", Detail: "x"}, http.StatusBadGateway, "MUTATION_ERROR"},
		{&usecase.FetchError{Op: "leads", Err: context.DeadlineExceeded}, http.StatusBadGateway, "FETCH_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, c.err)
		assert.Equal(t, c.status, rec.Code, c.code)
		assert.Equal(t, c.code, decodeBody[ErrorResponse](t, rec).Code)
	}
}
