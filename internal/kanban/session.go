package kanban

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

var (
	ErrDragInProgress = errors.New("já existe um lead sendo arrastado")
	ErrNotDragging    = errors.New("nenhum lead sendo arrastado")
)

type State string

const (
	StateIdle       State = "idle"
	StateDragging   State = "dragging"
	StateHovering   State = "hovering"
	StateCommitting State = "committing"
)

// Mover é quem aplica o drop (o controlador de reconciliação).
type Mover interface {
	Execute(ctx context.Context, input usecase.MoveLeadInput) (*usecase.MoveLeadOutput, error)
}

// Snapshot é o estado visível do quadro: card arrastado e coluna destacada.
type Snapshot struct {
	State          State  `json:"state"`
	DragData       string `json:"drag_data,omitempty"`
	HoveredStageID *int64 `json:"hovered_stage_id,omitempty"`
}

// Session guarda o arrasto de um operador num quadro. Um arrasto por vez.
type Session struct {
	ClinicID string
	FunnelID int64

	mu       sync.Mutex
	state    State
	dragData string
	hovered  *int64
	lastSeen time.Time
	now      func() time.Time
}

func NewSession(clinicID string, funnelID int64) *Session {
	s := &Session{ClinicID: clinicID, FunnelID: funnelID, state: StateIdle, now: time.Now}
	s.lastSeen = s.now()
	return s
}

func (s *Session) DragStart(leadID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.state != StateIdle {
		return ErrDragInProgress
	}
	s.dragData = strconv.FormatInt(leadID, 10)
	s.hovered = nil
	s.state = StateDragging
	return nil
}

// DragEnter destaca a coluna; pode ser chamado várias vezes durante o arrasto.
func (s *Session) DragEnter(stageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.state != StateDragging && s.state != StateHovering {
		return ErrNotDragging
	}
	id := stageID
	s.hovered = &id
	s.state = StateHovering
	return nil
}

// DragEnd cancela o arrasto sem drop.
func (s *Session) DragEnd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.state == StateCommitting {
		return
	}
	s.reset()
}

type DropInput struct {
	Data          string // vazio = usa o drag-data da sessão
	TargetStageID int64
	Search        string
	Sort          string
}

// Drop lê o id do lead do drag-data e entrega para o Mover. A sessão fica em
// Committing durante a chamada e volta para Idle no fim, com ou sem erro.
func (s *Session) Drop(ctx context.Context, mover Mover, input DropInput) (*usecase.MoveLeadOutput, error) {
	s.mu.Lock()
	s.touch()
	if s.state != StateDragging && s.state != StateHovering {
		s.mu.Unlock()
		return nil, ErrNotDragging
	}
	data := input.Data
	if data == "" {
		data = s.dragData
	}
	s.hovered = nil
	s.state = StateCommitting
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reset()
		s.mu.Unlock()
	}()

	return mover.Execute(ctx, usecase.MoveLeadInput{
		ClinicID:      s.ClinicID,
		FunnelID:      s.FunnelID,
		Search:        input.Search,
		Sort:          entity.ParseLeadSort(input.Sort),
		DragData:      data,
		TargetStageID: input.TargetStageID,
	})
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{State: s.state, DragData: s.dragData}
	if s.hovered != nil {
		id := *s.hovered
		snap.HoveredStageID = &id
	}
	return snap
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, s.state != StateCommitting
}

func (s *Session) touch() {
	s.lastSeen = s.now()
}

func (s *Session) reset() {
	s.state = StateIdle
	s.dragData = ""
	s.hovered = nil
}
