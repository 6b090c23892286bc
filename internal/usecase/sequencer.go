package usecase

import (
	"context"
	"sync"
)

// leadSequencer enfileira os comandos de um mesmo lead na ordem em que os
// drops chegaram. Leads diferentes não se bloqueiam.
type leadSequencer struct {
	mu    sync.Mutex
	lanes map[int64]*lane
}

// lane guarda a fila de um lead e a última etapa que o servidor confirmou.
// confirmed só muda por confirm, nunca pelo valor otimista do cache.
type lane struct {
	tail      *ticket
	confirmed *int64
}

type ticket struct {
	prev chan struct{}
	done chan struct{}
}

func newLeadSequencer() *leadSequencer {
	return &leadSequencer{lanes: make(map[int64]*lane)}
}

// enqueue reserves the next slot for leadID. current seeds the confirmed
// stage when no command for the lead is pending. The caller must call wait
// and then release exactly once.
func (s *leadSequencer) enqueue(leadID int64, current *int64) *ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &ticket{done: make(chan struct{})}
	l, ok := s.lanes[leadID]
	if !ok {
		l = &lane{confirmed: cloneStage(current)}
		s.lanes[leadID] = l
	} else {
		t.prev = l.tail.done
	}
	l.tail = t
	return t
}

// latest reports whether no newer drop was enqueued for leadID after t.
func (s *leadSequencer) latest(leadID int64, t *ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lanes[leadID]
	return ok && l.tail == t
}

// confirmed devolve a última etapa aceita pelo servidor para o lead.
func (s *leadSequencer) confirmed(leadID int64) *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lanes[leadID]; ok {
		return cloneStage(l.confirmed)
	}
	return nil
}

func (s *leadSequencer) confirm(leadID int64, stageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.lanes[leadID]; ok {
		l.confirmed = &stageID
	}
}

func (s *leadSequencer) wait(ctx context.Context, t *ticket) error {
	if t.prev == nil {
		return nil
	}
	select {
	case <-t.prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release libera o próximo da fila. Se o anterior ainda não terminou (ctx
// cancelado no wait), a liberação espera por ele para não furar a ordem.
func (s *leadSequencer) release(leadID int64, t *ticket) {
	finish := func() {
		s.mu.Lock()
		if l, ok := s.lanes[leadID]; ok && l.tail == t {
			delete(s.lanes, leadID)
		}
		s.mu.Unlock()
		close(t.done)
	}

	if t.prev == nil {
		finish()
		return
	}
	select {
	case <-t.prev:
		finish()
	default:
		go func() {
			<-t.prev
			finish()
		}()
	}
}

func cloneStage(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
