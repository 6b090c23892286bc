package kanban

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultSessionTTL = 30 * time.Minute

// Registry mantém uma Session por operador, clínica e funil.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func sessionKey(clinicID, operatorID string, funnelID int64) string {
	return fmt.Sprintf("%s|%s|%d", clinicID, operatorID, funnelID)
}

// Session devolve a sessão existente ou cria uma nova em Idle.
func (r *Registry) Session(clinicID, operatorID string, funnelID int64) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := sessionKey(clinicID, operatorID, funnelID)
	if s, ok := r.sessions[key]; ok {
		return s
	}
	s := NewSession(clinicID, funnelID)
	s.now = r.now
	s.lastSeen = r.now()
	r.sessions[key] = s
	return s
}

// Peek não cria sessão.
func (r *Registry) Peek(clinicID, operatorID string, funnelID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionKey(clinicID, operatorID, funnelID)]
	return s, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep remove sessões paradas há mais que o ttl. Sessões em Committing ficam.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	removed := 0
	for key, s := range r.sessions {
		last, idle := s.idleSince()
		if idle && now.Sub(last) > r.ttl {
			delete(r.sessions, key)
			removed++
		}
	}
	return removed
}

// Run varre periodicamente até o ctx ser cancelado.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				zap.L().Debug("drag sessions expired", zap.Int("count", n))
			}
		}
	}
}
