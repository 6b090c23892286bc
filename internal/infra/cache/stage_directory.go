package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/metrics"
	"golang.org/x/sync/singleflight"
)

const DefaultStageTTL = 5 * time.Minute

// StageDirectory guarda as etapas ordenadas de cada funil por uma janela de
// frescor. Consumidores toleram uma lista levemente desatualizada.
type StageDirectory struct {
	repo entity.StageRepositoryInterface
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[int64]stageEntry
	names   map[int64]string
	flight  singleflight.Group
}

type stageEntry struct {
	stages    []entity.Stage
	fetchedAt time.Time
}

func NewStageDirectory(repo entity.StageRepositoryInterface, ttl time.Duration) *StageDirectory {
	if ttl <= 0 {
		ttl = DefaultStageTTL
	}
	return &StageDirectory{
		repo:    repo,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int64]stageEntry),
		names:   make(map[int64]string),
	}
}

// ListStages returns the funnel stages ordered by rank. A funnel without
// stages yields an empty, non-nil slice.
func (d *StageDirectory) ListStages(ctx context.Context, funnelID int64) ([]entity.Stage, error) {
	d.mu.RLock()
	e, ok := d.entries[funnelID]
	d.mu.RUnlock()

	if ok && d.now().Sub(e.fetchedAt) < d.ttl {
		metrics.RecordCacheLookup("stages", true)
		return cloneStages(e.stages), nil
	}
	metrics.RecordCacheLookup("stages", false)

	v, err, _ := d.flight.Do(strconv.FormatInt(funnelID, 10), func() (interface{}, error) {
		stages, err := d.repo.ListByFunnel(ctx, funnelID)
		if err != nil {
			return nil, fmt.Errorf("etapas do funil %d: %w", funnelID, err)
		}
		if stages == nil {
			stages = []entity.Stage{}
		}
		entity.SortStages(stages)

		d.mu.Lock()
		d.entries[funnelID] = stageEntry{stages: stages, fetchedAt: d.now()}
		for _, s := range stages {
			d.names[s.ID] = s.Name
		}
		d.mu.Unlock()
		return stages, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneStages(v.([]entity.Stage)), nil
}

// ResolveStageName never fails: ids outside every cached funnel resolve to
// entity.UnknownStageName.
func (d *StageDirectory) ResolveStageName(stageID int64) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if name, ok := d.names[stageID]; ok {
		return name
	}
	return entity.UnknownStageName
}

func (d *StageDirectory) Invalidate(funnelID int64) {
	d.mu.Lock()
	delete(d.entries, funnelID)
	d.mu.Unlock()
}

func cloneStages(in []entity.Stage) []entity.Stage {
	out := make([]entity.Stage, len(in))
	copy(out, in)
	return out
}
