package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/metrics"
	"golang.org/x/sync/singleflight"
)

const DefaultLeadTTL = 30 * time.Second

// Query é a tupla completa que identifica um conjunto de leads em cache.
// Qualquer campo diferente é outra entrada.
type Query struct {
	ClinicID string
	FunnelID int64
	Mode     entity.PresentationMode
	Page     int
	PageSize int
	Search   string
	Sort     entity.LeadSort
	StageIDs []int64
}

func (q Query) Key() string {
	ids := make([]string, len(q.StageIDs))
	for i, id := range q.StageIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s|%d|%s|%d|%d|%s|%s|%s",
		q.ClinicID, q.FunnelID, q.Mode, q.Page, q.PageSize,
		strings.ToLower(q.Search), q.Sort, strings.Join(ids, ","))
}

// Filter traduz a query para o repositório. Só o modo lista pagina.
func (q Query) Filter() entity.LeadFilter {
	f := entity.LeadFilter{
		ClinicID: q.ClinicID,
		StageIDs: q.StageIDs,
		Search:   q.Search,
		Sort:     q.Sort,
	}
	if q.Mode == entity.ModeList && q.PageSize > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		f.Limit = q.PageSize
		f.Offset = (page - 1) * q.PageSize
	}
	return f
}

// Page: Total só vem preenchido no modo lista.
type Page struct {
	Leads []entity.Lead `json:"leads"`
	Total *int          `json:"total_count,omitempty"`
}

type LeadCache struct {
	repo entity.LeadRepositoryInterface
	ttl  time.Duration
	now  func() time.Time

	mu        sync.Mutex
	entries   map[string]*leadEntry
	inflight  map[string]*fetchGen
	lastSweep time.Time
	flight    singleflight.Group
}

type leadEntry struct {
	page      Page
	fetchedAt time.Time
}

// fetchGen existe só enquanto há busca em voo para a chave. Invalidar
// incrementa gen e a busca em andamento não grava o resultado.
type fetchGen struct {
	gen     uint64
	waiters int
}

func NewLeadCache(repo entity.LeadRepositoryInterface, ttl time.Duration) *LeadCache {
	if ttl <= 0 {
		ttl = DefaultLeadTTL
	}
	return &LeadCache{
		repo:     repo,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*leadEntry),
		inflight: make(map[string]*fetchGen),
	}
}

func (c *LeadCache) List(ctx context.Context, q Query) (Page, error) {
	if len(q.StageIDs) == 0 {
		return emptyPage(q.Mode), nil
	}

	key := q.Key()

	c.mu.Lock()
	now := c.now()
	c.sweepLocked(now)
	e, ok := c.entries[key]
	if ok && now.Sub(e.fetchedAt) < c.ttl {
		page := clonePage(e.page)
		c.mu.Unlock()
		metrics.RecordCacheLookup("leads", true)
		return page, nil
	}
	delete(c.entries, key)
	fg, ok := c.inflight[key]
	if !ok {
		fg = &fetchGen{}
		c.inflight[key] = fg
	}
	fg.waiters++
	gen := fg.gen
	c.mu.Unlock()
	metrics.RecordCacheLookup("leads", false)

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		page, err := c.fetch(ctx, q)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// invalidado durante a busca: devolve o resultado mas não guarda
		if fg.gen == gen {
			c.entries[key] = &leadEntry{page: page, fetchedAt: c.now()}
		}
		c.mu.Unlock()
		return page, nil
	})

	c.mu.Lock()
	if fg.waiters--; fg.waiters == 0 {
		delete(c.inflight, key)
	}
	c.mu.Unlock()

	if err != nil {
		return Page{}, err
	}
	return clonePage(v.(Page)), nil
}

// sweepLocked remove as entradas expiradas, no máximo uma vez por TTL.
func (c *LeadCache) sweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < c.ttl {
		return
	}
	c.lastSweep = now
	for key, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *LeadCache) fetch(ctx context.Context, q Query) (Page, error) {
	filter := q.Filter()

	leads, err := c.repo.List(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("leads: %w", err)
	}
	if leads == nil {
		leads = []entity.Lead{}
	}

	page := Page{Leads: leads}
	if q.Mode == entity.ModeList {
		total, err := c.repo.Count(ctx, filter)
		if err != nil {
			return Page{}, fmt.Errorf("contagem de leads: %w", err)
		}
		page.Total = &total
	}
	return page, nil
}

// Peek devolve o conjunto em cache sem ir ao banco. Uma entrada expirada
// continua visível até a próxima varredura.
func (c *LeadCache) Peek(q Query) ([]entity.Lead, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[q.Key()]
	if !ok {
		return nil, false
	}
	return clonePage(e.page).Leads, true
}

// SetLeadStage rewrites the cached lead in place and returns its previous
// stage. ok is false when the lead is not in the cached set.
func (c *LeadCache) SetLeadStage(q Query, leadID int64, stageID *int64) (prev *int64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[q.Key()]
	if !found {
		return nil, false
	}
	for i := range e.page.Leads {
		if e.page.Leads[i].ID == leadID {
			prev = e.page.Leads[i].StageID
			e.page.Leads[i].StageID = cloneID(stageID)
			return prev, true
		}
	}
	return nil, false
}

// RestoreLeadStage puts prev back only while the cached value is still
// expected, so a newer write to the same lead is never clobbered.
func (c *LeadCache) RestoreLeadStage(q Query, leadID int64, expected, prev *int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[q.Key()]
	if !found {
		return false
	}
	for i := range e.page.Leads {
		l := &e.page.Leads[i]
		if l.ID != leadID {
			continue
		}
		if !sameID(l.StageID, expected) {
			return false
		}
		l.StageID = cloneID(prev)
		return true
	}
	return false
}

func (c *LeadCache) Invalidate(q Query) {
	key := q.Key()
	c.mu.Lock()
	delete(c.entries, key)
	if fg, ok := c.inflight[key]; ok {
		fg.gen++
	}
	c.mu.Unlock()
}

// InvalidateClinic drops every cached set of the clinic.
func (c *LeadCache) InvalidateClinic(clinicID string) {
	prefix := clinicID + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	for key, fg := range c.inflight {
		if strings.HasPrefix(key, prefix) {
			fg.gen++
		}
	}
	c.sweepLocked(c.now())
}

func emptyPage(mode entity.PresentationMode) Page {
	p := Page{Leads: []entity.Lead{}}
	if mode == entity.ModeList {
		zero := 0
		p.Total = &zero
	}
	return p
}

func clonePage(p Page) Page {
	out := Page{Leads: make([]entity.Lead, len(p.Leads))}
	copy(out.Leads, p.Leads)
	for i := range out.Leads {
		out.Leads[i].StageID = cloneID(out.Leads[i].StageID)
	}
	if p.Total != nil {
		t := *p.Total
		out.Total = &t
	}
	return out
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
