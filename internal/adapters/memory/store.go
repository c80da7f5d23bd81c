package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// Store keeps portfolios and properties in process memory. It backs the
// "memory" storage driver and the HTTP tests. Not distributed.
type Store struct {
	mu            sync.RWMutex
	portfolios    map[int64]domain.Portfolio
	properties    map[int64]domain.Property
	nextPortfolio int64
	nextProperty  int64
	now           func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		portfolios: make(map[int64]domain.Portfolio),
		properties: make(map[int64]domain.Property),
		now:        time.Now,
	}
}

// Portfolios returns the store as a ports.PortfolioRepository.
func (s *Store) Portfolios() *PortfolioRepo { return &PortfolioRepo{s: s} }

// Properties returns the store as a ports.PropertyRepository.
func (s *Store) Properties() *PropertyRepo { return &PropertyRepo{s: s} }

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// PortfolioRepo implements ports.PortfolioRepository over a Store.
type PortfolioRepo struct{ s *Store }

func (r *PortfolioRepo) Create(ctx context.Context, p *domain.Portfolio) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextPortfolio++
	p.ID = r.s.nextPortfolio
	p.CreatedAt = r.s.now()
	r.s.portfolios[p.ID] = *p
	return nil
}

func (r *PortfolioRepo) GetByID(ctx context.Context, id int64) (*domain.Portfolio, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.portfolios[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *PortfolioRepo) List(ctx context.Context) ([]domain.Portfolio, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]domain.Portfolio, 0, len(r.s.portfolios))
	for _, p := range r.s.portfolios {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PortfolioRepo) Update(ctx context.Context, p *domain.Portfolio) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.portfolios[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	r.s.portfolios[p.ID] = *p
	return nil
}

// Delete removes the portfolio and every property that references it.
func (r *PortfolioRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.portfolios[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.portfolios, id)
	for pid, p := range r.s.properties {
		if p.PortfolioID == id {
			delete(r.s.properties, pid)
		}
	}
	return nil
}

// PropertyRepo implements ports.PropertyRepository over a Store.
type PropertyRepo struct{ s *Store }

func (r *PropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.insertLocked(p)
}

// CreateBatch stores all properties or none of them.
func (r *PropertyRepo) CreateBatch(ctx context.Context, props []domain.Property) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range props {
		if _, ok := r.s.portfolios[p.PortfolioID]; !ok {
			return nil, domain.ErrNotFound
		}
	}
	ids := make([]int64, 0, len(props))
	for i := range props {
		if err := r.insertLocked(&props[i]); err != nil {
			return nil, err
		}
		ids = append(ids, props[i].ID)
	}
	return ids, nil
}

func (r *PropertyRepo) insertLocked(p *domain.Property) error {
	if _, ok := r.s.portfolios[p.PortfolioID]; !ok {
		return domain.ErrNotFound
	}
	r.s.nextProperty++
	p.ID = r.s.nextProperty
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.properties[p.ID] = *p
	return nil
}

func (r *PropertyRepo) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.properties[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// List returns matching properties ordered by id.
func (r *PropertyRepo) List(ctx context.Context, f domain.PropertyFilter) ([]domain.Property, error) {
	r.s.mu.RLock()
	all := make([]domain.Property, 0, len(r.s.properties))
	for _, p := range r.s.properties {
		all = append(all, p)
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return f.Apply(all), nil
}

func (r *PropertyRepo) Update(ctx context.Context, p *domain.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.properties[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.s.portfolios[p.PortfolioID]; !ok {
		return domain.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.s.now()
	r.s.properties[p.ID] = *p
	return nil
}

func (r *PropertyRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.properties[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.properties, id)
	return nil
}

func (r *PropertyRepo) DeleteBatch(ctx context.Context, ids []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		delete(r.s.properties, id)
	}
	return nil
}
