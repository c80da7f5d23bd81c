package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/core/ports"
)

// --- Mock PortfolioRepository ---

type mockPortfolioRepo struct {
	createFn  func(ctx context.Context, p *domain.Portfolio) error
	getByIDFn func(ctx context.Context, id int64) (*domain.Portfolio, error)
	listFn    func(ctx context.Context) ([]domain.Portfolio, error)
	updateFn  func(ctx context.Context, p *domain.Portfolio) error
	deleteFn  func(ctx context.Context, id int64) error
}

func (m *mockPortfolioRepo) Create(ctx context.Context, p *domain.Portfolio) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	p.ID = 1
	return nil
}

func (m *mockPortfolioRepo) GetByID(ctx context.Context, id int64) (*domain.Portfolio, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Portfolio{ID: id, Name: "Default"}, nil
}

func (m *mockPortfolioRepo) List(ctx context.Context) ([]domain.Portfolio, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockPortfolioRepo) Update(ctx context.Context, p *domain.Portfolio) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockPortfolioRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock PropertyRepository ---

type mockPropertyRepo struct {
	createFn      func(ctx context.Context, p *domain.Property) error
	createBatchFn func(ctx context.Context, props []domain.Property) ([]int64, error)
	getByIDFn     func(ctx context.Context, id int64) (*domain.Property, error)
	listFn        func(ctx context.Context, f domain.PropertyFilter) ([]domain.Property, error)
	updateFn      func(ctx context.Context, p *domain.Property) error
	deleteFn      func(ctx context.Context, id int64) error
	deleteBatchFn func(ctx context.Context, ids []int64) error
}

func (m *mockPropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	p.ID = 1
	return nil
}

func (m *mockPropertyRepo) CreateBatch(ctx context.Context, props []domain.Property) ([]int64, error) {
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, props)
	}
	ids := make([]int64, len(props))
	for i := range props {
		ids[i] = int64(i + 1)
	}
	return ids, nil
}

func (m *mockPropertyRepo) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockPropertyRepo) List(ctx context.Context, f domain.PropertyFilter) ([]domain.Property, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}

func (m *mockPropertyRepo) Update(ctx context.Context, p *domain.Property) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, p)
	}
	return nil
}

func (m *mockPropertyRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPropertyRepo) DeleteBatch(ctx context.Context, ids []int64) error {
	if m.deleteBatchFn != nil {
		return m.deleteBatchFn(ctx, ids)
	}
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
	getErr  error
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.PropertyEvent
	err    error
}

func (m *mockPublisher) PublishPropertyEvent(ctx context.Context, e domain.PropertyEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func ptr[T any](v T) *T { return &v }

func validCandidate() domain.PropertyCandidate {
	return domain.PropertyCandidate{
		PortfolioID:        ptr(int64(1)),
		Name:               ptr("Storgata 1"),
		Address:            ptr("Storgata 1"),
		ZipCode:            ptr("0155"),
		City:               ptr("Oslo"),
		Location:           &domain.GeoPoint{Lat: 59.9139, Lon: 10.7522},
		EstimatedValue:     ptr(int64(15_000_000)),
		RelevantRisks:      ptr(10),
		HandledRisks:       ptr(4),
		TotalFinancialRisk: ptr(int64(250_000)),
	}
}
