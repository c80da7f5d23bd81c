package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/core/usecases"
)

func TestPortfolioService_Create(t *testing.T) {
	var stored *domain.Portfolio
	repo := &mockPortfolioRepo{
		createFn: func(ctx context.Context, p *domain.Portfolio) error {
			p.ID = 7
			stored = p
			return nil
		},
	}
	svc := usecases.NewPortfolioService(repo, &mockPropertyRepo{}, nil)

	p, err := svc.Create(context.Background(), ptr("  Nordic Offices  "))
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Nordic Offices", p.Name)
	assert.Same(t, stored, p)
}

func TestPortfolioService_Create_Invalid(t *testing.T) {
	called := false
	repo := &mockPortfolioRepo{
		createFn: func(ctx context.Context, p *domain.Portfolio) error {
			called = true
			return nil
		},
	}
	svc := usecases.NewPortfolioService(repo, &mockPropertyRepo{}, nil)

	_, err := svc.Create(context.Background(), nil)
	ve, ok := domain.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, ve.Has("name"))
	assert.False(t, called, "repository must not be reached")
}

func TestPortfolioService_GetByID_UsesCache(t *testing.T) {
	calls := 0
	repo := &mockPortfolioRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Portfolio, error) {
			calls++
			return &domain.Portfolio{ID: id, Name: "Cached"}, nil
		},
	}
	svc := usecases.NewPortfolioService(repo, &mockPropertyRepo{}, newMockCache())

	for i := 0; i < 3; i++ {
		p, err := svc.GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "Cached", p.Name)
	}
	assert.Equal(t, 1, calls)
}

func TestPortfolioService_GetByID_CacheDown(t *testing.T) {
	calls := 0
	repo := &mockPortfolioRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Portfolio, error) {
			calls++
			return &domain.Portfolio{ID: id, Name: "Direct"}, nil
		},
	}
	cache := newMockCache()
	cache.getErr = errors.New("connection refused")
	svc := usecases.NewPortfolioService(repo, &mockPropertyRepo{}, cache)

	for i := 0; i < 2; i++ {
		p, err := svc.GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "Direct", p.Name)
	}
	assert.Equal(t, 2, calls)
}

func TestPortfolioService_GetByID_CorruptEntry(t *testing.T) {
	repo := &mockPortfolioRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Portfolio, error) {
			return &domain.Portfolio{ID: id, Name: "Fresh"}, nil
		},
	}
	cache := newMockCache()
	cache.data["portfolios:id:3"] = []byte("{not json")
	svc := usecases.NewPortfolioService(repo, &mockPropertyRepo{}, cache)

	p, err := svc.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", p.Name)
	assert.JSONEq(t, `{"id":3,"name":"Fresh"}`, string(cache.data["portfolios:id:3"]))
}

func TestPortfolioService_Update_NotFound(t *testing.T) {
	repo := &mockPortfolioRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Portfolio, error) {
			return nil, domain.ErrNotFound
		},
	}
	svc := usecases.NewPortfolioService(repo, &mockPropertyRepo{}, nil)

	_, err := svc.Update(context.Background(), 99, ptr("x"))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPortfolioService_Update_InvalidatesCache(t *testing.T) {
	cache := newMockCache()
	svc := usecases.NewPortfolioService(&mockPortfolioRepo{}, &mockPropertyRepo{}, cache)

	_, err := svc.GetByID(context.Background(), 2)
	require.NoError(t, err)

	p, err := svc.Update(context.Background(), 2, ptr("Renamed"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)
	assert.Contains(t, cache.deleted, "portfolios:id:2")
}

func TestPortfolioService_Delete(t *testing.T) {
	var deleted int64
	repo := &mockPortfolioRepo{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = id
			return nil
		},
	}
	svc := usecases.NewPortfolioService(repo, &mockPropertyRepo{}, nil)

	require.NoError(t, svc.Delete(context.Background(), 5))
	assert.Equal(t, int64(5), deleted)
}

func TestPortfolioService_Delete_InvalidatesOwnedProperties(t *testing.T) {
	cache := newMockCache()
	props := &mockPropertyRepo{
		listFn: func(ctx context.Context, f domain.PropertyFilter) ([]domain.Property, error) {
			require.NotNil(t, f.PortfolioID)
			assert.Equal(t, int64(4), *f.PortfolioID)
			return []domain.Property{{ID: 10}, {ID: 11}}, nil
		},
	}
	svc := usecases.NewPortfolioService(&mockPortfolioRepo{}, props, cache)

	require.NoError(t, svc.Delete(context.Background(), 4))
	assert.ElementsMatch(t, []string{"portfolios:id:4", "properties:id:10", "properties:id:11"}, cache.deleted)
}

func TestPortfolioService_Delete_NotFound(t *testing.T) {
	repo := &mockPortfolioRepo{
		deleteFn: func(ctx context.Context, id int64) error { return domain.ErrNotFound },
	}
	svc := usecases.NewPortfolioService(repo, &mockPropertyRepo{}, newMockCache())

	assert.ErrorIs(t, svc.Delete(context.Background(), 4), domain.ErrNotFound)
}
