package ports

import (
	"context"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// PortfolioRepository persists portfolios.
type PortfolioRepository interface {
	Create(ctx context.Context, p *domain.Portfolio) error
	GetByID(ctx context.Context, id int64) (*domain.Portfolio, error)
	List(ctx context.Context) ([]domain.Portfolio, error)
	Update(ctx context.Context, p *domain.Portfolio) error
	Delete(ctx context.Context, id int64) error
}

// PropertyRepository is the spatial store for properties. Implementations
// return domain.ErrNotFound for missing ids.
type PropertyRepository interface {
	Create(ctx context.Context, p *domain.Property) error
	CreateBatch(ctx context.Context, props []domain.Property) ([]int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
	List(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error)
	Update(ctx context.Context, p *domain.Property) error
	Delete(ctx context.Context, id int64) error
	DeleteBatch(ctx context.Context, ids []int64) error
}
