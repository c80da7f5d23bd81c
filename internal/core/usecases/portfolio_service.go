package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/core/ports"
	"github.com/samirrijal/geoportfolio/internal/pkg/metrics"
)

// PortfolioService handles portfolio-related business logic.
type PortfolioService struct {
	portfolios ports.PortfolioRepository
	properties ports.PropertyRepository
	cache      ports.CacheService
}

// NewPortfolioService creates a new PortfolioService. cache may be nil.
func NewPortfolioService(portfolios ports.PortfolioRepository, properties ports.PropertyRepository, cache ports.CacheService) *PortfolioService {
	return &PortfolioService{portfolios: portfolios, properties: properties, cache: cache}
}

func portfolioCacheKey(id int64) string {
	return fmt.Sprintf("portfolios:id:%d", id)
}

// List returns all portfolios ordered by id.
func (s *PortfolioService) List(ctx context.Context) ([]domain.Portfolio, error) {
	return s.portfolios.List(ctx)
}

// GetByID returns a single portfolio.
func (s *PortfolioService) GetByID(ctx context.Context, id int64) (*domain.Portfolio, error) {
	return readThrough(ctx, s.cache, "portfolio", portfolioCacheKey(id), func(ctx context.Context) (*domain.Portfolio, error) {
		return s.portfolios.GetByID(ctx, id)
	})
}

// Create validates and stores a new portfolio.
func (s *PortfolioService) Create(ctx context.Context, name *string) (*domain.Portfolio, error) {
	clean, err := domain.ValidatePortfolio(name)
	if err != nil {
		countValidationFailures(err)
		return nil, err
	}
	p := &domain.Portfolio{Name: clean}
	if err := s.portfolios.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create portfolio: %w", err)
	}
	return p, nil
}

// Update replaces the portfolio's fields.
func (s *PortfolioService) Update(ctx context.Context, id int64, name *string) (*domain.Portfolio, error) {
	if _, err := s.portfolios.GetByID(ctx, id); err != nil {
		return nil, err
	}
	clean, err := domain.ValidatePortfolio(name)
	if err != nil {
		countValidationFailures(err)
		return nil, err
	}
	p := &domain.Portfolio{ID: id, Name: clean}
	if err := s.portfolios.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, portfolioCacheKey(id))
	return p, nil
}

// Delete removes a portfolio. Its properties go with it, so their cached
// copies are dropped as well.
func (s *PortfolioService) Delete(ctx context.Context, id int64) error {
	var owned []domain.Property
	if s.cache != nil {
		var err error
		owned, err = s.properties.List(ctx, domain.PropertyFilter{PortfolioID: &id})
		if err != nil {
			return fmt.Errorf("list portfolio properties: %w", err)
		}
	}

	if err := s.portfolios.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, portfolioCacheKey(id))
	for _, p := range owned {
		s.invalidate(ctx, propertyCacheKey(p.ID))
	}
	return nil
}

func (s *PortfolioService) invalidate(ctx context.Context, key string) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, key)
	}
}

// countValidationFailures records one failure per offending error key.
func countValidationFailures(err error) {
	ve, ok := domain.AsValidationErrors(err)
	if !ok {
		return
	}
	for key := range ve.ByKey() {
		metrics.ValidationFailures.WithLabelValues(key).Inc()
	}
}
