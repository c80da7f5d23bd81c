package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/core/ports"
	"github.com/samirrijal/geoportfolio/internal/pkg/logging"
	"github.com/samirrijal/geoportfolio/internal/pkg/metrics"
)

// PropertyService handles property validation, querying and persistence.
type PropertyService struct {
	properties ports.PropertyRepository
	portfolios ports.PortfolioRepository
	cache      ports.CacheService
	events     ports.EventPublisher
	rules      domain.Rules
}

// NewPropertyService creates a new PropertyService. cache and events may be nil.
func NewPropertyService(
	properties ports.PropertyRepository,
	portfolios ports.PortfolioRepository,
	cache ports.CacheService,
	events ports.EventPublisher,
	rules domain.Rules,
) *PropertyService {
	return &PropertyService{
		properties: properties,
		portfolios: portfolios,
		cache:      cache,
		events:     events,
		rules:      rules,
	}
}

func propertyCacheKey(id int64) string {
	return fmt.Sprintf("properties:id:%d", id)
}

// List returns the properties matching every constraint in filter.
func (s *PropertyService) List(ctx context.Context, filter domain.PropertyFilter) ([]domain.Property, error) {
	if filter.MatchesNothing() {
		return []domain.Property{}, nil
	}
	props, err := s.properties.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	if props == nil {
		props = []domain.Property{}
	}
	return props, nil
}

// GetByID returns a single property.
func (s *PropertyService) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	return readThrough(ctx, s.cache, "property", propertyCacheKey(id), func(ctx context.Context) (*domain.Property, error) {
		return s.properties.GetByID(ctx, id)
	})
}

// Validate runs the validation engine, including the portfolio reference check.
func (s *PropertyService) Validate(ctx context.Context, c domain.PropertyCandidate) (domain.Property, error) {
	if c.PortfolioID != nil && *c.PortfolioID > 0 && !c.DecodeErrors.Has("portfolio") {
		_, err := s.portfolios.GetByID(ctx, *c.PortfolioID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.DecodeErrors.AddField("portfolio", fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(*c.PortfolioID)))
		case err != nil:
			return domain.Property{}, fmt.Errorf("lookup portfolio: %w", err)
		}
	}

	p, err := domain.ValidateProperty(c, s.rules)
	if err != nil {
		countValidationFailures(err)
		return domain.Property{}, err
	}
	return p, nil
}

// Create validates and stores a new property.
func (s *PropertyService) Create(ctx context.Context, c domain.PropertyCandidate) (*domain.Property, error) {
	p, err := s.Validate(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := s.properties.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("create property: %w", err)
	}
	metrics.PropertyWrites.WithLabelValues(string(domain.PropertyCreated)).Inc()
	s.publish(ctx, domain.PropertyCreated, p)
	return &p, nil
}

// Update replaces every field of an existing property.
func (s *PropertyService) Update(ctx context.Context, id int64, c domain.PropertyCandidate) (*domain.Property, error) {
	existing, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.Validate(ctx, c)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	if err := s.properties.Update(ctx, &p); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	metrics.PropertyWrites.WithLabelValues(string(domain.PropertyUpdated)).Inc()
	s.publish(ctx, domain.PropertyUpdated, p)
	return &p, nil
}

// Delete removes a property.
func (s *PropertyService) Delete(ctx context.Context, id int64) error {
	existing, err := s.properties.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.properties.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	metrics.PropertyWrites.WithLabelValues(string(domain.PropertyDeleted)).Inc()
	s.publish(ctx, domain.PropertyDeleted, *existing)
	return nil
}

// ImportResult reports the outcome of a bulk import.
type ImportResult struct {
	Created []int64                         `json:"created"`
	Errors  map[int]domain.ValidationErrors `json:"-"`
}

// Rejected returns the number of features that failed validation.
func (r ImportResult) Rejected() int { return len(r.Errors) }

// ValidateBatch validates each candidate and returns the accepted records
// along with the errors keyed by input index.
func (s *PropertyService) ValidateBatch(ctx context.Context, candidates []domain.PropertyCandidate) ([]domain.Property, map[int]domain.ValidationErrors, error) {
	valid := make([]domain.Property, 0, len(candidates))
	rejected := make(map[int]domain.ValidationErrors)
	for i, c := range candidates {
		p, err := s.Validate(ctx, c)
		if err != nil {
			ve, ok := domain.AsValidationErrors(err)
			if !ok {
				return nil, nil, err
			}
			rejected[i] = ve
			continue
		}
		valid = append(valid, p)
	}
	return valid, rejected, nil
}

// StoreBatch persists already validated properties in one round trip.
func (s *PropertyService) StoreBatch(ctx context.Context, props []domain.Property) ([]int64, error) {
	if len(props) == 0 {
		return []int64{}, nil
	}
	ids, err := s.properties.CreateBatch(ctx, props)
	if err != nil {
		return nil, fmt.Errorf("store batch: %w", err)
	}
	metrics.PropertiesImported.Add(float64(len(ids)))
	return ids, nil
}

// DeleteBatch removes the given properties.
func (s *PropertyService) DeleteBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.properties.DeleteBatch(ctx, ids); err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	for _, id := range ids {
		s.invalidate(ctx, id)
	}
	return nil
}

// PublishCreated announces already stored properties. Unlike the single-record
// writes, failures are returned to the caller.
func (s *PropertyService) PublishCreated(ctx context.Context, props []domain.Property) error {
	if s.events == nil {
		return nil
	}
	for _, p := range props {
		event := domain.PropertyEvent{Action: domain.PropertyCreated, Property: p, OccurredAt: time.Now().UTC()}
		if err := s.events.PublishPropertyEvent(ctx, event); err != nil {
			metrics.EventPublishErrors.Inc()
			return fmt.Errorf("publish property %d: %w", p.ID, err)
		}
	}
	return nil
}

// ImportFeatures validates and stores a collection synchronously. Valid
// records are stored even when others are rejected.
func (s *PropertyService) ImportFeatures(ctx context.Context, candidates []domain.PropertyCandidate) (ImportResult, error) {
	valid, rejected, err := s.ValidateBatch(ctx, candidates)
	if err != nil {
		return ImportResult{}, err
	}
	ids, err := s.StoreBatch(ctx, valid)
	if err != nil {
		return ImportResult{}, err
	}
	for i := range valid {
		valid[i].ID = ids[i]
	}
	if err := s.PublishCreated(ctx, valid); err != nil {
		logging.FromContext(ctx).Warn("import events not published", "error", err)
	}
	return ImportResult{Created: ids, Errors: rejected}, nil
}

func (s *PropertyService) invalidate(ctx context.Context, id int64) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, propertyCacheKey(id))
	}
}

// publish is best effort: the write already succeeded.
func (s *PropertyService) publish(ctx context.Context, action domain.PropertyAction, p domain.Property) {
	if s.events == nil {
		return
	}
	event := domain.PropertyEvent{Action: action, Property: p, OccurredAt: time.Now().UTC()}
	if err := s.events.PublishPropertyEvent(ctx, event); err != nil {
		metrics.EventPublishErrors.Inc()
		logging.FromContext(ctx).Warn("property event not published",
			"action", action, "property_id", p.ID, "error", err)
	}
}
