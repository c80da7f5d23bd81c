package workflows

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/geoportfolio/internal/adapters/geojson"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/core/usecases"
)

// ImportActivities holds the activity implementations for the import workflow.
type ImportActivities struct {
	Properties *usecases.PropertyService
}

// ValidationReport splits a batch into storable records and per-index errors.
type ValidationReport struct {
	Valid    []domain.Property           `json:"valid"`
	Rejected map[int]map[string][]string `json:"rejected"`
}

// ValidateFeatures decodes and validates every feature. Invalid features are
// reported, not returned as errors, so the valid ones can still be stored.
func (a *ImportActivities) ValidateFeatures(ctx context.Context, features []json.RawMessage) (ValidationReport, error) {
	candidates := make([]domain.PropertyCandidate, len(features))
	for i, raw := range features {
		c, err := geojson.DecodeFeature(raw)
		if err != nil {
			ve, ok := domain.AsValidationErrors(err)
			if !ok {
				return ValidationReport{}, fmt.Errorf("decode feature %d: %w", i, err)
			}
			c.DecodeErrors = append(c.DecodeErrors, ve...)
		}
		candidates[i] = c
	}

	valid, rejected, err := a.Properties.ValidateBatch(ctx, candidates)
	if err != nil {
		return ValidationReport{}, fmt.Errorf("validate features: %w", err)
	}

	report := ValidationReport{Valid: valid, Rejected: make(map[int]map[string][]string, len(rejected))}
	for i, ve := range rejected {
		report.Rejected[i] = ve.ByKey()
	}
	activity.GetLogger(ctx).Info("features validated", "valid", len(valid), "rejected", len(rejected))
	return report, nil
}

// StoreProperties inserts the validated records and returns their ids in order.
func (a *ImportActivities) StoreProperties(ctx context.Context, props []domain.Property) ([]int64, error) {
	ids, err := a.Properties.StoreBatch(ctx, props)
	if err != nil {
		return nil, fmt.Errorf("store properties: %w", err)
	}
	return ids, nil
}

// PublishImported emits a created event per stored record.
func (a *ImportActivities) PublishImported(ctx context.Context, props []domain.Property) error {
	return a.Properties.PublishCreated(ctx, props)
}

// DeleteProperties removes stored records (saga compensation / rollback).
func (a *ImportActivities) DeleteProperties(ctx context.Context, ids []int64) error {
	if err := a.Properties.DeleteBatch(ctx, ids); err != nil {
		return fmt.Errorf("delete properties: %w", err)
	}
	activity.GetLogger(ctx).Info("imported properties rolled back", "count", len(ids))
	return nil
}
