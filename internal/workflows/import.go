package workflows

import (
	"time"

	json "github.com/goccy/go-json"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// DefaultTaskQueue is the queue the import worker polls.
const DefaultTaskQueue = "property-import"

// ImportInput is the input for the import workflow.
type ImportInput struct {
	Source   string            `json:"source"`
	Features []json.RawMessage `json:"features"`
}

// ImportSummary is the result of the import workflow.
type ImportSummary struct {
	Created  []int64                     `json:"created"`
	Rejected map[int]map[string][]string `json:"rejected,omitempty"`
}

// ImportWorkflow validates a feature collection, stores the valid records in
// one batch and announces them. If announcing fails, the stored records are
// deleted again (saga compensation).
func ImportWorkflow(ctx workflow.Context, input ImportInput) (ImportSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting import workflow", "source", input.Source, "features", len(input.Features))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Validate
	var report ValidationReport
	if err := workflow.ExecuteActivity(ctx, "ValidateFeatures", input.Features).Get(ctx, &report); err != nil {
		return ImportSummary{}, err
	}
	summary := ImportSummary{Created: []int64{}, Rejected: report.Rejected}
	if len(report.Valid) == 0 {
		logger.Info("Nothing to import", "rejected", len(report.Rejected))
		return summary, nil
	}

	// Step 2: Store
	var ids []int64
	if err := workflow.ExecuteActivity(ctx, "StoreProperties", report.Valid).Get(ctx, &ids); err != nil {
		return ImportSummary{}, err
	}
	stored := make([]domain.Property, len(report.Valid))
	copy(stored, report.Valid)
	for i := range stored {
		stored[i].ID = ids[i]
	}

	// Step 3: Publish
	if err := workflow.ExecuteActivity(ctx, "PublishImported", stored).Get(ctx, nil); err != nil {
		logger.Warn("publishing imported properties failed, compensating", "error", err)
		// Compensate: delete what was stored
		_ = workflow.ExecuteActivity(ctx, "DeleteProperties", ids).Get(ctx, nil)
		return ImportSummary{}, err
	}

	summary.Created = ids
	logger.Info("Import complete", "created", len(ids), "rejected", len(report.Rejected))
	return summary, nil
}
