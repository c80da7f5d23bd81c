package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/geoportfolio/internal/adapters/geojson"
	"github.com/samirrijal/geoportfolio/internal/adapters/postgres"
	"github.com/samirrijal/geoportfolio/internal/core/domain"
	"github.com/samirrijal/geoportfolio/internal/core/usecases"
	"github.com/samirrijal/geoportfolio/internal/pkg/config"
	"github.com/samirrijal/geoportfolio/internal/pkg/logging"
	"github.com/samirrijal/geoportfolio/internal/workflows"
)

func main() {
	direct := pflag.Bool("direct", false, "import synchronously instead of starting a workflow")
	timeout := pflag.Duration("timeout", 10*time.Minute, "maximum time to wait for the import")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [--direct] [--timeout 10m] <file.geojson>\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}
	path := pflag.Arg(0)

	cfg, err := config.Load("geoportfolio-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Telemetry.ServiceName)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var summary workflows.ImportSummary
	if *direct {
		summary, err = importDirect(ctx, cfg, data)
	} else {
		summary, err = importViaWorkflow(ctx, cfg, path, data)
	}
	if err != nil {
		log.Fatalf("import %s: %v", path, err)
	}

	slog.Info("import finished", "file", path, "created", len(summary.Created), "rejected", len(summary.Rejected))
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
	if len(summary.Rejected) > 0 {
		os.Exit(1)
	}
}

func importDirect(ctx context.Context, cfg *config.Config, data []byte) (workflows.ImportSummary, error) {
	if cfg.Storage.Driver != "postgres" {
		return workflows.ImportSummary{}, fmt.Errorf("direct import requires storage.driver=postgres, got %q", cfg.Storage.Driver)
	}

	candidates, err := geojson.DecodeCollection(data)
	if err != nil {
		return workflows.ImportSummary{}, err
	}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		return workflows.ImportSummary{}, fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	rules := domain.Rules{EstimatedValueCeiling: cfg.Validation.EstimatedValueCeiling}
	svc := usecases.NewPropertyService(postgres.NewPropertyRepo(db), postgres.NewPortfolioRepo(db), nil, nil, rules)

	result, err := svc.ImportFeatures(ctx, candidates)
	if err != nil {
		return workflows.ImportSummary{}, err
	}

	summary := workflows.ImportSummary{Created: result.Created, Rejected: make(map[int]map[string][]string, result.Rejected())}
	for i, ve := range result.Errors {
		summary.Rejected[i] = ve.ByKey()
	}
	return summary, nil
}

func importViaWorkflow(ctx context.Context, cfg *config.Config, path string, data []byte) (workflows.ImportSummary, error) {
	features, err := geojson.RawFeatures(data)
	if err != nil {
		return workflows.ImportSummary{}, err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return workflows.ImportSummary{}, fmt.Errorf("temporal client: %w", err)
	}
	defer c.Close()

	opts := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("property-import-%s-%d", filepath.Base(path), time.Now().Unix()),
		TaskQueue: cfg.Temporal.TaskQueue,
	}
	run, err := c.ExecuteWorkflow(ctx, opts, workflows.ImportWorkflow, workflows.ImportInput{
		Source:   filepath.Base(path),
		Features: features,
	})
	if err != nil {
		return workflows.ImportSummary{}, fmt.Errorf("start workflow: %w", err)
	}
	slog.Info("import workflow started", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "features", len(features))

	var summary workflows.ImportSummary
	if err := run.Get(ctx, &summary); err != nil {
		return workflows.ImportSummary{}, fmt.Errorf("workflow %s: %w", run.GetID(), err)
	}
	return summary, nil
}
