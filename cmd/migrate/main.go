package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/pflag"

	"github.com/samirrijal/geoportfolio/internal/adapters/postgres"
	"github.com/samirrijal/geoportfolio/internal/pkg/config"
)

const downFile = "down.sql"

func main() {
	dir := pflag.String("dir", "migrations", "directory holding the *.sql files")
	pflag.Parse()
	if pflag.NArg() != 1 {
		log.Fatal("usage: migrate [--dir migrations] <up|down|status>")
	}

	cfg, err := config.Load("geoportfolio-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("nothing to migrate for storage.driver=%q", cfg.Storage.Driver)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	ups, err := upFiles(*dir)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	if err := ensureVersionTable(ctx, db); err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}

	switch pflag.Arg(0) {
	case "up":
		pending := pendingFiles(ups, applied)
		for _, f := range pending {
			if err := apply(ctx, db, filepath.Join(*dir, f), f, true); err != nil {
				log.Fatalf("%s: %v", f, err)
			}
			fmt.Printf("OK  %s\n", f)
		}
		log.Printf("%d migrations applied, %d already present", len(pending), len(ups)-len(pending))
	case "down":
		if err := apply(ctx, db, filepath.Join(*dir, downFile), downFile, false); err != nil {
			log.Fatalf("%s: %v", downFile, err)
		}
		log.Println("schema dropped")
	case "status":
		for _, f := range ups {
			state := "pending"
			if applied[f] {
				state = "applied"
			}
			fmt.Printf("%-8s %s\n", state, f)
		}
	default:
		log.Fatalf("unknown command: %s", pflag.Arg(0))
	}
}

// upFiles lists the forward migrations of dir in lexical order.
func upFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	var files []string
	for _, m := range matches {
		if name := filepath.Base(m); name != downFile {
			files = append(files, name)
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations in %s", dir)
	}
	return files, nil
}

// pendingFiles keeps the order of files and drops those already applied.
func pendingFiles(files []string, applied map[string]bool) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if !applied[f] {
			out = append(out, f)
		}
	}
	return out
}

func ensureVersionTable(ctx context.Context, db *postgres.DB) error {
	_, err := db.Pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	return err
}

func appliedVersions(ctx context.Context, db *postgres.DB) (map[string]bool, error) {
	rows, err := db.Pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(versions))
	for _, v := range versions {
		out[v] = true
	}
	return out, nil
}

// apply runs one file in a transaction. Forward migrations are recorded;
// the down migration clears the record.
func apply(ctx context.Context, db *postgres.DB, path, name string, record bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(data)) == "" {
		return fmt.Errorf("empty migration")
	}

	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return err
		}
		if record {
			_, err = tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name)
		} else {
			_, err = tx.Exec(ctx, `DELETE FROM schema_migrations`)
		}
		return err
	})
}
