package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

const propertyColumns = `
	id, portfolio_id, name, address, zip_code, city,
	ST_Y(location) AS lat, ST_X(location) AS lon,
	estimated_value, relevant_risks, handled_risks, total_financial_risk,
	created_at, updated_at`

const insertProperty = `
	INSERT INTO properties (portfolio_id, name, address, zip_code, city, location,
	                        estimated_value, relevant_risks, handled_risks, total_financial_risk)
	VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326), $8, $9, $10, $11)
	RETURNING id, created_at, updated_at`

// PropertyRepo implements ports.PropertyRepository with pgx and PostGIS.
type PropertyRepo struct {
	db *DB
}

// NewPropertyRepo creates a new PropertyRepo.
func NewPropertyRepo(db *DB) *PropertyRepo {
	return &PropertyRepo{db: db}
}

func insertArgs(p *domain.Property) []any {
	return []any{
		p.PortfolioID, p.Name, p.Address, p.ZipCode, p.City,
		p.Location.Lon, p.Location.Lat,
		p.EstimatedValue, p.RelevantRisks, p.HandledRisks, p.TotalFinancialRisk,
	}
}

func scanProperty(row pgx.Row) (domain.Property, error) {
	var p domain.Property
	err := row.Scan(
		&p.ID, &p.PortfolioID, &p.Name, &p.Address, &p.ZipCode, &p.City,
		&p.Location.Lat, &p.Location.Lon,
		&p.EstimatedValue, &p.RelevantRisks, &p.HandledRisks, &p.TotalFinancialRisk,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Create inserts a property and fills in its id and timestamps.
func (r *PropertyRepo) Create(ctx context.Context, p *domain.Property) error {
	return r.db.Pool.QueryRow(ctx, insertProperty, insertArgs(p)...).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// CreateBatch inserts many properties in one transaction using pgx.Batch.
// Either all rows are stored or none are.
func (r *PropertyRepo) CreateBatch(ctx context.Context, props []domain.Property) ([]int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for i := range props {
		batch.Queue(insertProperty, insertArgs(&props[i])...)
	}
	br := tx.SendBatch(ctx, batch)

	ids := make([]int64, 0, len(props))
	for i := range props {
		if err := br.QueryRow().Scan(&props[i].ID, &props[i].CreatedAt, &props[i].UpdatedAt); err != nil {
			_ = br.Close()
			return nil, fmt.Errorf("batch insert %d: %w", i, err)
		}
		ids = append(ids, props[i].ID)
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("batch close: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}

// GetByID returns a property by id.
func (r *PropertyRepo) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	p, err := scanProperty(r.db.Pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// List returns properties matching the filter, ordered by id. The bbox
// filter uses ST_Covers so points on the edge are included.
func (r *PropertyRepo) List(ctx context.Context, f domain.PropertyFilter) ([]domain.Property, error) {
	var (
		where []string
		args  []any
	)
	if f.PortfolioID != nil {
		args = append(args, *f.PortfolioID)
		where = append(where, fmt.Sprintf("portfolio_id = $%d", len(args)))
	}
	if f.BBox != nil {
		n := len(args)
		args = append(args, f.BBox.MinLon, f.BBox.MinLat, f.BBox.MaxLon, f.BBox.MaxLat)
		where = append(where, fmt.Sprintf(
			"ST_Covers(ST_MakeEnvelope($%d, $%d, $%d, $%d, 4326), location)", n+1, n+2, n+3, n+4))
	}

	query := `SELECT ` + propertyColumns + ` FROM properties`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	props := []domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

// Update replaces every mutable column of a property.
func (r *PropertyRepo) Update(ctx context.Context, p *domain.Property) error {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE properties
		SET portfolio_id = $2, name = $3, address = $4, zip_code = $5, city = $6,
		    location = ST_SetSRID(ST_MakePoint($7, $8), 4326),
		    estimated_value = $9, relevant_risks = $10, handled_risks = $11,
		    total_financial_risk = $12, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, append([]any{p.ID}, insertArgs(p)...)...).Scan(&p.CreatedAt, &p.UpdatedAt)
	return notFound(err)
}

// Delete removes a property.
func (r *PropertyRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteBatch removes all listed properties. Missing ids are ignored.
func (r *PropertyRepo) DeleteBatch(ctx context.Context, ids []int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM properties WHERE id = ANY($1)`, ids)
	return err
}
