package postgres

import (
	"context"
	"fmt"

	"github.com/samirrijal/geoportfolio/internal/core/domain"
)

// PortfolioRepo implements ports.PortfolioRepository with pgx.
type PortfolioRepo struct {
	db *DB
}

// NewPortfolioRepo creates a new PortfolioRepo.
func NewPortfolioRepo(db *DB) *PortfolioRepo {
	return &PortfolioRepo{db: db}
}

// Create inserts a portfolio and fills in its id.
func (r *PortfolioRepo) Create(ctx context.Context, p *domain.Portfolio) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO portfolios (name) VALUES ($1)
		RETURNING id, created_at
	`, p.Name).Scan(&p.ID, &p.CreatedAt)
}

// GetByID returns a portfolio by id.
func (r *PortfolioRepo) GetByID(ctx context.Context, id int64) (*domain.Portfolio, error) {
	var p domain.Portfolio
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM portfolios WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// List returns every portfolio ordered by id.
func (r *PortfolioRepo) List(ctx context.Context) ([]domain.Portfolio, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name, created_at FROM portfolios ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	portfolios := []domain.Portfolio{}
	for rows.Next() {
		var p domain.Portfolio
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

// Update renames a portfolio.
func (r *PortfolioRepo) Update(ctx context.Context, p *domain.Portfolio) error {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE portfolios SET name = $2 WHERE id = $1
		RETURNING created_at
	`, p.ID, p.Name).Scan(&p.CreatedAt)
	return notFound(err)
}

// Delete removes a portfolio. ON DELETE CASCADE removes its properties.
func (r *PortfolioRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
