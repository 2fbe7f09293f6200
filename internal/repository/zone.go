package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"moto-dispatch/internal/domain"
)

// ZoneRepo represents zone repository.
type ZoneRepo struct{ db *pgxpool.Pool }

// NewZoneRepo creates a new ZoneRepo.
func NewZoneRepo(db *pgxpool.Pool) *ZoneRepo { return &ZoneRepo{db: db} }

// List returns zones ordered by id.
func (r *ZoneRepo) List(ctx context.Context, activeOnly bool) ([]domain.Zone, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, name, area_descriptor, price::text, is_active, created_at, updated_at
        FROM zones
        WHERE NOT $1 OR is_active
        ORDER BY id
    `, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Zone, 0)
	for rows.Next() {
		var (
			z     domain.Zone
			price string
		)
		if err := rows.Scan(&z.ID, &z.Name, &z.AreaDescriptor, &price, &z.IsActive, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		if z.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse zone price %q: %w", price, err)
		}
		out = append(out, z)
	}
	return out, rows.Err()
}
