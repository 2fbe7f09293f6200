package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"moto-dispatch/internal/domain"
)

// StatsRepo computes aggregate counters.
type StatsRepo struct{ db *pgxpool.Pool }

// NewStatsRepo creates a new StatsRepo.
func NewStatsRepo(db *pgxpool.Pool) *StatsRepo { return &StatsRepo{db: db} }

// Snapshot runs the aggregate queries in one batch.
func (r *StatsRepo) Snapshot(ctx context.Context) (domain.Stats, error) {
	st := domain.Stats{ByStatus: make(map[domain.Status]int)}
	active := statusStrings(domain.ActiveStatuses)

	b := &pgx.Batch{}
	b.Queue(`SELECT status, count(*) FROM deliveries GROUP BY status`).Query(func(rows pgx.Rows) error {
		for rows.Next() {
			var (
				s domain.Status
				n int
			)
			if err := rows.Scan(&s, &n); err != nil {
				return err
			}
			st.ByStatus[s] = n
			st.Deliveries += n
		}
		return rows.Err()
	})
	b.Queue(`SELECT COALESCE(sum(price), 0)::text FROM deliveries WHERE status = $1`,
		string(domain.StatusDelivered)).QueryRow(func(row pgx.Row) error {
		var raw string
		if err := row.Scan(&raw); err != nil {
			return err
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("parse revenue %q: %w", raw, err)
		}
		st.Revenue = v
		return nil
	})
	b.Queue(`
        SELECT count(*) FILTER (WHERE role = 'livreur'),
               count(*) FILTER (WHERE role = 'client')
        FROM users
    `).QueryRow(func(row pgx.Row) error {
		return row.Scan(&st.Couriers, &st.Clients)
	})
	b.Queue(`SELECT count(DISTINCT courier_id) FROM deliveries WHERE status = ANY($1)`, active).
		QueryRow(func(row pgx.Row) error {
			return row.Scan(&st.CouriersBusy)
		})

	if err := r.db.SendBatch(ctx, b).Close(); err != nil {
		return domain.Stats{}, fmt.Errorf("stats snapshot: %w", err)
	}

	for _, s := range domain.ActiveStatuses {
		st.Active += st.ByStatus[s]
	}
	st.CouriersAvailable = st.Couriers - st.CouriersBusy
	st.GeneratedAt = time.Now().UTC()
	return st, nil
}
