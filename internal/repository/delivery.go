package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/ports/deliverytx"
)

const deliveryColumns = `id, client_id, courier_id, package_type, pickup_address, dropoff_address,
        description, status, price::text, zone_id, default_priced, created_at, updated_at`

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DeliveryRepo represents delivery repository.
type DeliveryRepo struct {
	db *pgxpool.Pool
}

// NewDeliveryRepo creates a new DeliveryRepo.
func NewDeliveryRepo(db *pgxpool.Pool) *DeliveryRepo {
	return &DeliveryRepo{db: db}
}

// WithTx opens a transaction and executes fn within it.
func (r *DeliveryRepo) WithTx(ctx context.Context, fn func(tx deliverytx.Repository) error) (err error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	// отменяем в случае паники
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(&TxRepo{tx: tx}); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("rollback tx: %w (original error: %s)", rbErr, err.Error())
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Create inserts a pending delivery and its creation history entry.
func (r *DeliveryRepo) Create(ctx context.Context, d *domain.Delivery, actor domain.Actor) error {
	if strings.TrimSpace(d.PickupAddress) == "" {
		return apperr.Validation("adresse_pickup", "is required")
	}
	if strings.TrimSpace(d.DropoffAddress) == "" {
		return apperr.Validation("adresse_dropoff", "is required")
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	d.Status = domain.StatusPending
	d.CourierID = nil
	err = tx.QueryRow(ctx, `
        INSERT INTO deliveries (client_id, package_type, pickup_address, dropoff_address,
                                description, status, price, zone_id, default_priced)
        VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9)
        RETURNING id, created_at, updated_at
    `, d.ClientID, string(d.PackageType), d.PickupAddress, d.DropoffAddress,
		d.Description, string(d.Status), d.Price.String(), d.ZoneID, d.DefaultPriced,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return apperr.Validation("delivery", err.Error())
		}
		return fmt.Errorf("insert delivery: %w", err)
	}

	if err := appendHistory(ctx, tx, domain.StatusChange{
		DeliveryID: d.ID,
		To:         d.Status,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		At:         d.CreatedAt,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get - returns delivery by its ID, (nil, nil) when absent.
func (r *DeliveryRepo) Get(ctx context.Context, id int64) (*domain.Delivery, error) {
	d, err := scanDelivery(r.db.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery %d: %w", id, err)
	}
	return d, nil
}

// ListByClient - deliveries created by the client, newest first.
func (r *DeliveryRepo) ListByClient(ctx context.Context, clientID int64) ([]domain.Delivery, error) {
	return r.list(ctx, `WHERE client_id = $1`, clientID)
}

// ListByCourier - deliveries ever assigned to the courier, newest first.
func (r *DeliveryRepo) ListByCourier(ctx context.Context, courierID int64) ([]domain.Delivery, error) {
	return r.list(ctx, `WHERE courier_id = $1`, courierID)
}

// ListAll - every delivery, newest first.
func (r *DeliveryRepo) ListAll(ctx context.Context) ([]domain.Delivery, error) {
	return r.list(ctx, ``)
}

func (r *DeliveryRepo) list(ctx context.Context, where string, args ...any) ([]domain.Delivery, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Delivery, 0)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// History - status changes of a delivery in the order they happened.
func (r *DeliveryRepo) History(ctx context.Context, id int64) ([]domain.StatusChange, error) {
	rows, err := r.db.Query(ctx, `
        SELECT delivery_id, from_status, to_status, actor_id, actor_role, changed_at
        FROM delivery_status_history
        WHERE delivery_id = $1
        ORDER BY id
    `, id)
	if err != nil {
		return nil, fmt.Errorf("history of delivery %d: %w", id, err)
	}
	defer rows.Close()

	out := make([]domain.StatusChange, 0)
	for rows.Next() {
		var (
			c    domain.StatusChange
			from *string
		)
		if err := rows.Scan(&c.DeliveryID, &from, &c.To, &c.ActorID, &c.ActorRole, &c.At); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if from != nil {
			s := domain.Status(*from)
			c.From = &s
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// TxRepo represents transaction repository.
type TxRepo struct {
	tx pgx.Tx
}

// GetForUpdate - locks the delivery row until the transaction ends.
func (r *TxRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Delivery, error) {
	d, err := scanDelivery(r.tx.QueryRow(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock delivery %d: %w", id, err)
	}
	return d, nil
}

// LockCourier - locks the user row so concurrent assignments to one courier serialize.
func (r *TxRepo) LockCourier(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := scanUser(r.tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock user %d: %w", userID, err)
	}
	return u, nil
}

// CountActiveByCourier - number of missions the courier is engaged on.
func (r *TxRepo) CountActiveByCourier(ctx context.Context, courierID int64) (int, error) {
	var n int
	err := r.tx.QueryRow(ctx, `
        SELECT count(*) FROM deliveries
        WHERE courier_id = $1 AND status = ANY($2)
    `, courierID, statusStrings(domain.ActiveStatuses)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active deliveries of %d: %w", courierID, err)
	}
	return n, nil
}

// ApplyMutation - CAS on the expected status, then history append.
func (r *TxRepo) ApplyMutation(ctx context.Context, id int64, m domain.Mutation) (*domain.Delivery, error) {
	d, err := scanDelivery(r.tx.QueryRow(ctx, `
        UPDATE deliveries
        SET status     = $3,
            courier_id = COALESCE($4, courier_id),
            updated_at = $5
        WHERE id = $1 AND status = $2
        RETURNING `+deliveryColumns,
		id, string(m.Expected), string(m.Status), m.CourierID, m.At))
	if err != nil {
		switch {
		case IsNotFound(err):
			return nil, fmt.Errorf("delivery %d left %s: %w", id, m.Expected, apperr.ErrConflict)
		case isActiveCourierViolation(err):
			return nil, apperr.ErrCourierBusy
		}
		return nil, fmt.Errorf("update delivery %d: %w", id, err)
	}

	from := m.Expected
	if err := appendHistory(ctx, r.tx, domain.StatusChange{
		DeliveryID: id,
		From:       &from,
		To:         m.Status,
		ActorID:    m.Actor.ID,
		ActorRole:  m.Actor.Role,
		At:         m.At,
	}); err != nil {
		return nil, err
	}
	return d, nil
}

func appendHistory(ctx context.Context, q querier, c domain.StatusChange) error {
	var from *string
	if c.From != nil {
		s := string(*c.From)
		from = &s
	}
	_, err := q.Exec(ctx, `
        INSERT INTO delivery_status_history (delivery_id, from_status, to_status, actor_id, actor_role, changed_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, c.DeliveryID, from, string(c.To), c.ActorID, string(c.ActorRole), c.At)
	if err != nil {
		return fmt.Errorf("append history of delivery %d: %w", c.DeliveryID, err)
	}
	return nil
}

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var (
		d     domain.Delivery
		price string
	)
	err := row.Scan(&d.ID, &d.ClientID, &d.CourierID, &d.PackageType, &d.PickupAddress, &d.DropoffAddress,
		&d.Description, &d.Status, &price, &d.ZoneID, &d.DefaultPriced, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if d.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	return &d, nil
}
