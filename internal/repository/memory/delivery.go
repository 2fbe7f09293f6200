package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/ports/deliverytx"
)

// DeliveryStore keeps deliveries and their history.
type DeliveryStore struct{ s *Store }

// WithTx runs fn under the store mutex and undoes its mutations if it fails.
func (d *DeliveryStore) WithTx(ctx context.Context, fn func(tx deliverytx.Repository) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	tx := &txRepo{s: d.s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		tx.rollback()
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Create inserts a pending delivery and its creation history entry.
func (d *DeliveryStore) Create(ctx context.Context, del *domain.Delivery, actor domain.Actor) error {
	if strings.TrimSpace(del.PickupAddress) == "" {
		return apperr.Validation("adresse_pickup", "is required")
	}
	if strings.TrimSpace(del.DropoffAddress) == "" {
		return apperr.Validation("adresse_dropoff", "is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if _, ok := d.s.users[del.ClientID]; !ok {
		return fmt.Errorf("insert delivery: client %d does not exist", del.ClientID)
	}

	d.s.nextDeliveryID++
	now := d.s.now()
	del.ID = d.s.nextDeliveryID
	del.Status = domain.StatusPending
	del.CourierID = nil
	del.CreatedAt, del.UpdatedAt = now, now

	stored := del.Clone()
	d.s.deliveries[del.ID] = &stored
	d.s.history[del.ID] = []domain.StatusChange{{
		DeliveryID: del.ID,
		To:         domain.StatusPending,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		At:         now,
	}}
	return nil
}

// Get returns (nil, nil) when absent.
func (d *DeliveryStore) Get(_ context.Context, id int64) (*domain.Delivery, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	v, ok := d.s.deliveries[id]
	if !ok {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

// ListByClient - newest first.
func (d *DeliveryStore) ListByClient(_ context.Context, clientID int64) ([]domain.Delivery, error) {
	return d.list(func(v *domain.Delivery) bool { return v.ClientID == clientID }), nil
}

// ListByCourier - newest first.
func (d *DeliveryStore) ListByCourier(_ context.Context, courierID int64) ([]domain.Delivery, error) {
	return d.list(func(v *domain.Delivery) bool { return v.AssignedTo(courierID) }), nil
}

// ListAll - newest first.
func (d *DeliveryStore) ListAll(context.Context) ([]domain.Delivery, error) {
	return d.list(func(*domain.Delivery) bool { return true }), nil
}

func (d *DeliveryStore) list(keep func(*domain.Delivery) bool) []domain.Delivery {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	out := make([]domain.Delivery, 0)
	for _, v := range d.s.deliveries {
		if keep(v) {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// History - in the order the changes happened.
func (d *DeliveryStore) History(_ context.Context, id int64) ([]domain.StatusChange, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	return append([]domain.StatusChange(nil), d.s.history[id]...), nil
}

// txRepo runs with the store mutex held.
type txRepo struct {
	s    *Store
	undo []func()
}

func (t *txRepo) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *txRepo) GetForUpdate(_ context.Context, id int64) (*domain.Delivery, error) {
	v, ok := t.s.deliveries[id]
	if !ok {
		return nil, nil
	}
	out := v.Clone()
	return &out, nil
}

func (t *txRepo) LockCourier(_ context.Context, userID int64) (*domain.User, error) {
	u, ok := t.s.users[userID]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (t *txRepo) CountActiveByCourier(_ context.Context, courierID int64) (int, error) {
	return t.s.countActive(courierID), nil
}

func (t *txRepo) ApplyMutation(_ context.Context, id int64, m domain.Mutation) (*domain.Delivery, error) {
	cur, ok := t.s.deliveries[id]
	if !ok || cur.Status != m.Expected {
		return nil, fmt.Errorf("delivery %d left %s: %w", id, m.Expected, apperr.ErrConflict)
	}

	next := cur.Clone()
	next.Status = m.Status
	if m.CourierID != nil {
		v := *m.CourierID
		next.CourierID = &v
	}
	next.UpdatedAt = m.At

	if next.Status.IsActive() && next.CourierID != nil && !cur.AssignedTo(*next.CourierID) &&
		t.s.countActive(*next.CourierID) > 0 {
		return nil, apperr.ErrCourierBusy
	}

	prev := cur.Clone()
	prevHistory := len(t.s.history[id])
	t.undo = append(t.undo, func() {
		t.s.deliveries[id] = &prev
		t.s.history[id] = t.s.history[id][:prevHistory]
	})

	t.s.deliveries[id] = &next
	from := m.Expected
	t.s.history[id] = append(t.s.history[id], domain.StatusChange{
		DeliveryID: id,
		From:       &from,
		To:         m.Status,
		ActorID:    m.Actor.ID,
		ActorRole:  m.Actor.Role,
		At:         m.At,
	})

	out := next.Clone()
	return &out, nil
}

// countActive requires the mutex.
func (s *Store) countActive(courierID int64) int {
	n := 0
	for _, v := range s.deliveries {
		if v.AssignedTo(courierID) && v.Status.IsActive() {
			n++
		}
	}
	return n
}
