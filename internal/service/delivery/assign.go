package delivery

import (
	"context"
	"fmt"

	"moto-dispatch/internal/access"
	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
	"moto-dispatch/internal/ports/deliverytx"
)

// Assign gives a pending delivery to a courier chosen by a manager or admin.
// A courier carries at most one active mission.
func (s *Service) Assign(ctx context.Context, actor domain.Actor, deliveryID, courierID int64) (res *domain.Delivery, err error) {
	defer func() { s.metrics.AssignmentAttempt(assignmentOutcome(err)) }()

	if err := access.Authorize(actor, access.OpAssign, nil); err != nil {
		return nil, err
	}
	if courierID <= 0 {
		return nil, apperr.Validation("livreur_id", "must be a positive id")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err = s.store.WithTx(ctx, func(tx deliverytx.Repository) error {
		cur, err := tx.GetForUpdate(ctx, deliveryID)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("delivery %d: %w", deliveryID, apperr.ErrNotFound)
		}
		if cur.Status != domain.StatusPending {
			return apperr.InvalidState(string(cur.Status), string(domain.StatusAssigned))
		}

		courier, err := tx.LockCourier(ctx, courierID)
		if err != nil {
			return err
		}
		if courier == nil || courier.Role != domain.RoleCourier {
			return fmt.Errorf("courier %d: %w", courierID, apperr.ErrNotFound)
		}

		active, err := tx.CountActiveByCourier(ctx, courierID)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("courier %d: %w", courierID, apperr.ErrCourierBusy)
		}

		updated, err := tx.ApplyMutation(ctx, deliveryID, domain.Mutation{
			Expected:  domain.StatusPending,
			Status:    domain.StatusAssigned,
			CourierID: &courierID,
			Actor:     actor,
			At:        s.now(),
		})
		if err != nil {
			return err
		}
		res = updated
		return nil
	})
	if err != nil {
		return nil, apperr.FromContext(err)
	}

	s.metrics.TransitionApplied(domain.StatusPending, domain.StatusAssigned)
	s.logger.Info("courier assigned",
		logx.String("event", "courier_assigned"),
		logx.Int64("delivery_id", deliveryID),
		logx.Int64("courier_id", courierID),
		logx.Int64("actor_id", actor.ID),
	)
	from := domain.StatusPending
	s.emit(ctx, domain.EventAssigned, res, &from, actor)
	return res, nil
}
