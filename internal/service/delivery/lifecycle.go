package delivery

import (
	"context"
	"fmt"
	"strings"

	"moto-dispatch/internal/access"
	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
	"moto-dispatch/internal/ports/deliverytx"
)

// CreateInput is a delivery request as submitted by a client.
type CreateInput struct {
	PackageType    string
	Description    string
	PickupAddress  string
	DropoffAddress string
}

// Create prices and stores a new pending delivery owned by actor.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Delivery, error) {
	if err := access.Authorize(actor, access.OpCreateDelivery, nil); err != nil {
		return nil, err
	}

	pt, ok := domain.ParsePackageType(in.PackageType)
	if !ok {
		return nil, apperr.Validation("type_colis", fmt.Sprintf("unknown package type %q", in.PackageType))
	}
	pickup := strings.TrimSpace(in.PickupAddress)
	if pickup == "" {
		return nil, apperr.Validation("adresse_pickup", "is required")
	}
	dropoff := strings.TrimSpace(in.DropoffAddress)
	if dropoff == "" {
		return nil, apperr.Validation("adresse_dropoff", "is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	quote, err := s.pricer.Quote(ctx, pickup, dropoff)
	if err != nil {
		return nil, apperr.FromContext(err)
	}

	d := &domain.Delivery{
		ClientID:       actor.ID,
		PackageType:    pt,
		PickupAddress:  pickup,
		DropoffAddress: dropoff,
		Description:    strings.TrimSpace(in.Description),
		Price:          quote.Price,
		ZoneID:         quote.ZoneID,
		DefaultPriced:  quote.Defaulted,
	}
	if err := s.store.Create(ctx, d, actor); err != nil {
		return nil, apperr.FromContext(err)
	}

	s.logger.Info("delivery created",
		logx.String("event", "delivery_created"),
		logx.Int64("delivery_id", d.ID),
		logx.Int64("client_id", d.ClientID),
		logx.String("package_type", string(d.PackageType)),
		logx.String("price", d.Price.String()),
		logx.Bool("default_priced", d.DefaultPriced),
	)
	s.emit(ctx, domain.EventCreated, d, nil, actor)
	return d, nil
}

// Get returns a delivery the actor may read.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if d == nil {
		return nil, fmt.Errorf("delivery %d: %w", id, apperr.ErrNotFound)
	}
	if err := access.Authorize(actor, access.OpReadDelivery, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Timeline returns the status history of a delivery the actor may read.
func (s *Service) Timeline(ctx context.Context, actor domain.Actor, id int64) ([]domain.StatusChange, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	h, err := s.store.History(ctx, id)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	return h, nil
}

// Mine lists the client's own deliveries or the courier's missions.
func (s *Service) Mine(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	if err := access.Authorize(actor, access.OpListOwn, nil); err != nil {
		return nil, err
	}
	return s.listFor(ctx, actor)
}

// History lists deliveries scoped by role: staff see everything.
func (s *Service) History(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	if access.Authorize(actor, access.OpListAll, nil) == nil {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		out, err := s.store.ListAll(ctx)
		return out, apperr.FromContext(err)
	}
	return s.Mine(ctx, actor)
}

func (s *Service) listFor(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		out []domain.Delivery
		err error
	)
	switch actor.Role {
	case domain.RoleCourier:
		out, err = s.store.ListByCourier(ctx, actor.ID)
	default:
		out, err = s.store.ListByClient(ctx, actor.ID)
	}
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	return out, nil
}

// UpdateStatus applies a status requested through the status endpoint.
// raw may use any accepted vocabulary.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, raw string) (*domain.Delivery, error) {
	to, ok := domain.ParseStatus(raw)
	if !ok {
		return nil, apperr.Validation("statut", fmt.Sprintf("unknown status %q", raw))
	}
	if to == domain.StatusAssigned {
		return nil, apperr.Validation("statut", "couriers are assigned through POST /deliveries/{id}/assign")
	}
	return s.transition(ctx, actor, id, to)
}

// Cancel moves a delivery to cancelled.
func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id int64) (*domain.Delivery, error) {
	return s.transition(ctx, actor, id, domain.StatusCancelled)
}

// transition checks visibility, then edge legality, then the edge's role rule,
// and applies the change under the row lock.
func (s *Service) transition(ctx context.Context, actor domain.Actor, id int64, to domain.Status) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		out  *domain.Delivery
		from domain.Status
	)
	err := s.store.WithTx(ctx, func(tx deliverytx.Repository) error {
		cur, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("delivery %d: %w", id, apperr.ErrNotFound)
		}
		if err := access.Authorize(actor, access.OpReadDelivery, cur); err != nil {
			return err
		}
		if _, ok := domain.LookupTransition(cur.Status, to); !ok {
			return apperr.InvalidTransition(string(cur.Status), string(to))
		}
		if err := access.Authorize(actor, access.OperationFor(to), cur); err != nil {
			return err
		}

		updated, err := tx.ApplyMutation(ctx, id, domain.Mutation{
			Expected: cur.Status,
			Status:   to,
			Actor:    actor,
			At:       s.now(),
		})
		if err != nil {
			return err
		}
		from, out = cur.Status, updated
		return nil
	})
	if err != nil {
		return nil, apperr.FromContext(err)
	}

	s.metrics.TransitionApplied(from, to)
	s.logger.Info("delivery transition",
		logx.String("event", "delivery_transition"),
		logx.Int64("delivery_id", id),
		logx.String("from", string(from)),
		logx.String("to", string(to)),
		logx.Int64("actor_id", actor.ID),
		logx.String("actor_role", string(actor.Role)),
	)
	s.emit(ctx, domain.EventStatusChanged, out, &from, actor)
	return out, nil
}
