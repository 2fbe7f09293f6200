package middleware

import (
	"context"
	"sync"

	"moto-dispatch/internal/domain"
)

// actorHolder lets an outer middleware see the actor resolved further down the chain.
type actorHolder struct {
	mu    sync.Mutex
	actor domain.Actor
	ok    bool
}

func (h *actorHolder) set(a domain.Actor) {
	h.mu.Lock()
	h.actor, h.ok = a, true
	h.mu.Unlock()
}

func (h *actorHolder) get() (domain.Actor, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.actor, h.ok
}

type holderKey struct{}

func withActorHolder(ctx context.Context, h *actorHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func actorHolderFrom(ctx context.Context) *actorHolder {
	h, _ := ctx.Value(holderKey{}).(*actorHolder)
	return h
}
