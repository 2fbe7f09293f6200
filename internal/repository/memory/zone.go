package memory

import (
	"context"

	"moto-dispatch/internal/domain"
)

// ZoneStore serves the seeded zones.
type ZoneStore struct{ s *Store }

// List returns zones ordered by id.
func (z *ZoneStore) List(_ context.Context, activeOnly bool) ([]domain.Zone, error) {
	z.s.mu.Lock()
	defer z.s.mu.Unlock()

	out := make([]domain.Zone, 0, len(z.s.zones))
	for _, v := range z.s.zones {
		if activeOnly && !v.IsActive {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
