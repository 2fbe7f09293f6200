package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"moto-dispatch/internal/domain"
)

// StatsStore computes aggregates over the in-memory tables.
type StatsStore struct{ s *Store }

// Snapshot - same counters as the SQL implementation.
func (st *StatsStore) Snapshot(context.Context) (domain.Stats, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	out := domain.Stats{ByStatus: make(map[domain.Status]int), Revenue: decimal.Zero}
	busy := make(map[int64]struct{})
	for _, d := range st.s.deliveries {
		out.Deliveries++
		out.ByStatus[d.Status]++
		if d.Status.IsActive() {
			out.Active++
			if d.CourierID != nil {
				busy[*d.CourierID] = struct{}{}
			}
		}
		if d.Status == domain.StatusDelivered {
			out.Revenue = out.Revenue.Add(d.Price)
		}
	}
	for _, u := range st.s.users {
		switch u.Role {
		case domain.RoleCourier:
			out.Couriers++
		case domain.RoleClient:
			out.Clients++
		}
	}
	out.CouriersBusy = len(busy)
	out.CouriersAvailable = out.Couriers - out.CouriersBusy
	out.GeneratedAt = st.s.now()
	return out, nil
}
