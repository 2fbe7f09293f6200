// Package memory is an in-process implementation of the stores, used when
// STORAGE_DRIVER=memory and by service tests.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"moto-dispatch/internal/domain"
)

// Store holds every table behind one mutex. Transactions hold the mutex for
// their whole duration, which serializes them.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	deliveries map[int64]*domain.Delivery
	history    map[int64][]domain.StatusChange
	users      map[int64]*domain.User
	zones      []domain.Zone

	nextDeliveryID int64
	nextUserID     int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		deliveries: make(map[int64]*domain.Delivery),
		history:    make(map[int64][]domain.StatusChange),
		users:      make(map[int64]*domain.User),
	}
}

// WithClock replaces the time source; for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Deliveries returns the delivery store view.
func (s *Store) Deliveries() *DeliveryStore { return &DeliveryStore{s: s} }

// Users returns the user store view.
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

// Zones returns the zone store view.
func (s *Store) Zones() *ZoneStore { return &ZoneStore{s: s} }

// Stats returns the aggregate view.
func (s *Store) Stats() *StatsStore { return &StatsStore{s: s} }

// SeedZones adds zones, assigning ids when missing.
func (s *Store) SeedZones(zones ...domain.Zone) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, z := range zones {
		if z.ID == 0 {
			z.ID = int64(len(s.zones) + 1)
		}
		if z.CreatedAt.IsZero() {
			z.CreatedAt, z.UpdatedAt = now, now
		}
		s.zones = append(s.zones, z)
	}
	sort.Slice(s.zones, func(i, j int) bool { return s.zones[i].ID < s.zones[j].ID })
}

// DefaultZones mirrors the zones seeded by the SQL migrations.
func DefaultZones() []domain.Zone {
	z := func(name, area string, price int64) domain.Zone {
		return domain.Zone{Name: name, AreaDescriptor: area, Price: decimal.NewFromInt(price), IsActive: true}
	}
	return []domain.Zone{
		z("Cocody", "cocody, riviera, angre, deux plateaux, 2 plateaux", 1500),
		z("Plateau", "plateau", 1500),
		z("Marcory", "marcory, zone 4, bietry", 1500),
		z("Treichville", "treichville", 1500),
		z("Yopougon", "yopougon, yop, selmer, niangon", 2000),
		z("Abobo", "abobo, ndotre", 2000),
		z("Adjame", "adjame, adjamé", 1500),
		z("Koumassi", "koumassi", 1500),
		z("Port-Bouet", "port-bouet, port bouet, vridi, gonzagueville", 2500),
		z("Bingerville", "bingerville", 3000),
	}
}
