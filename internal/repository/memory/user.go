package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
)

// UserStore keeps accounts.
type UserStore struct{ s *Store }

// Create assigns an id; phone and non-empty email are unique.
func (u *UserStore) Create(_ context.Context, user *domain.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, v := range u.s.users {
		if v.Phone == user.Phone || (user.Email != "" && strings.EqualFold(v.Email, user.Email)) {
			return fmt.Errorf("user %s: %w", user.Phone, apperr.ErrConflict)
		}
	}
	u.s.nextUserID++
	user.ID = u.s.nextUserID
	user.CreatedAt = u.s.now()
	stored := *user
	u.s.users[user.ID] = &stored
	return nil
}

// Get returns (nil, nil) when absent.
func (u *UserStore) Get(_ context.Context, id int64) (*domain.User, error) {
	return u.find(func(v *domain.User) bool { return v.ID == id }), nil
}

// GetByPhone returns (nil, nil) when absent.
func (u *UserStore) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	return u.find(func(v *domain.User) bool { return v.Phone == phone }), nil
}

// GetByEmail is case-insensitive.
func (u *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return u.find(func(v *domain.User) bool { return v.Email != "" && strings.EqualFold(v.Email, email) }), nil
}

func (u *UserStore) find(match func(*domain.User) bool) *domain.User {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, v := range u.s.users {
		if match(v) {
			out := *v
			return &out
		}
	}
	return nil
}

// UpdatePassword returns false when the user does not exist.
func (u *UserStore) UpdatePassword(_ context.Context, id int64, hash string) (bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	v, ok := u.s.users[id]
	if !ok {
		return false, nil
	}
	v.PasswordHash = hash
	return true, nil
}

// ListSummaries returns users ordered by id with their delivery counters.
func (u *UserStore) ListSummaries(_ context.Context, role *domain.Role) ([]domain.UserSummary, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	out := make([]domain.UserSummary, 0, len(u.s.users))
	for _, v := range u.s.users {
		if role != nil && v.Role != *role {
			continue
		}
		sum := domain.UserSummary{User: *v}
		for _, d := range u.s.deliveries {
			switch {
			case v.Role == domain.RoleClient && d.ClientID == v.ID:
				sum.TotalDeliveries++
			case v.Role == domain.RoleCourier && d.AssignedTo(v.ID):
				if d.Status == domain.StatusDelivered {
					sum.TotalDeliveries++
				}
				if d.Status.IsActive() && (sum.ActiveDeliveryID == nil || d.ID < *sum.ActiveDeliveryID) {
					id := d.ID
					sum.ActiveDeliveryID = &id
				}
			}
		}
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
