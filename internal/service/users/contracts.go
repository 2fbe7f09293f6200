package users

import (
	"context"
	"time"

	"moto-dispatch/internal/domain"
)

// userRepository defines storage operations required by the business layer.
type userRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) (bool, error)
	ListSummaries(ctx context.Context, role *domain.Role) ([]domain.UserSummary, error)
}

type passwordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) (bool, error)
}

type tokenIssuer interface {
	Issue(u domain.User) (string, time.Time, error)
}
