package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
)

const userColumns = `id, name, email, phone, address, role, password_hash, created_at`

// UserRepo represents user repository.
type UserRepo struct{ db *pgxpool.Pool }

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *pgxpool.Pool) *UserRepo { return &UserRepo{db: db} }

// Create - inserts a user; duplicate phone or email is a conflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx, `
        INSERT INTO users (name, email, phone, address, role, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `, u.Name, u.Email, u.Phone, u.Address, string(u.Role), u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if IsDuplicate(err) {
			return fmt.Errorf("user %s: %w", u.Phone, apperr.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get - returns user by its ID, (nil, nil) when absent.
func (r *UserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

// GetByPhone - phone is the login identifier.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getBy(ctx, `phone = $1`, phone)
}

// GetByEmail - case-insensitive lookup used by password reset.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, `email <> '' AND lower(email) = lower($1)`, email)
}

func (r *UserRepo) getBy(ctx context.Context, where string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdatePassword - returns false when the user does not exist.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash string) (bool, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return false, fmt.Errorf("update password of %d: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

// ListSummaries returns users ordered by id, optionally restricted to one role,
// with their delivery counters and current mission.
func (r *UserRepo) ListSummaries(ctx context.Context, role *domain.Role) ([]domain.UserSummary, error) {
	var roleArg *string
	if role != nil {
		s := string(*role)
		roleArg = &s
	}
	rows, err := r.db.Query(ctx, `
        SELECT u.id, u.name, u.email, u.phone, u.address, u.role, u.password_hash, u.created_at,
               (SELECT count(*) FROM deliveries d
                 WHERE (u.role = 'client' AND d.client_id = u.id)
                    OR (u.role = 'livreur' AND d.courier_id = u.id AND d.status = 'delivered')) AS total,
               (SELECT d.id FROM deliveries d
                 WHERE d.courier_id = u.id AND d.status = ANY($2)
                 ORDER BY d.id LIMIT 1) AS active
        FROM users u
        WHERE $1::text IS NULL OR u.role = $1
        ORDER BY u.id
    `, roleArg, statusStrings(domain.ActiveStatuses))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.UserSummary, 0)
	for rows.Next() {
		var s domain.UserSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.Role, &s.PasswordHash,
			&s.CreatedAt, &s.TotalDeliveries, &s.ActiveDeliveryID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
