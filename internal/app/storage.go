package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"moto-dispatch/internal/config"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
	"moto-dispatch/internal/repository"
	"moto-dispatch/internal/repository/memory"
	"moto-dispatch/internal/service/delivery"
	"moto-dispatch/internal/service/zones"
)

type dbConnectFunc func(ctx context.Context, logger logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error)

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) (bool, error)
	ListSummaries(ctx context.Context, role *domain.Role) ([]domain.UserSummary, error)
}

type statsStore interface {
	Snapshot(ctx context.Context) (domain.Stats, error)
}

// Stores is the record store selected by STORAGE_DRIVER.
type Stores struct {
	// Pool is nil with the memory driver.
	Pool       *pgxpool.Pool
	Deliveries delivery.Store
	Users      userStore
	Zones      zones.Repository
	Stats      statsStore
}

// Ping checks the database; the memory driver is always up.
func (s *Stores) Ping(ctx context.Context) error {
	if s == nil || s.Pool == nil {
		return nil
	}
	return s.Pool.Ping(ctx)
}

// Close releases the pool.
func (s *Stores) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

func postgresStores(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Pool:       pool,
		Deliveries: repository.NewDeliveryRepo(pool),
		Users:      repository.NewUserRepo(pool),
		Zones:      repository.NewZoneRepo(pool),
		Stats:      repository.NewStatsRepo(pool),
	}
}

func memoryStores() *Stores {
	m := memory.New()
	m.SeedZones(memory.DefaultZones()...)
	return &Stores{
		Deliveries: m.Deliveries(),
		Users:      m.Users(),
		Zones:      m.Zones(),
		Stats:      m.Stats(),
	}
}

func newStores(ctx context.Context, cfg *config.Config, logger logx.Logger, connect dbConnectFunc) (*Stores, error) {
	if !cfg.Storage.UsesPostgres() {
		logger.Warn("using in-memory storage, data is lost on restart", logx.String("driver", cfg.Storage.Driver))
		return memoryStores(), nil
	}

	pool, err := connect(ctx, logger, cfg.DB.DSN(), 10, time.Second)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := repository.MigrateUp(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
		logger.Info("migrations applied")
	}
	return postgresStores(pool), nil
}
