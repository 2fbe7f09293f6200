package handlers

import (
	"context"

	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/health"
	"moto-dispatch/internal/service/delivery"
	"moto-dispatch/internal/service/users"
)

type authUsecase interface {
	Register(ctx context.Context, in users.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, phone, password string) (users.LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

type userUsecase interface {
	Me(ctx context.Context, actor domain.Actor) (*domain.User, error)
	List(ctx context.Context, actor domain.Actor, role *domain.Role) ([]domain.UserSummary, error)
	CreateUser(ctx context.Context, actor domain.Actor, in users.RegisterInput) (*domain.User, error)
}

type zoneUsecase interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Zone, error)
}

type deliveryUsecase interface {
	Create(ctx context.Context, actor domain.Actor, in delivery.CreateInput) (*domain.Delivery, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Delivery, error)
	Timeline(ctx context.Context, actor domain.Actor, id int64) ([]domain.StatusChange, error)
	Mine(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error)
	History(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error)
	Assign(ctx context.Context, actor domain.Actor, deliveryID, courierID int64) (*domain.Delivery, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id int64, raw string) (*domain.Delivery, error)
	Cancel(ctx context.Context, actor domain.Actor, id int64) (*domain.Delivery, error)
}

type statsUsecase interface {
	Get(ctx context.Context, actor domain.Actor) (domain.Stats, error)
}

type healthChecker interface {
	Run(ctx context.Context) health.Report
}
