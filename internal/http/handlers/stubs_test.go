package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	"moto-dispatch/internal/auth"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/service/delivery"
	"moto-dispatch/internal/service/users"
)

type stubDeliveryUsecase struct {
	createFn   func(ctx context.Context, actor domain.Actor, in delivery.CreateInput) (*domain.Delivery, error)
	getFn      func(ctx context.Context, actor domain.Actor, id int64) (*domain.Delivery, error)
	timelineFn func(ctx context.Context, actor domain.Actor, id int64) ([]domain.StatusChange, error)
	mineFn     func(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error)
	historyFn  func(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error)
	assignFn   func(ctx context.Context, actor domain.Actor, deliveryID, courierID int64) (*domain.Delivery, error)
	updateFn   func(ctx context.Context, actor domain.Actor, id int64, raw string) (*domain.Delivery, error)
	cancelFn   func(ctx context.Context, actor domain.Actor, id int64) (*domain.Delivery, error)
}

func (s *stubDeliveryUsecase) Create(ctx context.Context, actor domain.Actor, in delivery.CreateInput) (*domain.Delivery, error) {
	if s.createFn == nil {
		panic("Create not expected in this test")
	}
	return s.createFn(ctx, actor, in)
}

func (s *stubDeliveryUsecase) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Delivery, error) {
	if s.getFn == nil {
		panic("Get not expected in this test")
	}
	return s.getFn(ctx, actor, id)
}

func (s *stubDeliveryUsecase) Timeline(ctx context.Context, actor domain.Actor, id int64) ([]domain.StatusChange, error) {
	if s.timelineFn == nil {
		panic("Timeline not expected in this test")
	}
	return s.timelineFn(ctx, actor, id)
}

func (s *stubDeliveryUsecase) Mine(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	if s.mineFn == nil {
		panic("Mine not expected in this test")
	}
	return s.mineFn(ctx, actor)
}

func (s *stubDeliveryUsecase) History(ctx context.Context, actor domain.Actor) ([]domain.Delivery, error) {
	if s.historyFn == nil {
		panic("History not expected in this test")
	}
	return s.historyFn(ctx, actor)
}

func (s *stubDeliveryUsecase) Assign(ctx context.Context, actor domain.Actor, deliveryID, courierID int64) (*domain.Delivery, error) {
	if s.assignFn == nil {
		panic("Assign not expected in this test")
	}
	return s.assignFn(ctx, actor, deliveryID, courierID)
}

func (s *stubDeliveryUsecase) UpdateStatus(ctx context.Context, actor domain.Actor, id int64, raw string) (*domain.Delivery, error) {
	if s.updateFn == nil {
		panic("UpdateStatus not expected in this test")
	}
	return s.updateFn(ctx, actor, id, raw)
}

func (s *stubDeliveryUsecase) Cancel(ctx context.Context, actor domain.Actor, id int64) (*domain.Delivery, error) {
	if s.cancelFn == nil {
		panic("Cancel not expected in this test")
	}
	return s.cancelFn(ctx, actor, id)
}

type stubAuthUsecase struct {
	registerFn func(ctx context.Context, in users.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, phone, password string) (users.LoginResult, error)
	requestFn  func(ctx context.Context, email string) error
	resetFn    func(ctx context.Context, token, password string) error
}

func (s *stubAuthUsecase) Register(ctx context.Context, in users.RegisterInput) (*domain.User, error) {
	if s.registerFn == nil {
		panic("Register not expected in this test")
	}
	return s.registerFn(ctx, in)
}

func (s *stubAuthUsecase) Login(ctx context.Context, phone, password string) (users.LoginResult, error) {
	if s.loginFn == nil {
		panic("Login not expected in this test")
	}
	return s.loginFn(ctx, phone, password)
}

func (s *stubAuthUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	if s.requestFn == nil {
		panic("RequestPasswordReset not expected in this test")
	}
	return s.requestFn(ctx, email)
}

func (s *stubAuthUsecase) ResetPassword(ctx context.Context, token, password string) error {
	if s.resetFn == nil {
		panic("ResetPassword not expected in this test")
	}
	return s.resetFn(ctx, token, password)
}

type stubUserUsecase struct {
	meFn     func(ctx context.Context, actor domain.Actor) (*domain.User, error)
	listFn   func(ctx context.Context, actor domain.Actor, role *domain.Role) ([]domain.UserSummary, error)
	createFn func(ctx context.Context, actor domain.Actor, in users.RegisterInput) (*domain.User, error)
}

func (s *stubUserUsecase) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	return s.meFn(ctx, actor)
}

func (s *stubUserUsecase) List(ctx context.Context, actor domain.Actor, role *domain.Role) ([]domain.UserSummary, error) {
	return s.listFn(ctx, actor, role)
}

func (s *stubUserUsecase) CreateUser(ctx context.Context, actor domain.Actor, in users.RegisterInput) (*domain.User, error) {
	return s.createFn(ctx, actor, in)
}

type zoneListFunc func(ctx context.Context, activeOnly bool) ([]domain.Zone, error)

func (f zoneListFunc) List(ctx context.Context, activeOnly bool) ([]domain.Zone, error) {
	return f(ctx, activeOnly)
}

type statsFunc func(ctx context.Context, actor domain.Actor) (domain.Stats, error)

func (f statsFunc) Get(ctx context.Context, actor domain.Actor) (domain.Stats, error) {
	return f(ctx, actor)
}

// newRequest builds a request as the router would hand it over: optional
// authenticated actor and chi URL params as name/value pairs.
func newRequest(method, target, body string, actor *domain.Actor, params ...string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := req.Context()
	if actor != nil {
		ctx = auth.WithActor(ctx, *actor)
	}
	if len(params) > 0 {
		rc := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rc.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return req.WithContext(ctx)
}
