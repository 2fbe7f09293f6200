//go:build integration

package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/repository"
)

type UserRepositorySuite struct {
	suite.Suite
	repo  *repository.UserRepo
	zones *repository.ZoneRepo
}

func (s *UserRepositorySuite) SetupSuite() {
	s.Require().NotNil(tcPool, "tcPool must be initialized in TestMain")

	s.repo = repository.NewUserRepo(tcPool)
	s.zones = repository.NewZoneRepo(tcPool)
}

func (s *UserRepositorySuite) SetupTest() {
	s.Require().NoError(truncateAll(context.Background(), tcPool))
}

func (s *UserRepositorySuite) TestCreateAndLookups() {
	ctx := context.Background()

	in := &domain.User{
		Name:         "Awa Kone",
		Email:        "awa@example.ci",
		Phone:        "+2250700000001",
		Address:      "Cocody",
		Role:         domain.RoleClient,
		PasswordHash: "hash",
	}
	s.Require().NoError(s.repo.Create(ctx, in))
	s.Require().Positive(in.ID)

	got, err := s.repo.Get(ctx, in.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(in.Name, got.Name)
	s.Equal(in.Role, got.Role)

	got, err = s.repo.GetByPhone(ctx, in.Phone)
	s.Require().NoError(err)
	s.Equal(in.ID, got.ID)

	got, err = s.repo.GetByEmail(ctx, "AWA@example.ci")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(in.ID, got.ID)

	got, err = s.repo.Get(ctx, 9999)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *UserRepositorySuite) TestCreate_IsDuplicate() {
	ctx := context.Background()

	u1 := &domain.User{Name: "A", Phone: "+2250700000001", Role: domain.RoleClient, PasswordHash: "h"}
	u2 := &domain.User{Name: "B", Phone: "+2250700000001", Role: domain.RoleClient, PasswordHash: "h"}
	s.Require().NoError(s.repo.Create(ctx, u1))
	s.ErrorIs(s.repo.Create(ctx, u2), apperr.ErrConflict, "conflict for duplicate phone")
}

func (s *UserRepositorySuite) TestUpdatePassword() {
	ctx := context.Background()

	u := &domain.User{Name: "A", Phone: "+2250700000001", Role: domain.RoleCourier, PasswordHash: "old"}
	s.Require().NoError(s.repo.Create(ctx, u))

	ok, err := s.repo.UpdatePassword(ctx, u.ID, "new")
	s.Require().NoError(err)
	s.True(ok)

	got, err := s.repo.Get(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("new", got.PasswordHash)

	ok, err = s.repo.UpdatePassword(ctx, 9999, "new")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *UserRepositorySuite) TestListSummaries_FiltersByRole() {
	ctx := context.Background()
	for i, role := range []domain.Role{domain.RoleClient, domain.RoleCourier, domain.RoleCourier, domain.RoleAdmin} {
		u := &domain.User{Name: "u", Phone: "+22507000000" + string(rune('1'+i)) + "0", Role: role, PasswordHash: "h"}
		s.Require().NoError(s.repo.Create(ctx, u))
	}

	role := domain.RoleCourier
	couriers, err := s.repo.ListSummaries(ctx, &role)
	s.Require().NoError(err)
	s.Require().Len(couriers, 2)
	for _, c := range couriers {
		s.Equal(domain.RoleCourier, c.Role)
		s.Nil(c.ActiveDeliveryID)
		s.Equal(domain.AvailabilityAvailable, c.Availability())
	}

	all, err := s.repo.ListSummaries(ctx, nil)
	s.Require().NoError(err)
	s.Len(all, 4)
}

func (s *UserRepositorySuite) TestZones_SeededByMigrations() {
	ctx := context.Background()

	zones, err := s.zones.List(ctx, true)
	s.Require().NoError(err)
	s.Require().NotEmpty(zones)
	s.Equal("Cocody", zones[0].Name)
	s.Equal("1500", zones[0].Price.String())
}

func TestUserRepositorySuite(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}
