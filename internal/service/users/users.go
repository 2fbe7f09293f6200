package users

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"moto-dispatch/internal/access"
	"moto-dispatch/internal/apperr"
	"moto-dispatch/internal/auth"
	"moto-dispatch/internal/cache"
	"moto-dispatch/internal/domain"
	"moto-dispatch/internal/logx"
)

// Service coordinates accounts: registration, login, listings and password reset.
type Service struct {
	repo             userRepository
	hasher           passwordHasher
	tokens           tokenIssuer
	resets           cache.Store
	resetTTL         time.Duration
	operationTimeout time.Duration
	logger           logx.Logger
	newToken         func() string
}

// Config holds the Service knobs.
type Config struct {
	ResetTTL         time.Duration
	OperationTimeout time.Duration
}

// NewService creates and configures a users Service.
func NewService(r userRepository, h passwordHasher, t tokenIssuer, resets cache.Store, cfg Config, logger logx.Logger) *Service {
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		repo:             r,
		hasher:           h,
		tokens:           t,
		resets:           resets,
		resetTTL:         cfg.ResetTTL,
		operationTimeout: cfg.OperationTimeout,
		logger:           logger,
		newToken:         uuid.NewString,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Address  string
	Role     string
}

// LoginResult is what a successful login hands back.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

func validateRegister(in *RegisterInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = domain.NormalizePhone(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	if in.Name == "" {
		return apperr.Validation("nom", "is required")
	}
	if !domain.ValidatePhone(in.Phone) {
		return apperr.Validation("telephone", "must be 8 to 15 digits")
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return apperr.Validation("email", "is not an e-mail address")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return apperr.Validation("mot_de_passe", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength))
	}
	return nil
}

// Register signs up a client. Other roles are created by an admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	role := domain.RoleClient
	if strings.TrimSpace(in.Role) != "" {
		r, ok := domain.ParseRole(in.Role)
		if !ok {
			return nil, apperr.Validation("role", fmt.Sprintf("unknown role %q", in.Role))
		}
		if r != domain.RoleClient {
			return nil, apperr.Validation("role", fmt.Sprintf("self-registration is limited to %s, got %s", domain.RoleClient, r))
		}
	}
	return s.create(ctx, in, role)
}

// CreateUser lets an admin create an account of any role.
func (s *Service) CreateUser(ctx context.Context, actor domain.Actor, in RegisterInput) (*domain.User, error) {
	if err := access.Authorize(actor, access.OpManageUsers, nil); err != nil {
		return nil, err
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, apperr.Validation("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	return s.create(ctx, in, role)
}

func (s *Service) create(ctx context.Context, in RegisterInput, role domain.Role) (*domain.User, error) {
	if err := validateRegister(&in); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         role,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, apperr.FromContext(err)
	}
	s.logger.Info("user registered",
		logx.String("event", "user_registered"),
		logx.Int64("user_id", u.ID),
		logx.String("role", string(u.Role)),
	)
	return u, nil
}

// Login checks phone and password and issues a bearer token.
func (s *Service) Login(ctx context.Context, phone, password string) (LoginResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.repo.GetByPhone(ctx, domain.NormalizePhone(phone))
	if err != nil {
		return LoginResult{}, apperr.FromContext(err)
	}
	if u == nil {
		return LoginResult{}, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}
	ok, err := s.hasher.Compare(u.PasswordHash, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)
	}

	token, exp, err := s.tokens.Issue(*u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp, User: *u}, nil
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.repo.Get(ctx, actor.ID)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", actor.ID, apperr.ErrNotFound)
	}
	return u, nil
}

// List returns user summaries. Listing every role is reserved to admins;
// staff may list clients and couriers.
func (s *Service) List(ctx context.Context, actor domain.Actor, role *domain.Role) ([]domain.UserSummary, error) {
	op := access.OpListAllUsers
	if role != nil {
		op = access.OpListUsers
	}
	if err := access.Authorize(actor, op, nil); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	out, err := s.repo.ListSummaries(ctx, role)
	if err != nil {
		return nil, apperr.FromContext(err)
	}
	return out, nil
}

// RequestPasswordReset stores a single-use reset token for the account behind
// email. Unknown addresses succeed silently so accounts cannot be enumerated.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Validation("email", "is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return apperr.FromContext(err)
	}
	if u == nil {
		s.logger.Debug("password reset for unknown email")
		return nil
	}

	token := s.newToken()
	if err := s.resets.Set(ctx, resetKey(token), strconv.FormatInt(u.ID, 10), s.resetTTL); err != nil {
		return fmt.Errorf("store reset token: %w", apperr.FromContext(err))
	}
	// письмо отправляет внешний сервис, токен берется из лога
	s.logger.Info("password reset requested",
		logx.String("event", "password_reset_requested"),
		logx.Int64("user_id", u.ID),
		logx.String("email", u.Email),
		logx.String("reset_token", token),
		logx.Duration("ttl", s.resetTTL),
	)
	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Validation("token", "is required")
	}
	if len(password) < auth.MinPasswordLength {
		return apperr.Validation("mot_de_passe", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength))
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	raw, err := s.resets.GetDel(ctx, resetKey(token))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return apperr.Validation("token", "is invalid or expired")
		}
		return apperr.FromContext(err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("reset token payload %q: %w", raw, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	ok, err := s.repo.UpdatePassword(ctx, id, hash)
	if err != nil {
		return apperr.FromContext(err)
	}
	if !ok {
		return fmt.Errorf("user %d: %w", id, apperr.ErrNotFound)
	}
	s.logger.Info("password reset", logx.String("event", "password_reset"), logx.Int64("user_id", id))
	return nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, phone, password string) error {
	phone = domain.NormalizePhone(phone)
	if phone == "" {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return apperr.FromContext(err)
	}
	if existing != nil {
		return nil
	}
	_, err = s.create(ctx, RegisterInput{Name: "admin", Phone: phone, Password: password}, domain.RoleAdmin)
	return err
}

func resetKey(token string) string {
	return cache.Key("reset", token)
}
