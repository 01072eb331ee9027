package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"studioapi/internal/auth"
	"studioapi/internal/cache"
	"studioapi/internal/metrics"
	"studioapi/internal/model"
	"studioapi/internal/repository"
)

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Admin     model.AdminView
}

// AdminInput creates or updates an admin. Empty fields are left unchanged on update.
type AdminInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Auth defines admin authentication and account management.
type Auth interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Me(ctx context.Context, claims *auth.Claims) (*model.AdminView, error)

	ListAdmins(ctx context.Context, p ListParams) (*ListResult[model.AdminView], error)
	GetAdmin(ctx context.Context, id string) (*model.AdminView, error)
	CreateAdmin(ctx context.Context, in AdminInput) (*model.AdminView, error)
	UpdateAdmin(ctx context.Context, id string, in AdminInput) (*model.AdminView, error)
	DeleteAdmin(ctx context.Context, actorID, id string) error
}

// AuthService authenticates admins with bcrypt passwords and JWT sessions.
// Logged-out token ids are kept in the cache until the token would expire.
type AuthService struct {
	admins  repository.Repository[model.Admin]
	tokens  *auth.TokenManager
	revoked cache.Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
	clock   clockwork.Clock

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService constructs an AuthService.
func NewAuthService(admins repository.Repository[model.Admin], tokens *auth.TokenManager, revoked cache.Cache, opts ...Option) *AuthService {
	o := options{logger: zap.NewNop(), clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return &AuthService{
		admins:  admins,
		tokens:  tokens,
		revoked: revoked,
		metrics: o.metrics,
		logger:  o.logger,
		clock:   o.clock,
	}
}

func revokedKey(jti string) string { return keyPrefix + "revoked:" + jti }

func (s *AuthService) findByEmail(ctx context.Context, email string) (*model.Admin, error) {
	res, err := s.admins.List(ctx, repository.PageQuery{
		Limit:  1,
		Filter: map[string]string{"email": model.NormalizeEmail(email)},
		Sort:   repository.SortOldest,
	})
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if len(res.Items) == 0 {
		return nil, ErrNotFound
	}
	return &res.Items[0], nil
}

// burnHash spends a bcrypt comparison so unknown emails take as long as wrong passwords.
func (s *AuthService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = auth.HashPassword(uuid.NewString())
	})
	_ = auth.CheckPassword(s.dummyHash, password)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		s.metrics.Login("invalid")
		return nil, ErrInvalidCredentials
	}

	admin, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		s.burnHash(password)
		s.metrics.Login("invalid")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.Login("error")
		return nil, err
	}

	if err := auth.CheckPassword(admin.PasswordHash, password); err != nil {
		s.metrics.Login("invalid")
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("password_check_failed", zap.String("admin_id", admin.ID), zap.Error(err))
		}
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(admin.ID, admin.Email, admin.Name)
	if err != nil {
		s.metrics.Login("error")
		return nil, err
	}

	now := s.clock.Now().UTC()
	admin.LastLoginAt = &now
	if _, err := s.admins.Update(ctx, admin); err != nil {
		s.logger.Warn("last_login_update_failed", zap.String("admin_id", admin.ID), zap.Error(err))
	}

	s.metrics.Login("ok")
	s.logger.Info("admin_login", zap.String("admin_id", admin.ID))
	return &Session{Token: token, ExpiresAt: claims.Expiry(), Admin: admin.View()}, nil
}

// Authenticate fails closed when the revocation list or the admin record
// cannot be read. Tokens of deleted admins are rejected.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	revoked, err := s.revoked.Exists(ctx, revokedKey(claims.ID))
	if err != nil {
		s.logger.Error("revocation_check_failed", zap.Error(err))
		return nil, fmt.Errorf("%w: revocation check failed", ErrUnauthorized)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}
	if _, err := s.admins.FindByID(ctx, claims.AdminID()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: admin no longer exists", ErrUnauthorized)
		}
		s.logger.Error("admin_lookup_failed", zap.String("admin_id", claims.AdminID()), zap.Error(err))
		return nil, fmt.Errorf("%w: admin lookup failed", ErrUnauthorized)
	}
	return claims, nil
}

func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrUnauthorized
	}
	ttl := claims.Expiry().Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedKey(claims.ID), []byte("1"), ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.logger.Info("admin_logout", zap.String("admin_id", claims.AdminID()))
	return nil
}

func (s *AuthService) Me(ctx context.Context, claims *auth.Claims) (*model.AdminView, error) {
	if claims == nil {
		return nil, ErrUnauthorized
	}
	return s.GetAdmin(ctx, claims.AdminID())
}

// EnsureAdmin creates the bootstrap admin unless one with that email exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, in AdminInput) (bool, error) {
	_, err := s.findByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := s.CreateAdmin(ctx, in); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AuthService) ListAdmins(ctx context.Context, p ListParams) (*ListResult[model.AdminView], error) {
	if len(p.Filter) > 0 {
		return nil, ErrInvalidFilter
	}
	limit, offset := p.Limit, p.Offset
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.admins.List(ctx, repository.PageQuery{Limit: limit, Offset: offset, Sort: repository.SortOldest})
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	views := make([]model.AdminView, 0, len(res.Items))
	for i := range res.Items {
		views = append(views, res.Items[i].View())
	}
	return &ListResult[model.AdminView]{Items: views, Total: res.Total, Limit: limit, Offset: offset}, nil
}

func (s *AuthService) GetAdmin(ctx context.Context, id string) (*model.AdminView, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	a, err := s.admins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	v := a.View()
	return &v, nil
}

func (s *AuthService) CreateAdmin(ctx context.Context, in AdminInput) (*model.AdminView, error) {
	if _, err := s.findByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("%w: admin %s already exists", ErrConflict, model.NormalizeEmail(in.Email))
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, &model.ValidationError{Field: "password", Message: err.Error()}
	}

	now := s.clock.Now().UTC()
	a := &model.Admin{
		Base:         model.Base{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return nil, err
	}
	created, err := s.admins.Create(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin_created", zap.String("admin_id", created.ID))
	v := created.View()
	return &v, nil
}

func (s *AuthService) UpdateAdmin(ctx context.Context, id string, in AdminInput) (*model.AdminView, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	a, err := s.admins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	if in.Email != "" && model.NormalizeEmail(in.Email) != a.Email {
		other, err := s.findByEmail(ctx, in.Email)
		if err == nil && other.ID != a.ID {
			return nil, fmt.Errorf("%w: email already in use", ErrConflict)
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		a.Email = in.Email
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		a.Name = name
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, &model.ValidationError{Field: "password", Message: err.Error()}
		}
		a.PasswordHash = hash
	}
	a.Normalize()
	if err := a.Validate(); err != nil {
		return nil, err
	}
	a.UpdatedAt = s.clock.Now().UTC()

	updated, err := s.admins.Update(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("update admin: %w", err)
	}
	v := updated.View()
	return &v, nil
}

// DeleteAdmin refuses to remove the caller's own account or the last admin.
func (s *AuthService) DeleteAdmin(ctx context.Context, actorID, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if id == actorID {
		return fmt.Errorf("%w: cannot delete your own account", ErrConflict)
	}
	if _, err := s.admins.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get admin: %w", err)
	}
	n, err := s.admins.Count(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n <= 1 {
		return fmt.Errorf("%w: cannot delete the last admin", ErrConflict)
	}
	if err := s.admins.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	s.logger.Info("admin_deleted", zap.String("admin_id", id))
	return nil
}
