package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	util "github.com/spec-kit/support-desk/pkg/util"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	store      repository.Store
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, store repository.Store) *AuthService {
	return &AuthService{
		store:      store,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new operator account. Role defaults to agent.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || !strings.Contains(email, "@") || password == "" {
		return nil, util.NewValidationError("name, email and password required", nil)
	}
	if role == "" {
		role = domain.RoleAgent
	}
	if !role.Valid() {
		return nil, util.NewValidationError("unknown role", map[string]any{"role": role})
	}

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, util.NewValidationError("email already registered", map[string]any{"email": email})
	} else if !util.IsNotFound(err) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates an operator by email and password and returns a
// role-bearing token. Inactive accounts cannot log in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if util.IsNotFound(err) {
			return nil, "", time.Time{}, util.NewUnauthenticated("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, util.NewUnauthenticated("invalid credentials")
	}
	if !user.Active {
		return nil, "", time.Time{}, util.NewForbidden("user inactive")
	}

	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// CurrentUser resolves the authenticated caller's account.
func (s *AuthService) CurrentUser(ctx context.Context, ident *auth.Identity) (*domain.User, error) {
	if ident == nil {
		return nil, util.NewUnauthenticated("authentication required")
	}
	return s.store.Users().GetByID(ctx, ident.SubjectID)
}

// ListUsers returns all operator accounts for assignment pickers.
func (s *AuthService) ListUsers(ctx context.Context, ident *auth.Identity) ([]domain.User, error) {
	if err := ident.Require(auth.CapTicketRead); err != nil {
		return nil, err
	}
	return s.store.Users().List(ctx)
}
