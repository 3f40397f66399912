package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/property-market/internal/auth"
	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/repository"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

// UserService manages marketplace accounts and issues access tokens.
type UserService struct {
	store    repository.Store
	tokenMgr *auth.TokenManager
}

// IssuedToken is a signed bearer token.
type IssuedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Role      string    `json:"role"`
}

// NewUserService builds the service.
func NewUserService(store repository.Store, tokens *auth.TokenManager) *UserService {
	return &UserService{store: store, tokenMgr: tokens}
}

// Upsert creates a customer on first sight of email and returns the stored
// user. Existing users are returned unchanged.
func (s *UserService) Upsert(ctx context.Context, email, name string) (*domain.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, apperrors.NewValidationError("email is required", nil)
	}

	existing, err := s.store.Users().GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, false, err
	}

	user := &domain.User{
		Email:  email,
		Name:   strings.TrimSpace(name),
		Role:   domain.RoleCustomer,
		Status: domain.UserStatusActive,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent first login
			existing, getErr := s.store.Users().GetByEmail(ctx, email)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return user, true, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

// RoleOf returns the role registered for email.
func (s *UserService) RoleOf(ctx context.Context, email string) (domain.UserRole, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", notFound(err, "user", email)
	}
	return user.Role, nil
}

// SetRole changes a user's role.
func (s *UserService) SetRole(ctx context.Context, id string, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(role)})
	}
	var user *domain.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, id)
		if err != nil {
			return notFound(err, "user", id)
		}
		if err := tx.Users().UpdateRole(ctx, id, role); err != nil {
			return err
		}
		user.Role = role
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// IssueToken signs a token for a registered user in good standing.
func (s *UserService) IssueToken(ctx context.Context, email string) (*IssuedToken, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("unknown user")
		}
		return nil, err
	}
	if user.Status == domain.UserStatusFraud {
		return nil, apperrors.NewForbidden("account flagged as fraud")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &IssuedToken{Token: token, ExpiresAt: exp, Role: string(user.Role)}, nil
}
