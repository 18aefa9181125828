package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/platform/auth"
	"github.com/saifelleuhci/kanouwood2/internal/repositories"
)

const minAccessKeyLength = 8

// AdminAuthServiceDeps bundles constructor inputs for admin authentication.
// Provider may be nil, in which case only access keys are accepted.
type AdminAuthServiceDeps struct {
	Provider      auth.Provider
	Keys          repositories.AdminKeyRepository
	AllowedEmails []string
	Logger        *zap.Logger
}

type adminAuthService struct {
	provider auth.Provider
	keys     repositories.AdminKeyRepository
	allowed  map[string]struct{}
	logger   *zap.Logger
}

func NewAdminAuthService(deps AdminAuthServiceDeps) (AdminAuthService, error) {
	if deps.Keys == nil {
		return nil, errors.New("admin auth service: admin key repository is required")
	}
	allowed := make(map[string]struct{}, len(deps.AllowedEmails))
	for _, email := range deps.AllowedEmails {
		if email = normalizeEmail(email); email != "" {
			allowed[email] = struct{}{}
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &adminAuthService{
		provider: deps.Provider,
		keys:     deps.Keys,
		allowed:  allowed,
		logger:   logger,
	}, nil
}

func (s *adminAuthService) Enabled() bool {
	return s.provider != nil
}

func (s *adminAuthService) SignIn(ctx context.Context, email, password string) (auth.Credentials, error) {
	if s.provider == nil {
		return auth.Credentials{}, fmt.Errorf("admin auth: %w: sign-in provider is not configured", ErrUnavailable)
	}
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return auth.Credentials{}, invalid("email and password are required")
	}
	creds, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return auth.Credentials{}, s.translateAuthError("sign in", err)
	}
	identity, err := s.admit(&creds.Identity)
	if err != nil {
		if revokeErr := s.provider.Revoke(ctx, creds.Identity.UID); revokeErr != nil {
			s.logger.Warn("admin auth: revoke rejected identity failed", zap.String("uid", creds.Identity.UID), zap.Error(revokeErr))
		}
		return auth.Credentials{}, err
	}
	creds.Identity = *identity
	return creds, nil
}

func (s *adminAuthService) VerifySession(ctx context.Context, token string) (*auth.Identity, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("admin auth: %w: sign-in provider is not configured", ErrUnavailable)
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthorized
	}
	identity, err := s.provider.VerifySession(ctx, token)
	if err != nil {
		return nil, s.translateAuthError("verify session", err)
	}
	return s.admit(identity)
}

func (s *adminAuthService) VerifyBearer(ctx context.Context, idToken string) (*auth.Identity, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("admin auth: %w: sign-in provider is not configured", ErrUnavailable)
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrUnauthorized
	}
	identity, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, s.translateAuthError("verify bearer", err)
	}
	return s.admit(identity)
}

// VerifyAccessKey resolves an X-Admin-Key value to an admin identity.
func (s *adminAuthService) VerifyAccessKey(ctx context.Context, key string) (*auth.Identity, error) {
	key = strings.TrimSpace(key)
	if len(key) < minAccessKeyLength {
		return nil, ErrUnauthorized
	}
	record, err := s.keys.FindByKey(ctx, key)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, translateRepositoryError("admin auth: find key", err)
	}
	return &auth.Identity{
		UID:    "key:" + record.ID,
		Roles:  []string{auth.RoleAdmin},
		Method: auth.MethodAccessKey,
	}, nil
}

// SignOut revokes provider tokens for session and bearer identities. Access
// key identities have nothing to revoke.
func (s *adminAuthService) SignOut(ctx context.Context, identity *auth.Identity) error {
	if identity == nil || s.provider == nil || identity.Method == auth.MethodAccessKey || identity.UID == "" {
		return nil
	}
	if err := s.provider.Revoke(ctx, identity.UID); err != nil {
		return s.translateAuthError("sign out", err)
	}
	return nil
}

// admit grants the admin role when the identity may use the admin panel. An
// empty allow list admits every authenticated user.
func (s *adminAuthService) admit(identity *auth.Identity) (*auth.Identity, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}
	if len(s.allowed) > 0 && !identity.HasRole(auth.RoleAdmin) {
		if _, ok := s.allowed[normalizeEmail(identity.Email)]; !ok {
			return nil, fmt.Errorf("admin auth: %s: %w", identity.Email, ErrForbidden)
		}
	}
	out := *identity
	if !out.HasRole(auth.RoleAdmin) {
		out.Roles = append(append([]string(nil), out.Roles...), auth.RoleAdmin)
	}
	return &out, nil
}

func (s *adminAuthService) translateAuthError(op string, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionInvalid),
		errors.Is(err, auth.ErrTokenInvalid):
		return fmt.Errorf("admin auth: %s: %w: %w", op, ErrUnauthorized, err)
	case errors.Is(err, auth.ErrTooManyAttempts), errors.Is(err, auth.ErrUnavailable):
		return fmt.Errorf("admin auth: %s: %w: %w", op, ErrUnavailable, err)
	default:
		return fmt.Errorf("admin auth: %s: %w", op, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
