package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"github.com/saifelleuhci/kanouwood2/internal/platform/config"
)

const (
	defaultCallTimeout    = 5 * time.Second
	defaultSessionTTL     = 5 * 24 * time.Hour
	minFirebaseSessionTTL = 5 * time.Minute
	maxFirebaseSessionTTL = 14 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrTooManyAttempts    = errors.New("auth: too many sign-in attempts")
	ErrSessionInvalid     = errors.New("auth: session invalid or revoked")
	ErrTokenInvalid       = errors.New("auth: id token invalid")
	ErrUnavailable        = errors.New("auth: provider unavailable")
)

// Credentials is the outcome of a successful password sign-in. Token is a
// provider session token to be kept server side.
type Credentials struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// Provider is the authentication backend consumed by the admin sign-in flow.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (Credentials, error)
	VerifySession(ctx context.Context, token string) (*Identity, error)
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
	Revoke(ctx context.Context, uid string) error
}

// FirebaseProvider implements Provider with Firebase Authentication. Password
// sign-in goes through the Identity Toolkit API, the resulting ID token is
// exchanged for a Firebase session cookie which is what VerifySession checks.
type FirebaseProvider struct {
	client     *firebaseauth.Client
	toolkit    *identitytoolkit.Service
	sessionTTL time.Duration
	timeout    time.Duration
	now        func() time.Time
}

// FirebaseOption customises FirebaseProvider.
type FirebaseOption func(*FirebaseProvider)

// WithCallTimeout bounds every provider call.
func WithCallTimeout(d time.Duration) FirebaseOption {
	return func(p *FirebaseProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewFirebaseProvider initialises the Admin SDK and Identity Toolkit clients.
func NewFirebaseProvider(ctx context.Context, cfg config.FirebaseConfig, opts ...FirebaseOption) (*FirebaseProvider, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firebase project id is required")
	}
	if cfg.WebAPIKey == "" {
		return nil, errors.New("firebase web api key is required for password sign-in")
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.WebAPIKey))
	if err != nil {
		return nil, fmt.Errorf("initialise identity toolkit client: %w", err)
	}

	p := &FirebaseProvider{
		client:     client,
		toolkit:    toolkit,
		sessionTTL: clampSessionTTL(cfg.SessionTTL),
		timeout:    defaultCallTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

func (p *FirebaseProvider) SignInWithPassword(ctx context.Context, email, password string) (Credentials, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             strings.TrimSpace(email),
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return Credentials{}, classifySignInError(err)
	}

	token, err := p.client.VerifyIDToken(ctx, resp.IdToken)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	cookie, err := p.client.SessionCookie(ctx, resp.IdToken, p.sessionTTL)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: create session: %v", ErrUnavailable, err)
	}

	identity := identityFromToken(token, MethodSession)
	if identity.Email == "" {
		identity.Email = resp.Email
	}
	return Credentials{
		Identity:  *identity,
		Token:     cookie,
		ExpiresAt: p.now().Add(p.sessionTTL),
	}, nil
}

func (p *FirebaseProvider) VerifySession(ctx context.Context, sessionToken string) (*Identity, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, ErrSessionInvalid
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.client.VerifySessionCookieAndCheckRevoked(ctx, sessionToken)
	if err != nil {
		if firebaseauth.IsSessionCookieInvalid(err) || firebaseauth.IsSessionCookieRevoked(err) || firebaseauth.IsUserDisabled(err) {
			return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return identityFromToken(token, MethodSession), nil
}

func (p *FirebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return identityFromToken(token, MethodBearer), nil
}

// Revoke invalidates every refresh token and session cookie issued to uid.
func (p *FirebaseProvider) Revoke(ctx context.Context, uid string) error {
	if uid == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke tokens for %s: %w", uid, err)
	}
	return nil
}

func identityFromToken(token *firebaseauth.Token, method Method) *Identity {
	return &Identity{
		UID:    token.UID,
		Email:  claimString(token.Claims, emailClaim),
		Roles:  rolesFromClaims(token.Claims),
		Method: method,
	}
}

func clampSessionTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0:
		return defaultSessionTTL
	case ttl < minFirebaseSessionTTL:
		return minFirebaseSessionTTL
	case ttl > maxFirebaseSessionTTL:
		return maxFirebaseSessionTTL
	default:
		return ttl
	}
}

// classifySignInError maps Identity Toolkit error codes onto package errors.
func classifySignInError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	message := strings.ToUpper(apiErr.Message)
	switch {
	case strings.Contains(message, "TOO_MANY_ATTEMPTS"):
		return ErrTooManyAttempts
	case strings.Contains(message, "INVALID_PASSWORD"),
		strings.Contains(message, "EMAIL_NOT_FOUND"),
		strings.Contains(message, "INVALID_LOGIN_CREDENTIALS"),
		strings.Contains(message, "INVALID_EMAIL"),
		strings.Contains(message, "USER_DISABLED"),
		strings.Contains(message, "MISSING_PASSWORD"):
		return ErrInvalidCredentials
	case apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case apiErr.Code == http.StatusBadRequest:
		return ErrInvalidCredentials
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
