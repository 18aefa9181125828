package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/platform/auth"
	"github.com/saifelleuhci/kanouwood2/internal/platform/httpx"
	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
	"github.com/saifelleuhci/kanouwood2/internal/services"
	"github.com/saifelleuhci/kanouwood2/internal/session"
)

// AdminKeyHeader carries an admin access key on API requests.
const AdminKeyHeader = "X-Admin-Key"

const (
	ReasonMissing = "missing"
	ReasonExpired = "expired"
)

// Authenticator verifies admin credentials. services.AdminAuthService
// satisfies it.
type Authenticator interface {
	VerifySession(ctx context.Context, token string) (*auth.Identity, error)
	VerifyBearer(ctx context.Context, idToken string) (*auth.Identity, error)
	VerifyAccessKey(ctx context.Context, key string) (*auth.Identity, error)
}

// RequireAdmin guards admin pages. Anonymous visitors are redirected to
// loginPath with the requested page as next; sessions whose credential no
// longer verifies are destroyed first.
func RequireAdmin(authenticator Authenticator, loginPath string) func(http.Handler) http.Handler {
	if authenticator == nil {
		panic("authenticator is required")
	}
	if loginPath == "" {
		loginPath = "/admin-auth"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, ok := SessionFromContext(ctx)
			if !ok || sess.User() == nil {
				redirectToLogin(w, r, loginPath, ReasonMissing)
				return
			}

			identity, err := VerifySessionUser(ctx, authenticator, sess)
			if err != nil {
				observability.FromContext(ctx).Info("admin session rejected", zap.String("uid", sess.User().UID), zap.Error(err))
				sess.Destroy()
				if errors.Is(err, services.ErrUnavailable) {
					http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
					return
				}
				redirectToLogin(w, r, loginPath, ReasonExpired)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, identity)))
		})
	}
}

// RequireAPIAdmin guards the admin JSON API. It accepts, in order, an
// X-Admin-Key header, a bearer ID token and a signed-in session.
func RequireAPIAdmin(authenticator Authenticator) func(http.Handler) http.Handler {
	if authenticator == nil {
		panic("authenticator is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var (
				identity *auth.Identity
				err      = services.ErrUnauthorized
			)
			switch {
			case strings.TrimSpace(r.Header.Get(AdminKeyHeader)) != "":
				identity, err = authenticator.VerifyAccessKey(ctx, r.Header.Get(AdminKeyHeader))
			case r.Header.Get("Authorization") != "":
				if token, ok := auth.ExtractBearerToken(r.Header.Get("Authorization")); ok {
					identity, err = authenticator.VerifyBearer(ctx, token)
				}
			default:
				if sess, ok := SessionFromContext(ctx); ok && sess.User() != nil {
					identity, err = VerifySessionUser(ctx, authenticator, sess)
					if err != nil {
						sess.Destroy()
					}
				}
			}
			if err != nil {
				if errors.Is(err, services.ErrUnavailable) {
					httpx.WriteError(ctx, w, httpx.NewError("unavailable", "authentication backend unavailable", http.StatusServiceUnavailable))
					return
				}
				status, code := http.StatusUnauthorized, "unauthenticated"
				if errors.Is(err, services.ErrForbidden) {
					status, code = http.StatusForbidden, "forbidden"
				}
				httpx.WriteError(ctx, w, httpx.NewError(code, "admin credentials required", status))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(ctx, identity)))
		})
	}
}

// HasAPICredentials reports whether the request authenticates itself without
// the session cookie, which exempts it from CSRF checks.
func HasAPICredentials(r *http.Request) bool {
	return strings.TrimSpace(r.Header.Get(AdminKeyHeader)) != "" || r.Header.Get("Authorization") != ""
}

// VerifySessionUser re-checks the credential stored with the session user.
func VerifySessionUser(ctx context.Context, authenticator Authenticator, sess *session.Session) (*auth.Identity, error) {
	user := sess.User()
	if user == nil {
		return nil, services.ErrUnauthorized
	}
	if auth.Method(user.Method) == auth.MethodAccessKey {
		return authenticator.VerifyAccessKey(ctx, sess.AuthToken())
	}
	return authenticator.VerifySession(ctx, sess.AuthToken())
}

func redirectToLogin(w http.ResponseWriter, r *http.Request, loginPath, reason string) {
	target := loginPath
	if u, err := url.Parse(loginPath); err == nil {
		q := u.Query()
		if r.Method == http.MethodGet {
			q.Set("next", r.URL.RequestURI())
		}
		if reason == ReasonExpired {
			q.Set("reason", reason)
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}
	http.Redirect(w, r, target, http.StatusFound)
}
