package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
)

type csrfContextKey struct{}

const (
	defaultCSRFHeader    = "X-CSRF-Token"
	defaultCSRFField     = "csrf_token"
	defaultMultipartSize = 32 << 20
)

// CSRFConfig controls where the token is read from on unsafe requests.
type CSRFConfig struct {
	HeaderName string
	FieldName  string
	// MaxMultipartMemory bounds multipart parsing when the token travels in a
	// multipart form field.
	MaxMultipartMemory int64
	// Skip exempts requests, e.g. API calls that carry their own credentials.
	Skip func(*http.Request) bool
}

// CSRF binds a token to the session. Safe methods ensure one exists; unsafe
// methods must echo it in the header or form field.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	header := cfg.HeaderName
	if header == "" {
		header = defaultCSRFHeader
	}
	field := cfg.FieldName
	if field == "" {
		field = defaultCSRFField
	}
	maxMemory := cfg.MaxMultipartMemory
	if maxMemory <= 0 {
		maxMemory = defaultMultipartSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
			token, err := sess.EnsureCSRFToken()
			if err != nil {
				observability.FromContext(r.Context()).Error("csrf token error", zap.Error(err))
				http.Error(w, "csrf token error", http.StatusInternalServerError)
				return
			}

			if isUnsafeMethod(r.Method) {
				submitted := r.Header.Get(header)
				if submitted == "" {
					submitted = formToken(r, field, maxMemory)
				}
				if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) != 1 {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), csrfContextKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CSRFTokenFromContext returns the token issued for the current request.
func CSRFTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(csrfContextKey{}).(string); ok {
		return token
	}
	return ""
}

func formToken(r *http.Request, field string, maxMemory int64) string {
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return ""
		}
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return ""
		}
	default:
		return ""
	}
	return r.PostFormValue(field)
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

// NoStore disables caching for admin responses.
func NoStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
