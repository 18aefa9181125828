package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saifelleuhci/kanouwood2/internal/platform/auth"
	"github.com/saifelleuhci/kanouwood2/internal/services"
	"github.com/saifelleuhci/kanouwood2/internal/session"
)

type stubAuthenticator struct {
	sessions map[string]*auth.Identity
	bearers  map[string]*auth.Identity
	keys     map[string]*auth.Identity
}

func lookup(m map[string]*auth.Identity, key string) (*auth.Identity, error) {
	if id, ok := m[key]; ok {
		return id, nil
	}
	return nil, services.ErrUnauthorized
}

func (s stubAuthenticator) VerifySession(_ context.Context, token string) (*auth.Identity, error) {
	return lookup(s.sessions, token)
}

func (s stubAuthenticator) VerifyBearer(_ context.Context, token string) (*auth.Identity, error) {
	return lookup(s.bearers, token)
}

func (s stubAuthenticator) VerifyAccessKey(_ context.Context, key string) (*auth.Identity, error) {
	return lookup(s.keys, key)
}

func newTestManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Config{HashKey: []byte(strings.Repeat("k", 32))})
	require.NoError(t, err)
	return m
}

func signedInCookie(t *testing.T, m *session.Manager, user session.User, token string) *http.Cookie {
	t.Helper()
	sess := m.New()
	sess.SignIn(user, token, sess.ExpiresAt())
	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(identity.UID))
	})
}

func TestRequireAdmin(t *testing.T) {
	m := newTestManager(t)
	authn := stubAuthenticator{
		sessions: map[string]*auth.Identity{"good": {UID: "u1", Method: auth.MethodSession}},
		keys:     map[string]*auth.Identity{"local-key": {UID: "key:1", Method: auth.MethodAccessKey}},
	}
	handler := Session(m)(RequireAdmin(authn, "/admin-auth")(okHandler(t)))

	t.Run("anonymous redirects with next", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/products?page=2", nil))

		require.Equal(t, http.StatusFound, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "/admin-auth", loc.Path)
		require.Equal(t, "/admin/products?page=2", loc.Query().Get("next"))
	})

	t.Run("valid session passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(signedInCookie(t, m, session.User{UID: "u1", Method: string(auth.MethodSession)}, "good"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "u1", rec.Body.String())
	})

	t.Run("access key session passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(signedInCookie(t, m, session.User{UID: "key:1", Method: string(auth.MethodAccessKey)}, "local-key"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("revoked session is destroyed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(signedInCookie(t, m, session.User{UID: "u1"}, "revoked"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusFound, rec.Code)
		require.Contains(t, rec.Header().Get("Location"), "reason=expired")
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		require.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestRequireAPIAdmin(t *testing.T) {
	m := newTestManager(t)
	authn := stubAuthenticator{
		sessions: map[string]*auth.Identity{"good": {UID: "u1"}},
		bearers:  map[string]*auth.Identity{"id-token": {UID: "u2"}},
		keys:     map[string]*auth.Identity{"admin-key": {UID: "key:1"}},
	}
	handler := Session(m)(RequireAPIAdmin(authn)(okHandler(t)))

	cases := []struct {
		name    string
		prepare func(*http.Request)
		status  int
		body    string
	}{
		{name: "admin key", prepare: func(r *http.Request) { r.Header.Set(AdminKeyHeader, "admin-key") }, status: http.StatusOK, body: "key:1"},
		{name: "bearer", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer id-token") }, status: http.StatusOK, body: "u2"},
		{name: "session", prepare: func(r *http.Request) {
			r.AddCookie(signedInCookie(t, m, session.User{UID: "u1"}, "good"))
		}, status: http.StatusOK, body: "u1"},
		{name: "wrong key", prepare: func(r *http.Request) { r.Header.Set(AdminKeyHeader, "nope") }, status: http.StatusUnauthorized},
		{name: "malformed authorization", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }, status: http.StatusUnauthorized},
		{name: "anonymous", prepare: func(*http.Request) {}, status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
			tc.prepare(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				require.Equal(t, tc.body, rec.Body.String())
			} else {
				require.Contains(t, rec.Body.String(), `"error":"unauthenticated"`)
			}
		})
	}
}

func TestCSRF(t *testing.T) {
	m := newTestManager(t)
	var issued string
	handler := Session(m)(CSRF(CSRFConfig{Skip: HasAPICredentials})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issued = CSRFTokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin-auth", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotEmpty(t, issued)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1, "csrf token should persist the session")
	token := issued

	post := func(body string, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin-auth", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(defaultCSRFHeader, header)
		}
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, post("csrf_token="+url.QueryEscape(token), ""))
	require.Equal(t, http.StatusNoContent, post("", token))
	require.Equal(t, http.StatusForbidden, post("csrf_token=forged", ""))
	require.Equal(t, http.StatusForbidden, post("", ""))

	apiReq := httptest.NewRequest(http.MethodPost, "/api/admin/products", nil)
	apiReq.Header.Set(AdminKeyHeader, "k")
	apiRec := httptest.NewRecorder()
	handler.ServeHTTP(apiRec, apiReq)
	require.Equal(t, http.StatusNoContent, apiRec.Code)
}

func TestNoStore(t *testing.T) {
	rec := httptest.NewRecorder()
	NoStore()(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
