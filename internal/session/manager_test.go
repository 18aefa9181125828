package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}

func newTestManager(t *testing.T) (*Manager, *fixedClock) {
	t.Helper()

	clock := &fixedClock{current: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	mgr, err := NewManager(Config{
		CookieName:  "test_session",
		HashKey:     []byte("12345678901234567890123456789012"),
		BlockKey:    []byte("abcdefghijklmnopqrstuv0123456789"),
		IdleTimeout: 10 * time.Minute,
		Lifetime:    2 * time.Hour,
		Now:         clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return mgr, clock
}

func signedInCookie(t *testing.T, mgr *Manager) (*http.Cookie, *Session) {
	t.Helper()
	sess, err := mgr.Load(httptest.NewRequest(http.MethodGet, "/admin", nil))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	sess.SignIn(User{UID: "uid-1", Email: "atelier@example.com", Roles: []string{"admin"}, Method: "session"}, "firebase-session-cookie", time.Time{})
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil {
		t.Fatalf("expected session cookie to be set")
	}
	return cookie, sess
}

func TestManager_SignInRoundTrip(t *testing.T) {
	mgr, clock := newTestManager(t)
	cookie, sess := signedInCookie(t, mgr)
	token, err := sess.EnsureCSRFToken()
	if err != nil || token == "" {
		t.Fatalf("expected csrf token: %v", err)
	}
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie = findCookie(rec.Result().Cookies(), "test_session")

	clock.current = clock.current.Add(5 * time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	loaded, err := mgr.Load(req)
	if err != nil {
		t.Fatalf("Load existing error: %v", err)
	}
	if loaded.User() == nil || loaded.User().Email != "atelier@example.com" {
		t.Fatalf("expected user to persist, got %+v", loaded.User())
	}
	if loaded.AuthToken() != "firebase-session-cookie" {
		t.Fatalf("expected auth token to persist")
	}
	if loaded.CSRFToken() != token {
		t.Fatalf("expected csrf token to persist")
	}
}

func TestSession_SignInRotatesIdentifiers(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := mgr.New()
	before := sess.ID()
	csrf, _ := sess.EnsureCSRFToken()

	limit := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	sess.SignIn(User{UID: "uid-1"}, "tok", limit)

	if sess.ID() == before {
		t.Fatal("expected session id rotation")
	}
	if sess.CSRFToken() == csrf {
		t.Fatal("expected csrf token reset")
	}
	if !sess.ExpiresAt().Equal(limit) {
		t.Fatalf("expected expiry capped to credential expiry, got %v", sess.ExpiresAt())
	}
}

func TestManager_IdleTimeout(t *testing.T) {
	mgr, clock := newTestManager(t)
	cookie, _ := signedInCookie(t, mgr)

	clock.current = clock.current.Add(20 * time.Minute)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookie)
	if _, err := mgr.Load(req); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestManager_AnonymousSessionNotWritten(t *testing.T) {
	mgr, _ := newTestManager(t)
	sess := mgr.New()
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("expected no cookie for untouched anonymous session")
	}
}

func TestManager_TamperedCookieStartsFresh(t *testing.T) {
	mgr, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "test_session", Value: "garbage"})
	sess, err := mgr.Load(req)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if sess.User() != nil {
		t.Fatal("expected anonymous session")
	}
}

func TestManager_Destroy(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, sess := signedInCookie(t, mgr)
	sess.Destroy()
	rec := httptest.NewRecorder()
	if err := mgr.Save(rec, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	cookie := findCookie(rec.Result().Cookies(), "test_session")
	if cookie == nil || cookie.MaxAge != -1 {
		t.Fatalf("expected session cookie cleared")
	}
}

func TestNewManagerValidatesKeys(t *testing.T) {
	if _, err := NewManager(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewManager(Config{HashKey: []byte("k"), BlockKey: []byte("short")}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for block key, got %v", err)
	}
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}
