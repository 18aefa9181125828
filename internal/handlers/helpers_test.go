package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/httpserver/middleware"
	"github.com/saifelleuhci/kanouwood2/internal/platform/auth"
	"github.com/saifelleuhci/kanouwood2/internal/platform/storage"
	"github.com/saifelleuhci/kanouwood2/internal/repositories/sqlite"
	"github.com/saifelleuhci/kanouwood2/internal/services"
	"github.com/saifelleuhci/kanouwood2/internal/session"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

const testDocument = "# Hero\nhero_title: Bienvenue à l'atelier\n# Contact Information\nphone: +216 96 794 242\nfax: 123\n"

var testNow = time.Date(2025, 6, 7, 20, 40, 0, 0, time.UTC)

type testStack struct {
	store     *sqlite.Store
	catalog   services.CatalogService
	content   services.ContentService
	details   services.DetailsService
	views     *Views
	uploadDir string
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	dir := t.TempDir()
	docPath := filepath.Join(dir, "text-content.txt")
	require.NoError(t, os.WriteFile(docPath, []byte(testDocument), 0o644))
	source := textcontent.FileSource{Path: docPath}

	uploadDir := filepath.Join(dir, "uploads")
	uploader, err := storage.NewLocalUploader(uploadDir, "/uploads")
	require.NoError(t, err)

	clock := func() time.Time { return testNow }
	ids := sequentialIDs()

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:   store.Products(),
		Categories: store.Categories(),
		Uploader:   uploader,
		Clock:      clock,
		IDs:        ids,
	})
	require.NoError(t, err)
	content, err := services.NewContentService(services.ContentServiceDeps{
		Source:   source,
		Content:  textcontent.NewFetcher(source),
		Entries:  store.TextContent(),
		Defaults: services.DefaultCopy(),
		Clock:    clock,
		IDs:      ids,
	})
	require.NoError(t, err)
	details, err := services.NewDetailsService(services.DetailsServiceDeps{Details: store.Details(), Clock: clock})
	require.NoError(t, err)

	views, err := NewViews(nil)
	require.NoError(t, err)

	return &testStack{
		store:     store,
		catalog:   catalog,
		content:   content,
		details:   details,
		views:     views,
		uploadDir: uploadDir,
	}
}

func sequentialIDs() func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%02d", n)
	}
}

func (s *testStack) mustProduct(t *testing.T, input services.ProductInput) domain.Product {
	t.Helper()
	p, err := s.catalog.CreateProduct(context.Background(), input)
	require.NoError(t, err)
	return p
}

func newSessionManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(session.Config{HashKey: []byte(strings.Repeat("k", 32))})
	require.NoError(t, err)
	return m
}

// withIdentity stands in for RequireAdmin in handler-level tests.
func withIdentity(identity *auth.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

func (s *testStack) adminRouter(t *testing.T, authService services.AdminAuthService) http.Handler {
	t.Helper()
	r := chi.NewRouter()
	r.Use(middleware.Session(newSessionManager(t)))
	r.Use(withIdentity(&auth.Identity{UID: "u1", Email: "admin@socratewood.tn", Roles: []string{auth.RoleAdmin}}))
	r.Route(AdminBasePath, NewAdminHandlers(AdminHandlersDeps{
		Views:          s.views,
		Catalog:        s.catalog,
		Content:        s.content,
		Details:        s.details,
		Auth:           NewAuthHandlers(s.views, authService),
		UploadsEnabled: true,
	}).Routes)
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postForm(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

const testAccessKey = "atelier-local-key"

func (s *testStack) authService(t *testing.T) services.AdminAuthService {
	t.Helper()
	require.NoError(t, s.store.AdminKeys().Insert(context.Background(), domain.AdminKey{ID: "k1", AccessKey: testAccessKey, CreatedAt: testNow}))
	svc, err := services.NewAdminAuthService(services.AdminAuthServiceDeps{Keys: s.store.AdminKeys()})
	require.NoError(t, err)
	return svc
}
