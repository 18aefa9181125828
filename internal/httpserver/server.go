// Package httpserver assembles the storefront, admin panel and admin API
// behind one chi router.
package httpserver

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/handlers"
	custommw "github.com/saifelleuhci/kanouwood2/internal/httpserver/middleware"
	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
	"github.com/saifelleuhci/kanouwood2/internal/render"
	"github.com/saifelleuhci/kanouwood2/internal/services"
)

const (
	apiBasePath        = "/api/admin"
	uploadsPath        = "/uploads"
	defaultMaxUpload   = 10 << 20
	formOverheadBytes  = 1 << 20
	defaultReqTimeout  = 60 * time.Second
	defaultReadTimeout = 15 * time.Second
)

// Config holds the runtime options and collaborators of the HTTP server.
type Config struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration

	// PublicDir holds static files served for any path no route claims.
	PublicDir string
	// UploadsDir serves locally stored product images under /uploads.
	UploadsDir     string
	MaxUploadBytes int64

	Logger       *zap.Logger
	Metrics      *observability.Metrics
	TraceProject string

	Sessions custommw.SessionStore
	Catalog  services.CatalogService
	Content  services.ContentService
	Details  services.DetailsService
	Auth     services.AdminAuthService
	Health   *handlers.HealthHandlers
	// UploadsEnabled shows file inputs on the admin product form.
	UploadsEnabled bool
}

// New constructs the HTTP server with its middleware stack and routes.
func New(cfg Config) (*http.Server, error) {
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}, nil
}

// NewHandler builds the router without binding an address.
func NewHandler(cfg Config) (http.Handler, error) {
	switch {
	case cfg.Sessions == nil:
		return nil, errors.New("httpserver: session store is required")
	case cfg.Catalog == nil, cfg.Content == nil, cfg.Details == nil:
		return nil, errors.New("httpserver: catalog, content and details services are required")
	case cfg.Auth == nil:
		return nil, errors.New("httpserver: admin auth service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultReqTimeout
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}

	views, err := handlers.NewViews(render.NewMarkdown())
	if err != nil {
		return nil, err
	}
	storefront := handlers.NewStorefrontHandlers(views, cfg.Catalog, cfg.Content, cfg.Details)
	authHandlers := handlers.NewAuthHandlers(views, cfg.Auth)
	admin := handlers.NewAdminHandlers(handlers.AdminHandlersDeps{
		Views:          views,
		Catalog:        cfg.Catalog,
		Content:        cfg.Content,
		Details:        cfg.Details,
		Auth:           authHandlers,
		UploadsEnabled: cfg.UploadsEnabled,
	})
	api := handlers.NewAdminAPIHandlers(cfg.Catalog, cfg.Content, cfg.Details)
	health := cfg.Health
	if health == nil {
		health = handlers.NewHealthHandlers()
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLogger(logger))
	router.Use(observability.Trace(cfg.TraceProject))
	router.Use(observability.RequestLogger())
	router.Use(observability.Recovery(logger))
	router.Use(cfg.Metrics.Middleware())
	router.Use(chimw.Timeout(timeout))

	health.Routes(router)
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics.Handler())
	}
	if dir := strings.TrimSpace(cfg.UploadsDir); dir != "" {
		router.Handle(uploadsPath+"/*", http.StripPrefix(uploadsPath+"/", http.FileServer(http.Dir(dir))))
	}

	storefront.Routes(router)

	router.Group(func(r chi.Router) {
		r.Use(custommw.Session(cfg.Sessions))
		r.Use(custommw.NoStore())
		r.Use(custommw.CSRF(custommw.CSRFConfig{}))
		authHandlers.Routes(r)
	})

	router.Route(handlers.AdminBasePath, func(r chi.Router) {
		r.Use(custommw.Session(cfg.Sessions))
		r.Use(custommw.NoStore())
		r.Use(chimw.RequestSize(maxUpload + formOverheadBytes))
		r.Use(custommw.RequireAdmin(cfg.Auth, handlers.LoginPath))
		r.Use(custommw.CSRF(custommw.CSRFConfig{MaxMultipartMemory: maxUpload}))
		admin.Routes(r)
	})

	router.Route(apiBasePath, func(r chi.Router) {
		r.Use(custommw.Session(cfg.Sessions))
		r.Use(custommw.NoStore())
		r.Use(chimw.RequestSize(maxUpload + formOverheadBytes))
		r.Use(custommw.CSRF(custommw.CSRFConfig{Skip: custommw.HasAPICredentials}))
		r.Use(custommw.RequireAPIAdmin(cfg.Auth))
		api.Routes(r)
	})

	router.NotFound(publicFiles(cfg.PublicDir, storefront.NotFound))
	return router, nil
}

// publicFiles serves regular files from dir and falls back to notFound for
// directories and missing paths.
func publicFiles(dir string, notFound http.HandlerFunc) http.HandlerFunc {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return notFound
	}
	files := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			notFound(w, r)
			return
		}
		name := path.Clean("/" + r.URL.Path)
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil || info.IsDir() {
			notFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}
}
