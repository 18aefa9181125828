package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/saifelleuhci/kanouwood2/internal/handlers"
	"github.com/saifelleuhci/kanouwood2/internal/httpserver"
	"github.com/saifelleuhci/kanouwood2/internal/platform/auth"
	"github.com/saifelleuhci/kanouwood2/internal/platform/config"
	"github.com/saifelleuhci/kanouwood2/internal/platform/jobs"
	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
	"github.com/saifelleuhci/kanouwood2/internal/services"
	"github.com/saifelleuhci/kanouwood2/internal/session"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the storefront, admin panel and admin API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, resolver, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer closeQuietly("secret resolver", resolver.Close)

	if !cmd.Flags().Changed("log-level") && !cmd.Flags().Changed("dev-logs") {
		configured, err := observability.NewLogger(observability.LoggerConfig{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return fmt.Errorf("failed to initialise logger: %w", err)
		}
		logger = configured.Named("kanouwood")
	}
	logger = logger.With(zap.String("env", cfg.Environment), zap.String("version", version))
	ctx = observability.WithLogger(ctx, logger)

	registry, err := openRegistry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open row store: %w", err)
	}
	defer closeQuietly("row store", registry.Close)

	uploader, closeUploads, uploadsDir, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeUploads()

	metrics := observability.NewMetrics()

	var events services.CatalogEventPublisher
	if topic := strings.TrimSpace(cfg.Events.Topic); topic != "" {
		client, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			return fmt.Errorf("initialise pubsub client: %w", err)
		}
		defer closeQuietly("pubsub client", client.Close)
		publisher, err := jobs.NewPubSubCatalogPublisher(client.Topic(topic))
		if err != nil {
			return err
		}
		defer publisher.Stop()
		events = publisher
		logger.Info("catalog events enabled", zap.String("topic", topic))
	}

	var provider auth.Provider
	if cfg.Firebase.Enabled() {
		firebase, err := auth.NewFirebaseProvider(ctx, cfg.Firebase)
		if err != nil {
			return fmt.Errorf("initialise firebase auth: %w", err)
		}
		provider = firebase
	} else {
		logger.Info("firebase sign-in disabled; only access keys are accepted")
	}

	source, err := textSource(cfg.TextContent)
	if err != nil {
		return fmt.Errorf("text content source: %w", err)
	}
	contentOpts := []textcontent.Option{
		textcontent.WithLogger(logger.Named("textcontent")),
		textcontent.WithRecorder(metrics),
	}
	var (
		copyProvider services.TextContentProvider
		watcher      *textcontent.Watcher
	)
	if cfg.TextContent.Watch && cfg.TextContent.SourceURL == "" {
		watcher, err = textcontent.NewWatcher(ctx, cfg.TextContent.FilePath, contentOpts...)
		if err != nil {
			return err
		}
		copyProvider = watcher
	} else {
		copyProvider = textcontent.NewFetcher(source, contentOpts...)
	}

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:   registry.Products(),
		Categories: registry.Categories(),
		Uploader:   uploader,
		Events:     events,
		Recorder:   metrics,
		Logger:     logger.Named("catalog"),
	})
	if err != nil {
		return err
	}
	content, err := services.NewContentService(services.ContentServiceDeps{
		Source:   source,
		Content:  copyProvider,
		Entries:  registry.TextContent(),
		Defaults: services.DefaultCopy(),
	})
	if err != nil {
		return err
	}
	details, err := services.NewDetailsService(services.DetailsServiceDeps{Details: registry.Details()})
	if err != nil {
		return err
	}
	adminAuth, err := services.NewAdminAuthService(services.AdminAuthServiceDeps{
		Provider:      provider,
		Keys:          registry.AdminKeys(),
		AllowedEmails: cfg.Admin.AllowedEmails,
		Logger:        logger.Named("auth"),
	})
	if err != nil {
		return err
	}

	sessions, err := session.NewManager(session.Config{
		CookieName:   cfg.Session.CookieName,
		HashKey:      []byte(cfg.Session.HashKey),
		BlockKey:     []byte(cfg.Session.BlockKey),
		CookieSecure: cfg.Session.Secure,
		IdleTimeout:  cfg.Session.IdleTimeout,
		Lifetime:     cfg.Session.Lifetime,
	})
	if err != nil {
		return fmt.Errorf("initialise sessions: %w", err)
	}

	server, err := httpserver.New(httpserver.Config{
		Address:        listenAddress(cfg.Server),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		PublicDir:      cfg.Server.PublicDir,
		UploadsDir:     uploadsDir,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		Logger:         logger.Named("http"),
		Metrics:        metrics,
		TraceProject:   cfg.Firebase.ProjectID,
		Sessions:       sessions,
		Catalog:        catalog,
		Content:        content,
		Details:        details,
		Auth:           adminAuth,
		Health: handlers.NewHealthHandlers(
			handlers.WithHealthVersion(version),
			handlers.WithHealthCheck("store", registry),
		),
		UploadsEnabled: true,
	})
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("kanouwood listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if watcher != nil {
		group.Go(func() error { return watcher.Run(groupCtx) })
	}
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown signal received; draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server))
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return group.Wait()
}

func listenAddress(cfg config.ServerConfig) string {
	if strings.Contains(cfg.Port, ":") {
		return cfg.Port
	}
	return ":" + cfg.Port
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout <= 0 {
		return 10 * time.Second
	}
	return cfg.ShutdownTimeout
}

func closeQuietly(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn(name+" close error", zap.Error(err))
	}
}
