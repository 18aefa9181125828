package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/platform/config"
	pfirestore "github.com/saifelleuhci/kanouwood2/internal/platform/firestore"
	"github.com/saifelleuhci/kanouwood2/internal/platform/secrets"
	platformstorage "github.com/saifelleuhci/kanouwood2/internal/platform/storage"
	"github.com/saifelleuhci/kanouwood2/internal/repositories"
	firestoreRepo "github.com/saifelleuhci/kanouwood2/internal/repositories/firestore"
	"github.com/saifelleuhci/kanouwood2/internal/repositories/sqlite"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

const defaultSecretsFallback = ".secrets.local"

// loadConfig builds the secret resolver from the raw environment first so
// secret:// references in the remaining settings can be resolved by Load.
func loadConfig(ctx context.Context) (config.Config, *secrets.Resolver, error) {
	opts := []config.Option{config.WithEnvFile(envFile)}
	lookup, err := config.Lookup(opts...)
	if err != nil {
		return config.Config{}, nil, err
	}

	project := firstValue(lookup, "KANOUWOOD_SECRETS_PROJECT_ID", "KANOUWOOD_FIREBASE_PROJECT_ID")
	fallback := firstValue(lookup, "KANOUWOOD_SECRETS_FALLBACK_FILE")
	if fallback == "" {
		fallback = defaultSecretsFallback
	}
	resolver := secrets.NewResolver(ctx,
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithProject(project),
		secrets.WithFallbackFile(fallback),
	)

	cfg, err := config.Load(ctx, append(opts, config.WithSecretResolver(resolver))...)
	if err != nil {
		_ = resolver.Close()
		return config.Config{}, nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, resolver, nil
}

func firstValue(lookup func(string) (string, bool), keys ...string) string {
	for _, key := range keys {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func openRegistry(ctx context.Context, cfg config.Config) (repositories.Registry, error) {
	switch cfg.Store.Backend {
	case config.StoreSQLite:
		store, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("row store ready", zap.String("backend", config.StoreSQLite), zap.String("path", cfg.Store.SQLitePath))
		return store, nil
	default:
		provider := pfirestore.NewProvider(cfg.Firestore)
		registry, err := firestoreRepo.NewRegistry(provider)
		if err != nil {
			_ = provider.Close()
			return nil, err
		}
		logger.Info("row store ready", zap.String("backend", config.StoreFirestore), zap.String("project", cfg.Firestore.ProjectID))
		return registry, nil
	}
}

// newUploader returns the product image uploader, a close func and the local
// directory to serve under /uploads (empty for GCS).
func newUploader(ctx context.Context, cfg config.Config) (platformstorage.Uploader, func(), string, error) {
	opts := []platformstorage.Option{
		platformstorage.WithMaxBytes(cfg.Storage.MaxUploadBytes),
		platformstorage.WithLogger(logger.Named("storage")),
	}
	if cfg.Storage.Backend == config.BlobLocal {
		uploader, err := platformstorage.NewLocalUploader(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL, opts...)
		if err != nil {
			return nil, nil, "", err
		}
		return uploader, func() {}, cfg.Storage.LocalDir, nil
	}

	client, err := cloudstorage.NewClient(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("initialise storage client: %w", err)
	}
	uploader, err := platformstorage.NewGCSUploader(client, cfg.Storage.ProductImagesBucket, cfg.Storage.PublicBaseURL, opts...)
	if err != nil {
		_ = client.Close()
		return nil, nil, "", err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}
	return uploader, closeFn, "", nil
}

// textSource picks the raw document source: the configured URL when set,
// otherwise the local file.
func textSource(cfg config.TextContentConfig) (textcontent.Source, error) {
	if url := strings.TrimSpace(cfg.SourceURL); url != "" {
		return textcontent.NewHTTPSource(url, &http.Client{Timeout: 10 * time.Second})
	}
	return textcontent.FileSource{Path: cfg.FilePath}, nil
}
