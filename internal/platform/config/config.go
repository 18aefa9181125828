// Package config loads runtime settings from defaults, a .env file, the
// environment and Secret Manager references.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	envPrefix = "KANOUWOOD_"

	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultPublicDir       = "public"
	defaultStoreBackend    = StoreFirestore
	defaultSQLitePath      = "kanouwood.db"
	defaultBlobBackend     = BlobGCS
	defaultImagesBucket    = "product-images"
	defaultGCSPublicBase   = "https://storage.googleapis.com"
	defaultLocalUploadDir  = "public/uploads"
	defaultLocalUploadURL  = "/uploads"
	defaultMaxUploadBytes  = 5 << 20
	defaultCookieName      = "kanouwood_admin"
	defaultSessionIdle     = 2 * time.Hour
	defaultSessionLifetime = 5 * 24 * time.Hour
	defaultTextContentPath = "public/data/text-content.txt"
	defaultSecretsFallback = ".secrets.local"
	defaultEnvironment     = "local"
)

// Store backends.
const (
	StoreFirestore = "firestore"
	StoreSQLite    = "sqlite"
)

// Blob backends.
const (
	BlobGCS   = "gcs"
	BlobLocal = "local"
)

// Config captures runtime configuration grouped by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Store       StoreConfig
	Firebase    FirebaseConfig
	Firestore   FirestoreConfig
	Storage     StorageConfig
	Session     SessionConfig
	Admin       AdminConfig
	TextContent TextContentConfig
	Events      EventsConfig
	Secrets     SecretsConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	PublicDir       string
	BaseURL         string
}

type LoggingConfig struct {
	Level       string
	Development bool
}

// StoreConfig selects the row store implementation.
type StoreConfig struct {
	Backend    string
	SQLitePath string
}

// FirebaseConfig stores Firebase project settings used by admin sign-in.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	WebAPIKey       string
	SessionTTL      time.Duration
}

// Enabled reports whether Firebase sign-in can be initialised.
func (c FirebaseConfig) Enabled() bool {
	return c.ProjectID != "" && c.WebAPIKey != ""
}

type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig configures where product images are uploaded.
type StorageConfig struct {
	Backend             string
	ProductImagesBucket string
	PublicBaseURL       string
	LocalDir            string
	MaxUploadBytes      int64
}

// SessionConfig configures the signed admin session cookie.
type SessionConfig struct {
	CookieName  string
	HashKey     string
	BlockKey    string
	IdleTimeout time.Duration
	Lifetime    time.Duration
	Secure      bool
}

// AdminConfig restricts who may use the admin panel. An empty allow list
// admits any account the auth provider signs in.
type AdminConfig struct {
	AllowedEmails []string
}

// TextContentConfig locates the site copy document.
type TextContentConfig struct {
	SourceURL string
	FilePath  string
	Watch     bool
}

// EventsConfig enables catalog change notifications. An empty topic disables
// publishing.
type EventsConfig struct {
	ProjectID string
	Topic     string
}

type SecretsConfig struct {
	ProjectID    string
	FallbackFile string
}

// SecretResolver resolves secret:// references.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts a function to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError lists missing or invalid fields.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the offending field names.
func (e *ValidationError) Fields() []string {
	return append([]string(nil), e.fields...)
}

// SecretError describes a failed secret reference.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env path. An empty path disables the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects values that take precedence over the OS environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv ignores the OS environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver sets the resolver used for secret:// and sm:// values.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secret = resolver }
}

// Lookup returns the merged key lookup Load uses (explicit map, then OS env,
// then .env) so callers can read settings needed before Load, such as the
// secrets project.
func Lookup(opts ...Option) (func(string) (string, bool), error) {
	options := newLoaderOptions(opts)
	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		value, ok := dotEnv[key]
		return value, ok
	}, nil
}

func newLoaderOptions(opts []Option) loaderOptions {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
			return "", errSecretResolverNotConfigured
		}),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// Load assembles configuration from defaults, .env, the environment and the
// secret resolver, then validates it.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := newLoaderOptions(opts)
	lookup, err := Lookup(opts...)
	if err != nil {
		return Config{}, err
	}
	env := prefixed(lookup)

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(env, "ENVIRONMENT", defaultEnvironment)),
		Server: ServerConfig{
			Port:            stringWithDefault(env, "SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(env, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(env, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(env, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(env, "SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
			PublicDir:       stringWithDefault(env, "SERVER_PUBLIC_DIR", defaultPublicDir),
			BaseURL:         strings.TrimRight(stringWithDefault(env, "SERVER_BASE_URL", ""), "/"),
		},
		Logging: LoggingConfig{
			Level:       stringWithDefault(lookup, "LOG_LEVEL", stringWithDefault(env, "LOG_LEVEL", "info")),
			Development: boolWithDefault(env, "LOG_DEVELOPMENT", false),
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(stringWithDefault(env, "STORE_BACKEND", defaultStoreBackend)),
			SQLitePath: stringWithDefault(env, "STORE_SQLITE_PATH", defaultSQLitePath),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(env, "FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(env, "FIREBASE_CREDENTIALS_FILE", ""),
			WebAPIKey:       stringWithDefault(env, "FIREBASE_WEB_API_KEY", ""),
			SessionTTL:      durationWithDefault(env, "FIREBASE_SESSION_TTL", defaultSessionLifetime),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(env, "FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(env, "FIRESTORE_EMULATOR_HOST", stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", "")),
		},
		Storage: StorageConfig{
			Backend:             strings.ToLower(stringWithDefault(env, "STORAGE_BACKEND", defaultBlobBackend)),
			ProductImagesBucket: stringWithDefault(env, "STORAGE_PRODUCT_IMAGES_BUCKET", defaultImagesBucket),
			PublicBaseURL:       strings.TrimRight(stringWithDefault(env, "STORAGE_PUBLIC_BASE_URL", ""), "/"),
			LocalDir:            stringWithDefault(env, "STORAGE_LOCAL_DIR", defaultLocalUploadDir),
			MaxUploadBytes:      int64(intWithDefault(env, "STORAGE_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		},
		Session: SessionConfig{
			CookieName:  stringWithDefault(env, "SESSION_COOKIE_NAME", defaultCookieName),
			HashKey:     stringWithDefault(env, "SESSION_HASH_KEY", ""),
			BlockKey:    stringWithDefault(env, "SESSION_BLOCK_KEY", ""),
			IdleTimeout: durationWithDefault(env, "SESSION_IDLE_TIMEOUT", defaultSessionIdle),
			Lifetime:    durationWithDefault(env, "SESSION_LIFETIME", defaultSessionLifetime),
			Secure:      boolWithDefault(env, "SESSION_SECURE", true),
		},
		Admin: AdminConfig{
			AllowedEmails: lowerAll(csvWithDefault(env, "ADMIN_ALLOWED_EMAILS")),
		},
		TextContent: TextContentConfig{
			SourceURL: stringWithDefault(env, "TEXT_CONTENT_SOURCE_URL", ""),
			FilePath:  stringWithDefault(env, "TEXT_CONTENT_PATH", defaultTextContentPath),
			Watch:     boolWithDefault(env, "TEXT_CONTENT_WATCH", false),
		},
		Events: EventsConfig{
			ProjectID: stringWithDefault(env, "EVENTS_PROJECT_ID", ""),
			Topic:     stringWithDefault(env, "EVENTS_TOPIC", ""),
		},
		Secrets: SecretsConfig{
			ProjectID:    stringWithDefault(env, "SECRETS_PROJECT_ID", ""),
			FallbackFile: stringWithDefault(env, "SECRETS_FALLBACK_FILE", defaultSecretsFallback),
		},
	}

	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Secrets.ProjectID == "" {
		cfg.Secrets.ProjectID = cfg.Firebase.ProjectID
	}
	if cfg.Storage.PublicBaseURL == "" {
		switch cfg.Storage.Backend {
		case BlobLocal:
			cfg.Storage.PublicBaseURL = defaultLocalUploadURL
		default:
			cfg.Storage.PublicBaseURL = defaultGCSPublicBase
		}
	}

	secretFields := []*string{
		&cfg.Firebase.WebAPIKey,
		&cfg.Session.HashKey,
		&cfg.Session.BlockKey,
	}
	for _, field := range secretFields {
		resolved, err := resolveSecret(ctx, *field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*field = resolved
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if cfg.Server.Port == "" {
		invalid = append(invalid, "Server.Port")
	}
	switch cfg.Store.Backend {
	case StoreFirestore:
		if cfg.Firestore.ProjectID == "" {
			invalid = append(invalid, "Firestore.ProjectID")
		}
	case StoreSQLite:
		if cfg.Store.SQLitePath == "" {
			invalid = append(invalid, "Store.SQLitePath")
		}
	default:
		invalid = append(invalid, "Store.Backend")
	}
	switch cfg.Storage.Backend {
	case BlobGCS:
		if cfg.Storage.ProductImagesBucket == "" {
			invalid = append(invalid, "Storage.ProductImagesBucket")
		}
	case BlobLocal:
		if cfg.Storage.LocalDir == "" {
			invalid = append(invalid, "Storage.LocalDir")
		}
	default:
		invalid = append(invalid, "Storage.Backend")
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		invalid = append(invalid, "Storage.MaxUploadBytes")
	}
	if len(cfg.Session.HashKey) < 32 {
		invalid = append(invalid, "Session.HashKey")
	}
	switch len(cfg.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		invalid = append(invalid, "Session.BlockKey")
	}
	if cfg.Session.IdleTimeout <= 0 {
		invalid = append(invalid, "Session.IdleTimeout")
	}
	if cfg.Session.Lifetime < cfg.Session.IdleTimeout {
		invalid = append(invalid, "Session.Lifetime")
	}
	if cfg.TextContent.SourceURL == "" && cfg.TextContent.FilePath == "" {
		invalid = append(invalid, "TextContent.FilePath")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "secret://") && !strings.HasPrefix(trimmed, "sm://") {
		return value, nil
	}
	ref := "secret://" + strings.TrimPrefix(strings.TrimPrefix(trimmed, "sm://"), "secret://")
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func prefixed(lookup func(string) (string, bool)) func(string) (string, bool) {
	return func(key string) (string, bool) {
		return lookup(envPrefix + key)
	}
}

func lowerAll(values []string) []string {
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	return values
}
