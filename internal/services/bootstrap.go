package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/repositories"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

// Seed is the bootstrap file format.
//
//	details:
//	  phone_number: "+216 96 794 242"
//	  catalog_url: "/CATALOGUE SOCRATE WOOD.pdf"
//	  hero_images: ["/files/logo.jpeg"]
//	categories: [Cuisine, Décoration]
//	admin_keys: ["..."]
type Seed struct {
	Details    *DetailsInput `yaml:"details"`
	Categories []string      `yaml:"categories"`
	AdminKeys  []string      `yaml:"admin_keys"`
}

// LoadSeed decodes a seed document, rejecting unknown keys. An empty document
// yields the zero Seed.
func LoadSeed(r io.Reader) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return Seed{}, fmt.Errorf("bootstrap: decode seed: %w", err)
	}
	return seed, nil
}

// BootstrapDeps bundles the inputs of Bootstrap.
type BootstrapDeps struct {
	Registry repositories.Registry
	// TextContentPath receives the default document when it does not exist.
	// Empty skips the write.
	TextContentPath string
	Logger          *zap.Logger
	Clock           func() time.Time
	IDs             func() string
	KeyGen          func() (string, error)
}

// BootstrapReport lists what Bootstrap changed.
type BootstrapReport struct {
	DetailsSeeded      bool
	CategoriesAdded    []string
	AdminKeysAdded     int
	GeneratedKey       string
	TextContentWritten bool
}

// Bootstrap seeds the details row, categories and admin keys and writes the
// default text content document. Running it again changes nothing.
func Bootstrap(ctx context.Context, deps BootstrapDeps, seed Seed) (BootstrapReport, error) {
	if deps.Registry == nil {
		return BootstrapReport{}, errors.New("bootstrap: registry is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := deps.IDs
	if ids == nil {
		ids = newULID
	}
	keyGen := deps.KeyGen
	if keyGen == nil {
		keyGen = GenerateAccessKey
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := clock().UTC()

	var report BootstrapReport

	seeded, err := seedDetails(ctx, deps.Registry.Details(), seed.Details, now)
	if err != nil {
		return report, err
	}
	report.DetailsSeeded = seeded

	added, err := seedCategories(ctx, deps.Registry.Categories(), seed.Categories, ids)
	if err != nil {
		return report, err
	}
	report.CategoriesAdded = added

	keys := deps.Registry.AdminKeys()
	for _, key := range seed.AdminKeys {
		key = strings.TrimSpace(key)
		if len(key) < minAccessKeyLength {
			return report, invalid("admin key must be at least %d characters", minAccessKeyLength)
		}
		if _, err := keys.FindByKey(ctx, key); err == nil {
			continue
		} else if !repositories.IsNotFound(err) {
			return report, translateRepositoryError("bootstrap: find admin key", err)
		}
		if err := keys.Insert(ctx, domain.AdminKey{ID: ids(), AccessKey: key, CreatedAt: now}); err != nil {
			return report, translateRepositoryError("bootstrap: insert admin key", err)
		}
		report.AdminKeysAdded++
	}
	count, err := keys.Count(ctx)
	if err != nil {
		return report, translateRepositoryError("bootstrap: count admin keys", err)
	}
	if count == 0 {
		key, err := keyGen()
		if err != nil {
			return report, fmt.Errorf("bootstrap: generate admin key: %w", err)
		}
		if err := keys.Insert(ctx, domain.AdminKey{ID: ids(), AccessKey: key, CreatedAt: now}); err != nil {
			return report, translateRepositoryError("bootstrap: insert admin key", err)
		}
		report.AdminKeysAdded++
		report.GeneratedKey = key
	}

	if deps.TextContentPath != "" {
		written, err := writeDefaultTextContent(deps.TextContentPath)
		if err != nil {
			return report, err
		}
		report.TextContentWritten = written
	}

	logger.Info("bootstrap complete",
		zap.Bool("detailsSeeded", report.DetailsSeeded),
		zap.Strings("categoriesAdded", report.CategoriesAdded),
		zap.Int("adminKeysAdded", report.AdminKeysAdded),
		zap.Bool("textContentWritten", report.TextContentWritten),
	)
	return report, nil
}

func seedDetails(ctx context.Context, repo repositories.DetailsRepository, input *DetailsInput, now time.Time) (bool, error) {
	if _, err := repo.Get(ctx); err == nil {
		return false, nil
	} else if !repositories.IsNotFound(err) {
		return false, translateRepositoryError("bootstrap: get details", err)
	}
	details := DefaultDetails()
	if input != nil {
		if v := strings.TrimSpace(input.PhoneNumber); v != "" {
			details.PhoneNumber = v
		}
		if v := strings.TrimSpace(input.CatalogURL); v != "" {
			details.CatalogURL = v
		}
		if len(input.HeroImages) > 0 {
			details.HeroImages = append([]string(nil), input.HeroImages...)
		}
	}
	details.CreatedAt = now
	details.UpdatedAt = now
	if err := repo.Save(ctx, details); err != nil {
		return false, translateRepositoryError("bootstrap: save details", err)
	}
	return true, nil
}

func seedCategories(ctx context.Context, repo repositories.CategoryRepository, names []string, ids func() string) ([]string, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return nil, translateRepositoryError("bootstrap: list categories", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[c.Slug] = struct{}{}
	}
	var added []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		slug := Slugify(name)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		if err := repo.Insert(ctx, domain.Category{ID: ids(), Name: name, Slug: slug}); err != nil {
			return added, translateRepositoryError("bootstrap: insert category", err)
		}
		seen[slug] = struct{}{}
		added = append(added, name)
	}
	return added, nil
}

func writeDefaultTextContent(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("bootstrap: stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("bootstrap: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(textcontent.Render(DefaultCopy())), 0o644); err != nil {
		return false, fmt.Errorf("bootstrap: write %s: %w", path, err)
	}
	return true, nil
}

// GenerateAccessKey returns a random URL-safe admin key.
func GenerateAccessKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
