package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/platform/storage"
	"github.com/saifelleuhci/kanouwood2/internal/repositories"
)

const (
	maxProductNameLength        = 200
	maxProductDescriptionLength = 10000
	maxCategoryNameLength       = 80
)

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Products   repositories.ProductRepository
	Categories repositories.CategoryRepository
	Uploader   storage.Uploader
	Events     CatalogEventPublisher
	Recorder   CatalogRecorder
	Logger     *zap.Logger
	Clock      func() time.Time
	IDs        func() string
}

type catalogService struct {
	products   repositories.ProductRepository
	categories repositories.CategoryRepository
	uploader   storage.Uploader
	events     CatalogEventPublisher
	recorder   CatalogRecorder
	logger     *zap.Logger
	clock      func() time.Time
	ids        func() string
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Categories == nil {
		return nil, errors.New("catalog service: category repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	ids := deps.IDs
	if ids == nil {
		ids = newULID
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = noopCatalogRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		products:   deps.Products,
		categories: deps.Categories,
		uploader:   deps.Uploader,
		events:     deps.Events,
		recorder:   recorder,
		logger:     logger,
		clock:      func() time.Time { return clock().UTC() },
		ids:        ids,
	}, nil
}

func newULID() string {
	return strings.ToLower(ulid.MustNew(ulid.Now(), rand.Reader).String())
}

// FilterByCategory keeps products tagged with category, ignoring case and
// surrounding spaces. A product is tagged with every comma-separated label of
// its Category. AllCategories and the empty string keep everything. Order is
// preserved.
func FilterByCategory(products []domain.Product, category string) []domain.Product {
	category = strings.TrimSpace(category)
	if category == "" || category == domain.AllCategories {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		for _, tag := range p.Tags() {
			if strings.EqualFold(tag, category) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (s *catalogService) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, translateRepositoryError("catalog: list products", err)
	}
	return FilterByCategory(products, category), nil
}

func (s *catalogService) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, translateRepositoryError("catalog: list products", err)
	}
	featured := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return featured, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, invalid("product id is required")
	}
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, translateRepositoryError("catalog: get product", err)
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	input, err := normalizeProductInput(input)
	if err != nil {
		return domain.Product{}, err
	}
	now := s.clock()
	product := domain.Product{
		ID:          s.ids(),
		Name:        input.Name,
		Image:       input.Image,
		Category:    input.Category,
		Featured:    input.Featured,
		Description: input.Description,
		Price:       input.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return domain.Product{}, translateRepositoryError("catalog: insert product", err)
	}
	s.publish(ctx, CatalogActionCreated, product)
	return product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id string, input ProductInput) (domain.Product, error) {
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	input, err = normalizeProductInput(input)
	if err != nil {
		return domain.Product{}, err
	}
	current.Name = input.Name
	current.Image = input.Image
	current.Category = input.Category
	current.Featured = input.Featured
	current.Description = input.Description
	current.Price = input.Price
	current.UpdatedAt = s.clock()
	if err := s.products.Update(ctx, current); err != nil {
		return domain.Product{}, translateRepositoryError("catalog: update product", err)
	}
	s.publish(ctx, CatalogActionUpdated, current)
	return current, nil
}

func (s *catalogService) SetFeatured(ctx context.Context, id string, featured bool) (domain.Product, error) {
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if current.Featured == featured {
		return current, nil
	}
	current.Featured = featured
	current.UpdatedAt = s.clock()
	if err := s.products.Update(ctx, current); err != nil {
		return domain.Product{}, translateRepositoryError("catalog: update product", err)
	}
	s.publish(ctx, CatalogActionFeatured, current)
	return current, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("product id is required")
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return translateRepositoryError("catalog: delete product", err)
	}
	s.publish(ctx, CatalogActionDeleted, domain.Product{ID: id})
	return nil
}

func (s *catalogService) UploadProductImage(ctx context.Context, fileName string, body io.Reader) (string, error) {
	if s.uploader == nil {
		return "", fmt.Errorf("catalog: %w: image uploads are not configured", ErrUnavailable)
	}
	if body == nil {
		return "", invalid("image body is required")
	}
	result, err := s.uploader.UploadProductImage(ctx, storage.Upload{FileName: fileName, Body: body})
	s.recorder.RecordUpload(err)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidFileName), errors.Is(err, storage.ErrUnsupportedImage), errors.Is(err, storage.ErrTooLarge):
			return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
		default:
			return "", fmt.Errorf("catalog: upload image: %w", err)
		}
	}
	return result.PublicURL, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, translateRepositoryError("catalog: list categories", err)
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, name string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, invalid("category name is required")
	}
	if len([]rune(name)) > maxCategoryNameLength {
		return domain.Category{}, invalid("category name must be at most %d characters", maxCategoryNameLength)
	}
	slug := Slugify(name)
	if slug == "" {
		return domain.Category{}, invalid("category name must contain letters or digits")
	}
	existing, err := s.categories.List(ctx)
	if err != nil {
		return domain.Category{}, translateRepositoryError("catalog: list categories", err)
	}
	for _, c := range existing {
		if c.Slug == slug {
			return domain.Category{}, fmt.Errorf("catalog: category %q: %w", name, ErrConflict)
		}
	}
	category := domain.Category{ID: s.ids(), Name: name, Slug: slug}
	if err := s.categories.Insert(ctx, category); err != nil {
		return domain.Category{}, translateRepositoryError("catalog: insert category", err)
	}
	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("category id is required")
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return translateRepositoryError("catalog: delete category", err)
	}
	return nil
}

func (s *catalogService) publish(ctx context.Context, action string, product domain.Product) {
	if s.events == nil {
		return
	}
	event := CatalogEvent{
		Action:     action,
		ProductID:  product.ID,
		Category:   product.Category,
		OccurredAt: s.clock(),
	}
	err := s.events.PublishCatalogEvent(ctx, event)
	s.recorder.RecordCatalogEvent(action, err)
	if err != nil {
		s.logger.Warn("catalog: publish event failed",
			zap.String("action", action),
			zap.String("productId", product.ID),
			zap.Error(err),
		)
	}
}

func normalizeProductInput(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Image = strings.TrimSpace(input.Image)
	input.Category = strings.TrimSpace(input.Category)
	input.Description = strings.TrimSpace(input.Description)

	switch {
	case input.Name == "":
		return input, invalid("product name is required")
	case len([]rune(input.Name)) > maxProductNameLength:
		return input, invalid("product name must be at most %d characters", maxProductNameLength)
	case len([]rune(input.Description)) > maxProductDescriptionLength:
		return input, invalid("product description must be at most %d characters", maxProductDescriptionLength)
	case math.IsNaN(input.Price) || math.IsInf(input.Price, 0) || input.Price < 0:
		return input, invalid("product price must be a non-negative number")
	}
	return input, nil
}

// Slugify lower-cases name, strips accents and joins the remaining
// alphanumerics with hyphens: "Bols & Plats d'Été" becomes "bols-plats-d-ete".
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	slug := slugSanitizer.ReplaceAllString(strings.ToLower(folded), "-")
	return strings.Trim(slug, "-")
}

// CategoryNames returns the filter options for the storefront: AllCategories
// followed by the category names sorted case-insensitively.
func CategoryNames(categories []domain.Category) []string {
	names := make([]string, 0, len(categories)+1)
	for _, c := range categories {
		names = append(names, c.Name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return append([]string{domain.AllCategories}, names...)
}
