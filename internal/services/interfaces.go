// Package services holds the storefront and admin use cases on top of the
// repositories, blob store and auth provider.
package services

import (
	"context"
	"io"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/platform/auth"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

// CatalogService manages products and categories.
type CatalogService interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	FeaturedProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, input ProductInput) (domain.Product, error)
	SetFeatured(ctx context.Context, id string, featured bool) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UploadProductImage(ctx context.Context, fileName string, body io.Reader) (string, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ContentService serves the parsed site copy and manages text entries.
type ContentService interface {
	Current(ctx context.Context) textcontent.TextContent
	Lint(ctx context.Context) (LintReport, error)
	ListEntries(ctx context.Context) ([]domain.TextContentEntry, error)
	UpsertEntry(ctx context.Context, input TextEntryInput) (domain.TextContentEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// DetailsService manages the site contact details.
type DetailsService interface {
	Get(ctx context.Context) (domain.Details, error)
	Update(ctx context.Context, input DetailsInput) (domain.Details, error)
}

// AdminAuthService authenticates admin panel and API callers.
type AdminAuthService interface {
	Enabled() bool
	SignIn(ctx context.Context, email, password string) (auth.Credentials, error)
	VerifySession(ctx context.Context, token string) (*auth.Identity, error)
	VerifyBearer(ctx context.Context, idToken string) (*auth.Identity, error)
	VerifyAccessKey(ctx context.Context, key string) (*auth.Identity, error)
	SignOut(ctx context.Context, identity *auth.Identity) error
}

// ProductInput is the editable part of a product.
type ProductInput struct {
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Featured    bool    `json:"featured"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// TextEntryInput creates an entry when ID is empty and updates it otherwise.
type TextEntryInput struct {
	ID      string `json:"id,omitempty"`
	Section string `json:"section"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DetailsInput struct {
	PhoneNumber string   `json:"phone_number" yaml:"phone_number"`
	CatalogURL  string   `json:"catalog_url" yaml:"catalog_url"`
	HeroImages  []string `json:"hero_images" yaml:"hero_images"`
}

// LintReport pairs the raw document with its diagnostics.
type LintReport struct {
	Document    string                   `json:"-"`
	Diagnostics []textcontent.Diagnostic `json:"diagnostics"`
}
