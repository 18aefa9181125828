// Package repositories defines the row store contracts. Implementations live
// in the firestore and sqlite subpackages.
package repositories

import (
	"context"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
)

// Registry exposes the typed repositories and their shared lifecycle.
type Registry interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Details() DetailsRepository
	TextContent() TextContentRepository
	AdminKeys() AdminKeyRepository
	Ping(ctx context.Context) error
	Close() error
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductRepository persists catalogue products. List orders newest first.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, id string) error
}

// CategoryRepository persists categories ordered by name.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	Insert(ctx context.Context, category domain.Category) error
	Delete(ctx context.Context, id string) error
}

// DetailsRepository stores the single details row. Get reports not found
// until a row has been saved.
type DetailsRepository interface {
	Get(ctx context.Context) (domain.Details, error)
	Save(ctx context.Context, details domain.Details) error
}

// TextContentRepository persists text entries ordered by section.
type TextContentRepository interface {
	List(ctx context.Context) ([]domain.TextContentEntry, error)
	Upsert(ctx context.Context, entry domain.TextContentEntry) error
	Delete(ctx context.Context, id string) error
}

// AdminKeyRepository looks up admin API keys.
type AdminKeyRepository interface {
	FindByKey(ctx context.Context, accessKey string) (domain.AdminKey, error)
	Insert(ctx context.Context, key domain.AdminKey) error
	Count(ctx context.Context) (int, error)
}
