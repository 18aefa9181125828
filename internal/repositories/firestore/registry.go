// Package firestore implements the row store on Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	pfirestore "github.com/saifelleuhci/kanouwood2/internal/platform/firestore"
	"github.com/saifelleuhci/kanouwood2/internal/repositories"
)

const (
	productsCollection    = "products"
	categoriesCollection  = "categories"
	detailsCollection     = "details"
	textContentCollection = "text_content"
	adminKeysCollection   = "admin_keys"
)

// Registry wires every Firestore repository to one provider.
type Registry struct {
	provider   *pfirestore.Provider
	products   *ProductRepository
	categories *CategoryRepository
	details    *DetailsRepository
	text       *TextContentRepository
	adminKeys  *AdminKeyRepository
}

var _ repositories.Registry = (*Registry)(nil)

func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry: provider is required")
	}
	return &Registry{
		provider: provider,
		products: &ProductRepository{
			provider: provider,
			docs:     pfirestore.NewCollection(provider, productsCollection, withProductID),
		},
		categories: &CategoryRepository{docs: pfirestore.NewCollection(provider, categoriesCollection, withCategoryID)},
		details:    &DetailsRepository{docs: pfirestore.NewCollection(provider, detailsCollection, withDetailsID)},
		text:       &TextContentRepository{docs: pfirestore.NewCollection(provider, textContentCollection, withEntryID)},
		adminKeys:  &AdminKeyRepository{docs: pfirestore.NewCollection(provider, adminKeysCollection, withKeyID)},
	}, nil
}

func (r *Registry) Products() repositories.ProductRepository { return r.products }
func (r *Registry) Categories() repositories.CategoryRepository { return r.categories }
func (r *Registry) Details() repositories.DetailsRepository { return r.details }
func (r *Registry) TextContent() repositories.TextContentRepository { return r.text }
func (r *Registry) AdminKeys() repositories.AdminKeyRepository { return r.adminKeys }

// Ping checks connectivity with a bounded single-document read.
func (r *Registry) Ping(ctx context.Context) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	iter := client.Collection(detailsCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.GetAll(); err != nil {
		return pfirestore.WrapError("ping", err)
	}
	return nil
}

func (r *Registry) Close() error {
	return r.provider.Close()
}

type productDocument struct {
	ID          string    `firestore:"-"`
	Name        string    `firestore:"name"`
	Image       string    `firestore:"image"`
	Category    string    `firestore:"category"`
	Featured    bool      `firestore:"featured"`
	Description string    `firestore:"description"`
	Price       float64   `firestore:"price"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func withProductID(id string, d productDocument) productDocument {
	d.ID = id
	return d
}

func (d productDocument) toDomain() domain.Product {
	return domain.Product{
		ID: d.ID, Name: d.Name, Image: d.Image, Category: d.Category, Featured: d.Featured,
		Description: d.Description, Price: d.Price, CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func productFromDomain(p domain.Product) productDocument {
	return productDocument{
		ID: p.ID, Name: p.Name, Image: p.Image, Category: p.Category, Featured: p.Featured,
		Description: p.Description, Price: p.Price, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

// ProductRepository stores products keyed by product ID.
type ProductRepository struct {
	provider *pfirestore.Provider
	docs     *pfirestore.Collection[productDocument]
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	docs, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("created_at", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	d, err := r.docs.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return d.toDomain(), nil
}

func (r *ProductRepository) Insert(ctx context.Context, p domain.Product) error {
	return r.docs.Create(ctx, p.ID, productFromDomain(p))
}

// Update replaces the document inside a transaction so a concurrent delete
// surfaces as not found rather than resurrecting the product.
func (r *ProductRepository) Update(ctx context.Context, p domain.Product) error {
	ref, err := r.docs.DocumentRef(ctx, p.ID)
	if err != nil {
		return err
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		existing, err := r.docs.Decode(snap)
		if err != nil {
			return err
		}
		doc := productFromDomain(p)
		doc.CreatedAt = existing.CreatedAt
		return tx.Set(ref, doc)
	})
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}

type categoryDocument struct {
	ID   string `firestore:"-"`
	Name string `firestore:"name"`
	Slug string `firestore:"slug"`
}

func withCategoryID(id string, d categoryDocument) categoryDocument {
	d.ID = id
	return d
}

// CategoryRepository stores categories keyed by slug so duplicates conflict.
type CategoryRepository struct {
	docs *pfirestore.Collection[categoryDocument]
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	docs, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("name", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Category{ID: d.ID, Name: d.Name, Slug: d.Slug})
	}
	return out, nil
}

func (r *CategoryRepository) Insert(ctx context.Context, c domain.Category) error {
	return r.docs.Create(ctx, c.ID, categoryDocument{Name: c.Name, Slug: c.Slug})
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}
