package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	pfirestore "github.com/saifelleuhci/kanouwood2/internal/platform/firestore"
)

type detailsDocument struct {
	ID          string    `firestore:"-"`
	PhoneNumber string    `firestore:"phone_number"`
	CatalogURL  string    `firestore:"catalog_url"`
	HeroImages  []string  `firestore:"hero_images"`
	CreatedAt   time.Time `firestore:"created_at"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

func withDetailsID(id string, d detailsDocument) detailsDocument {
	d.ID = id
	return d
}

// DetailsRepository stores the single details document.
type DetailsRepository struct {
	docs *pfirestore.Collection[detailsDocument]
}

func (r *DetailsRepository) Get(ctx context.Context) (domain.Details, error) {
	docs, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("created_at", firestore.Asc).Limit(1)
	})
	if err != nil {
		return domain.Details{}, err
	}
	if len(docs) == 0 {
		return domain.Details{}, pfirestore.WrapError("details.get", status.Error(codes.NotFound, "details not found"))
	}
	d := docs[0]
	return domain.Details{
		ID: d.ID, PhoneNumber: d.PhoneNumber, CatalogURL: d.CatalogURL, HeroImages: d.HeroImages,
		CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

func (r *DetailsRepository) Save(ctx context.Context, d domain.Details) error {
	images := d.HeroImages
	if images == nil {
		images = []string{}
	}
	return r.docs.Set(ctx, d.ID, detailsDocument{
		PhoneNumber: d.PhoneNumber, CatalogURL: d.CatalogURL, HeroImages: images,
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	})
}

type textEntryDocument struct {
	ID        string    `firestore:"-"`
	Section   string    `firestore:"section"`
	Title     string    `firestore:"title"`
	Content   string    `firestore:"content"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func withEntryID(id string, d textEntryDocument) textEntryDocument {
	d.ID = id
	return d
}

type TextContentRepository struct {
	docs *pfirestore.Collection[textEntryDocument]
}

func (r *TextContentRepository) List(ctx context.Context) ([]domain.TextContentEntry, error) {
	docs, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("section", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.TextContentEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.TextContentEntry{
			ID: d.ID, Section: d.Section, Title: d.Title, Content: d.Content,
			CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *TextContentRepository) Upsert(ctx context.Context, e domain.TextContentEntry) error {
	return r.docs.Set(ctx, e.ID, textEntryDocument{
		Section: e.Section, Title: e.Title, Content: e.Content, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	})
}

func (r *TextContentRepository) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}

type adminKeyDocument struct {
	ID        string    `firestore:"-"`
	AccessKey string    `firestore:"access_key"`
	CreatedAt time.Time `firestore:"created_at"`
}

func withKeyID(id string, d adminKeyDocument) adminKeyDocument {
	d.ID = id
	return d
}

type AdminKeyRepository struct {
	docs *pfirestore.Collection[adminKeyDocument]
}

func (r *AdminKeyRepository) FindByKey(ctx context.Context, accessKey string) (domain.AdminKey, error) {
	docs, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("access_key", "==", accessKey).Limit(1)
	})
	if err != nil {
		return domain.AdminKey{}, err
	}
	if len(docs) == 0 {
		return domain.AdminKey{}, pfirestore.WrapError("admin_keys.find", status.Error(codes.NotFound, "admin key not found"))
	}
	return domain.AdminKey{ID: docs[0].ID, AccessKey: docs[0].AccessKey, CreatedAt: docs[0].CreatedAt.UTC()}, nil
}

func (r *AdminKeyRepository) Insert(ctx context.Context, k domain.AdminKey) error {
	return r.docs.Create(ctx, k.ID, adminKeyDocument{AccessKey: k.AccessKey, CreatedAt: k.CreatedAt})
}

func (r *AdminKeyRepository) Count(ctx context.Context) (int, error) {
	docs, err := r.docs.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Select()
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}
