package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/platform/storage"
)

func TestFilterByCategory(t *testing.T) {
	products := []domain.Product{
		{ID: "1", Category: "Cuisine"},
		{ID: "2", Category: "Décoration, Cuisine"},
		{ID: "3", Category: "Jardin"},
	}
	ids := func(ps []domain.Product) []string {
		out := []string{}
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	cases := []struct {
		filter string
		want   []string
	}{
		{filter: "", want: []string{"1", "2", "3"}},
		{filter: "All", want: []string{"1", "2", "3"}},
		{filter: "cuisine", want: []string{"1", "2"}},
		{filter: "  jardin ", want: []string{"3"}},
		{filter: "Cuis", want: []string{}},
		{filter: "Décoration, Cuisine", want: []string{}},
		{filter: "Salle", want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.filter, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(FilterByCategory(products, tc.filter)))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "bols-plats-d-ete", Slugify("Bols & Plats d'Été"))
	assert.Equal(t, "decoration", Slugify("  Décoration  "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestCategoryNames(t *testing.T) {
	got := CategoryNames([]domain.Category{{Name: "jardin"}, {Name: "Cuisine"}})
	assert.Equal(t, []string{domain.AllCategories, "Cuisine", "jardin"}, got)
}

type recordingPublisher struct {
	events []CatalogEvent
	err    error
}

func (p *recordingPublisher) PublishCatalogEvent(_ context.Context, event CatalogEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type recordingRecorder struct {
	uploads []error
	events  []string
}

func (r *recordingRecorder) RecordUpload(err error) { r.uploads = append(r.uploads, err) }

func (r *recordingRecorder) RecordCatalogEvent(action string, _ error) {
	r.events = append(r.events, action)
}

type stubUploader struct {
	got    storage.Upload
	body   string
	result storage.Result
	err    error
}

func (u *stubUploader) UploadProductImage(_ context.Context, upload storage.Upload) (storage.Result, error) {
	u.got = upload
	data, _ := io.ReadAll(upload.Body)
	u.body = string(data)
	return u.result, u.err
}

func newTestCatalog(t *testing.T, deps CatalogServiceDeps) CatalogService {
	t.Helper()
	store := newTestStore(t)
	if deps.Products == nil {
		deps.Products = store.Products()
	}
	if deps.Categories == nil {
		deps.Categories = store.Categories()
	}
	deps.Clock = fixedClock
	deps.IDs = sequentialIDs("id")
	svc, err := NewCatalogService(deps)
	require.NoError(t, err)
	return svc
}

func TestCatalogService_ProductLifecycle(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("topic down")}
	rec := &recordingRecorder{}
	svc := newTestCatalog(t, CatalogServiceDeps{Events: pub, Recorder: rec})

	created, err := svc.CreateProduct(ctx, ProductInput{Name: "  Planche à découper ", Category: "Cuisine", Price: 45})
	require.NoError(t, err)
	require.Equal(t, "id-1", created.ID)
	require.Equal(t, "Planche à découper", created.Name)
	require.Equal(t, testNow, created.CreatedAt)

	featured, err := svc.FeaturedProducts(ctx)
	require.NoError(t, err)
	require.Empty(t, featured)

	_, err = svc.SetFeatured(ctx, created.ID, true)
	require.NoError(t, err)
	featured, err = svc.FeaturedProducts(ctx)
	require.NoError(t, err)
	require.Len(t, featured, 1)

	updated, err := svc.UpdateProduct(ctx, created.ID, ProductInput{Name: "Planche", Category: "Cuisine", Featured: true, Price: 50})
	require.NoError(t, err)
	require.Equal(t, 50.0, updated.Price)

	list, err := svc.ListProducts(ctx, "cuisine")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))
	_, err = svc.GetProduct(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, svc.DeleteProduct(ctx, created.ID), ErrNotFound)

	actions := []string{}
	for _, e := range pub.events {
		actions = append(actions, e.Action)
	}
	require.Equal(t, []string{CatalogActionCreated, CatalogActionFeatured, CatalogActionUpdated, CatalogActionDeleted}, actions)
	require.Equal(t, actions, rec.events)
	require.Equal(t, "Cuisine", pub.events[0].Category)
}

func TestCatalogService_ValidatesProducts(t *testing.T) {
	svc := newTestCatalog(t, CatalogServiceDeps{})
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Name: " "})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Bol", Price: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: strings.Repeat("x", maxProductNameLength+1)})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.GetProduct(ctx, "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogService_UploadProductImage(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		svc := newTestCatalog(t, CatalogServiceDeps{})
		_, err := svc.UploadProductImage(ctx, "a.png", strings.NewReader("x"))
		require.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("success", func(t *testing.T) {
		up := &stubUploader{result: storage.Result{Object: "products/x.png", PublicURL: "https://cdn/products/x.png"}}
		rec := &recordingRecorder{}
		svc := newTestCatalog(t, CatalogServiceDeps{Uploader: up, Recorder: rec})

		url, err := svc.UploadProductImage(ctx, "bol.png", strings.NewReader("png-bytes"))
		require.NoError(t, err)
		require.Equal(t, "https://cdn/products/x.png", url)
		require.Equal(t, "bol.png", up.got.FileName)
		require.Equal(t, "png-bytes", up.body)
		require.Equal(t, []error{nil}, rec.uploads)
	})

	t.Run("rejected type", func(t *testing.T) {
		up := &stubUploader{err: storage.ErrUnsupportedImage}
		svc := newTestCatalog(t, CatalogServiceDeps{Uploader: up})
		_, err := svc.UploadProductImage(ctx, "bol.exe", strings.NewReader("x"))
		require.ErrorIs(t, err, ErrInvalidInput)
		require.ErrorIs(t, err, storage.ErrUnsupportedImage)
	})
}

func TestCatalogService_Categories(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalog(t, CatalogServiceDeps{})

	c, err := svc.CreateCategory(ctx, "Décoration")
	require.NoError(t, err)
	require.Equal(t, "decoration", c.Slug)

	_, err = svc.CreateCategory(ctx, "decoration")
	require.ErrorIs(t, err, ErrConflict)
	_, err = svc.CreateCategory(ctx, "  ")
	require.ErrorIs(t, err, ErrInvalidInput)

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteCategory(ctx, c.ID))
	require.ErrorIs(t, svc.DeleteCategory(ctx, c.ID), ErrNotFound)
}
