package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/repositories"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProductsCRUD(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Products()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	older := domain.Product{ID: "p1", Name: "Planche", Category: "Cuisine", Price: 45, CreatedAt: base, UpdatedAt: base}
	newer := domain.Product{ID: "p2", Name: "Bol", Category: "Cuisine, Déco", Featured: true, Price: 30.5, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)}
	require.NoError(t, repo.Insert(ctx, older))
	require.NoError(t, repo.Insert(ctx, newer))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff([]domain.Product{newer, older}, list); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}

	older.Featured = true
	older.UpdatedAt = base.Add(2 * time.Hour)
	require.NoError(t, repo.Update(ctx, older))
	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, got.Featured)
	require.Equal(t, base.Add(2*time.Hour), got.UpdatedAt)

	err = repo.Insert(ctx, older)
	require.True(t, repositories.IsConflict(err), "expected conflict, got %v", err)

	require.NoError(t, repo.Delete(ctx, "p1"))
	_, err = repo.Get(ctx, "p1")
	require.True(t, repositories.IsNotFound(err))
	require.True(t, repositories.IsNotFound(repo.Delete(ctx, "p1")))
	require.True(t, repositories.IsNotFound(repo.Update(ctx, domain.Product{ID: "missing"})))
}

func TestDetailsSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).Details()

	_, err := repo.Get(ctx)
	require.True(t, repositories.IsNotFound(err))

	now := time.Date(2025, 6, 7, 20, 40, 0, 0, time.UTC)
	d := domain.Details{ID: "site", PhoneNumber: "+216 96 794 242", CatalogURL: "/CATALOGUE SOCRATE WOOD.pdf", HeroImages: []string{"/files/a.jpeg"}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repo.Save(ctx, d))

	d.PhoneNumber = "+216 58 415 520"
	d.HeroImages = nil
	require.NoError(t, repo.Save(ctx, d))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "+216 58 415 520", got.PhoneNumber)
	require.Empty(t, got.HeroImages)
}

func TestTextContentOrderedBySection(t *testing.T) {
	ctx := context.Background()
	repo := openTestStore(t).TextContent()
	now := time.Now().UTC()

	for _, e := range []domain.TextContentEntry{
		{ID: "t1", Section: "hero", Title: "Bienvenue", CreatedAt: now, UpdatedAt: now},
		{ID: "t2", Section: "about", Title: "Atelier", CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, repo.Upsert(ctx, e))
	}
	require.NoError(t, repo.Upsert(ctx, domain.TextContentEntry{ID: "t1", Section: "hero", Title: "Salut", CreatedAt: now, UpdatedAt: now}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "about", list[0].Section)
	require.Equal(t, "Salut", list[1].Title)

	require.NoError(t, repo.Delete(ctx, "t2"))
	require.True(t, repositories.IsNotFound(repo.Delete(ctx, "t2")))
}

func TestCategoriesAndAdminKeys(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Categories().Insert(ctx, domain.Category{ID: "c1", Name: "Déco", Slug: "deco"}))
	require.NoError(t, store.Categories().Insert(ctx, domain.Category{ID: "c2", Name: "Cuisine", Slug: "cuisine"}))
	require.True(t, repositories.IsConflict(store.Categories().Insert(ctx, domain.Category{ID: "c3", Name: "Deco", Slug: "deco"})))

	cats, err := store.Categories().List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Cuisine", "Déco"}, []string{cats[0].Name, cats[1].Name})

	keys := store.AdminKeys()
	n, err := keys.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.NoError(t, keys.Insert(ctx, domain.AdminKey{ID: "k1", AccessKey: "s3cret", CreatedAt: time.Now()}))

	k, err := keys.FindByKey(ctx, "s3cret")
	require.NoError(t, err)
	require.Equal(t, "k1", k.ID)
	_, err = keys.FindByKey(ctx, "nope")
	require.True(t, repositories.IsNotFound(err))
	require.NoError(t, store.Ping(ctx))
}
