package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetailsService(t *testing.T) {
	ctx := context.Background()
	svc, err := NewDetailsService(DetailsServiceDeps{Details: newTestStore(t).Details(), Clock: fixedClock})
	require.NoError(t, err)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, DefaultDetails(), got)

	_, err = svc.Update(ctx, DetailsInput{})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, DetailsInput{PhoneNumber: "1", HeroImages: []string{"javascript:alert(1)"}})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Update(ctx, DetailsInput{PhoneNumber: "1", CatalogURL: "//evil.example"})
	require.ErrorIs(t, err, ErrInvalidInput)

	saved, err := svc.Update(ctx, DetailsInput{
		PhoneNumber: " +216 58 415 520 ",
		CatalogURL:  "https://cdn.example.com/catalogue.pdf",
		HeroImages:  []string{"/files/a.jpeg", " ", "https://cdn.example.com/b.jpeg"},
	})
	require.NoError(t, err)
	require.Equal(t, "+216 58 415 520", saved.PhoneNumber)
	require.Equal(t, []string{"/files/a.jpeg", "https://cdn.example.com/b.jpeg"}, saved.HeroImages)
	require.Equal(t, testNow, saved.CreatedAt)

	got, err = svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, saved.PhoneNumber, got.PhoneNumber)
	require.Equal(t, saved.HeroImages, got.HeroImages)
}
