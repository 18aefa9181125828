package textcontent

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRender_RoundTrip(t *testing.T) {
	c := Empty()
	c.Header.Logo = "SOCRATE WOOD"
	c.Hero.CTACatalog = "Voir le catalogue"
	c.Workshop.PriceContent = "Prix justes"
	c.ContactInfo.Hours = "08:00 - 18:00"
	c.CTA.Phone = "+216 58 415 520"
	c.Footer.QuickLinksTitle = "Liens rapides"
	c.Extra = map[string]map[string]string{"hero": {"tagline": "Du bois"}}

	doc := Render(c)

	require.True(t, strings.HasPrefix(doc, "# Header\nlogo: SOCRATE WOOD\n"))
	require.Contains(t, doc, "hero_ctaCatalog: Voir le catalogue\nhero_tagline: Du bois\n")
	require.Contains(t, doc, "# Contact Information\nhours: 08:00 - 18:00\n")
	if diff := cmp.Diff(c, Parse(doc)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_FlattensMultilineValues(t *testing.T) {
	c := Empty()
	c.About.Content = "Atelier\n  familial"

	require.Equal(t, "# About\ncontent: Atelier familial\n", Render(c))
	require.Equal(t, "", Render(Empty()))
}

func TestWithFallback(t *testing.T) {
	parsed := Parse("# Hero\nhero_title: Bols\nhero_tagline: x\n")
	defaults := Empty()
	defaults.Hero.Title = "OBJETS EN BOIS D'OLIVIER"
	defaults.Hero.Subtitle = "PRODUITS ARTISANAUX 100% NATURELS"

	got := parsed.WithFallback(defaults)

	require.Equal(t, "Bols", got.Hero.Title)
	require.Equal(t, "PRODUITS ARTISANAUX 100% NATURELS", got.Hero.Subtitle)
	require.Equal(t, "x", got.Extra["hero"]["tagline"])
	require.Empty(t, parsed.Hero.Subtitle)
}
