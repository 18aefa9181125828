package firestore

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/platform/config"
	pfirestore "github.com/saifelleuhci/kanouwood2/internal/platform/firestore"
)

func TestNewRegistryRequiresProvider(t *testing.T) {
	if _, err := NewRegistry(nil); err == nil {
		t.Fatal("expected error for nil provider")
	}
	reg, err := NewRegistry(pfirestore.NewProvider(config.FirestoreConfig{ProjectID: "kanou"}))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Products() == nil || reg.AdminKeys() == nil {
		t.Fatal("expected repositories to be wired")
	}
}

func TestProductDocumentMapping(t *testing.T) {
	now := time.Date(2025, 6, 7, 20, 40, 0, 0, time.UTC)
	p := domain.Product{
		ID: "01hx", Name: "Planche à découper", Image: "https://storage.googleapis.com/product-images/products/a.png",
		Category: "Cuisine", Featured: true, Description: "Olivier massif", Price: 45, CreatedAt: now, UpdatedAt: now,
	}

	doc := productFromDomain(p)
	doc = withProductID("01hx", doc)

	if diff := cmp.Diff(p, doc.toDomain()); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
}
