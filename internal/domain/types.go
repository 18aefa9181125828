// Package domain holds the catalogue and site records shared by the
// repositories, services and handlers.
package domain

import (
	"strings"
	"time"
)

// AllCategories is the catalogue filter value that matches every product.
const AllCategories = "All"

// Product is a catalogue item shown on the storefront.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Category    string    `json:"category"`
	Featured    bool      `json:"featured"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tags splits Category on commas: "Cuisine, Service" is tagged Cuisine and
// Service.
func (p Product) Tags() []string {
	return SplitCategories(p.Category)
}

// SplitCategories returns the trimmed, non-empty comma-separated labels of
// category.
func SplitCategories(category string) []string {
	var out []string
	for _, part := range strings.Split(category, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Category groups products. Slug is derived from Name.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Details is the single row of site-wide contact settings.
type Details struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	CatalogURL  string    `json:"catalog_url"`
	HeroImages  []string  `json:"hero_images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TextContentEntry is an admin-editable block of page copy.
type TextContentEntry struct {
	ID        string    `json:"id"`
	Section   string    `json:"section"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminKey grants access to the admin JSON API through X-Admin-Key.
type AdminKey struct {
	ID        string    `json:"id"`
	AccessKey string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
