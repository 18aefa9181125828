// Package handlers serves the storefront pages, the admin panel and the
// admin JSON API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
	"github.com/saifelleuhci/kanouwood2/internal/services"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

type sitePage struct {
	Copy    textcontent.TextContent
	Details domain.Details
	Nav     string
}

type homePage struct {
	sitePage
	Featured []domain.Product
}

type productsPage struct {
	sitePage
	Products   []domain.Product
	Categories []string
	Active     string
}

type productPage struct {
	sitePage
	Product domain.Product
}

type errorPage struct {
	sitePage
	Heading string
	Message string
}

// StorefrontHandlers renders the public pages.
type StorefrontHandlers struct {
	views   *Views
	catalog services.CatalogService
	content services.ContentService
	details services.DetailsService
}

func NewStorefrontHandlers(views *Views, catalog services.CatalogService, content services.ContentService, details services.DetailsService) *StorefrontHandlers {
	return &StorefrontHandlers{views: views, catalog: catalog, content: content, details: details}
}

// Routes registers the storefront pages.
func (h *StorefrontHandlers) Routes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/products", h.products)
	r.Get("/products/{productID}", h.product)
}

func (h *StorefrontHandlers) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := homePage{sitePage: h.site(ctx, "home")}
	featured, err := h.catalog.FeaturedProducts(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("storefront: featured products unavailable", zap.Error(err))
	}
	page.Featured = featured
	h.views.Render(w, r, http.StatusOK, "home", page)
}

func (h *StorefrontHandlers) products(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	active := strings.TrimSpace(r.URL.Query().Get("category"))
	if active == "" {
		active = domain.AllCategories
	}
	page := productsPage{sitePage: h.site(ctx, "products"), Active: active}

	products, err := h.catalog.ListProducts(ctx, active)
	if err != nil {
		h.renderError(w, r, page.sitePage, err)
		return
	}
	page.Products = products

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("storefront: categories unavailable", zap.Error(err))
	}
	page.Categories = services.CategoryNames(categories)
	h.views.Render(w, r, http.StatusOK, "products", page)
}

func (h *StorefrontHandlers) product(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	site := h.site(ctx, "products")
	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		h.renderError(w, r, site, err)
		return
	}
	h.views.Render(w, r, http.StatusOK, "product", productPage{sitePage: site, Product: product})
}

// NotFound renders the storefront 404 page.
func (h *StorefrontHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, h.site(r.Context(), ""), services.ErrNotFound)
}

func (h *StorefrontHandlers) site(ctx context.Context, nav string) sitePage {
	details, err := h.details.Get(ctx)
	if err != nil {
		observability.FromContext(ctx).Warn("storefront: details unavailable", zap.Error(err))
		details = services.DefaultDetails()
	}
	return sitePage{Copy: h.content.Current(ctx), Details: details, Nav: nav}
}

func (h *StorefrontHandlers) renderError(w http.ResponseWriter, r *http.Request, site sitePage, err error) {
	page := errorPage{sitePage: site}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrInvalidInput):
		status = http.StatusNotFound
		page.Heading = "Page introuvable"
		page.Message = "Le contenu demandé n'existe pas ou a été retiré."
	default:
		observability.FromContext(r.Context()).Error("storefront: request failed", zap.Error(err))
		if errors.Is(err, services.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		page.Heading = "Service indisponible"
		page.Message = "Veuillez réessayer dans quelques instants."
	}
	h.views.Render(w, r, status, "error", page)
}
