package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/platform/httpx"
	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
	"github.com/saifelleuhci/kanouwood2/internal/services"
)

const maxUploadMemory = 8 << 20

// AdminAPIHandlers exposes the admin JSON endpoints. Authentication is applied
// by the caller's route group.
type AdminAPIHandlers struct {
	catalog services.CatalogService
	content services.ContentService
	details services.DetailsService
}

func NewAdminAPIHandlers(catalog services.CatalogService, content services.ContentService, details services.DetailsService) *AdminAPIHandlers {
	return &AdminAPIHandlers{catalog: catalog, content: content, details: details}
}

// Routes registers the admin API endpoints.
func (h *AdminAPIHandlers) Routes(r chi.Router) {
	r.Route("/products", func(rt chi.Router) {
		rt.Get("/", h.listProducts)
		rt.Post("/", h.createProduct)
		rt.Post("/images", h.uploadImage)
		rt.Get("/{productID}", h.getProduct)
		rt.Put("/{productID}", h.updateProduct)
		rt.Put("/{productID}/featured", h.setFeatured)
		rt.Delete("/{productID}", h.deleteProduct)
	})
	r.Route("/categories", func(rt chi.Router) {
		rt.Get("/", h.listCategories)
		rt.Post("/", h.createCategory)
		rt.Delete("/{categoryID}", h.deleteCategory)
	})
	r.Get("/details", h.getDetails)
	r.Put("/details", h.updateDetails)
	r.Route("/text-content", func(rt chi.Router) {
		rt.Get("/", h.listEntries)
		rt.Post("/", h.createEntry)
		rt.Get("/current", h.currentContent)
		rt.Get("/lint", h.lint)
		rt.Put("/{entryID}", h.updateEntry)
		rt.Delete("/{entryID}", h.deleteEntry)
	})
}

func (h *AdminAPIHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *AdminAPIHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, product)
}

func (h *AdminAPIHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	var input services.ProductInput
	if !decodeBody(w, r, &input) {
		return
	}
	product, err := h.catalog.CreateProduct(r.Context(), input)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, product)
}

func (h *AdminAPIHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	var input services.ProductInput
	if !decodeBody(w, r, &input) {
		return
	}
	product, err := h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "productID"), input)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, product)
}

func (h *AdminAPIHandlers) setFeatured(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Featured bool `json:"featured"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	product, err := h.catalog.SetFeatured(r.Context(), chi.URLParam(r, "productID"), body.Featured)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, product)
}

func (h *AdminAPIHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminAPIHandlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart form with a file field is required", http.StatusBadRequest))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "file field is required", http.StatusBadRequest))
		return
	}
	defer file.Close()
	url, err := h.catalog.UploadProductImage(ctx, header.Filename, file)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *AdminAPIHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *AdminAPIHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	category, err := h.catalog.CreateCategory(r.Context(), body.Name)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, category)
}

func (h *AdminAPIHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminAPIHandlers) getDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.details.Get(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, details)
}

func (h *AdminAPIHandlers) updateDetails(w http.ResponseWriter, r *http.Request) {
	var input services.DetailsInput
	if !decodeBody(w, r, &input) {
		return
	}
	details, err := h.details.Update(r.Context(), input)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, details)
}

func (h *AdminAPIHandlers) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.content.ListEntries(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *AdminAPIHandlers) createEntry(w http.ResponseWriter, r *http.Request) {
	var input services.TextEntryInput
	if !decodeBody(w, r, &input) {
		return
	}
	input.ID = ""
	entry, err := h.content.UpsertEntry(r.Context(), input)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, entry)
}

func (h *AdminAPIHandlers) updateEntry(w http.ResponseWriter, r *http.Request) {
	var input services.TextEntryInput
	if !decodeBody(w, r, &input) {
		return
	}
	input.ID = chi.URLParam(r, "entryID")
	entry, err := h.content.UpsertEntry(r.Context(), input)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entry)
}

func (h *AdminAPIHandlers) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteEntry(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminAPIHandlers) currentContent(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.content.Current(r.Context()))
}

func (h *AdminAPIHandlers) lint(w http.ResponseWriter, r *http.Request) {
	report, err := h.content.Lint(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, httpx.DefaultBodyLimit, dst); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return false
	}
	return true
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := "internal_error"
	message := "internal error"
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		code, message = "invalid_request", err.Error()
	case errors.Is(err, services.ErrNotFound):
		code, message = "not_found", "resource not found"
	case errors.Is(err, services.ErrConflict):
		code, message = "conflict", err.Error()
	case errors.Is(err, services.ErrUnauthorized):
		code, message = "unauthenticated", "authentication required"
	case errors.Is(err, services.ErrForbidden):
		code, message = "forbidden", "access denied"
	case errors.Is(err, services.ErrUnavailable):
		code, message = "unavailable", "service unavailable"
	}
	if status >= http.StatusInternalServerError {
		observability.FromContext(ctx).Error("admin api: request failed", zap.Error(err))
	}
	httpx.WriteError(ctx, w, httpx.NewError(code, message, status))
}
