package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/httpserver/middleware"
	"github.com/saifelleuhci/kanouwood2/internal/platform/auth"
	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
	"github.com/saifelleuhci/kanouwood2/internal/services"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

const imageFileField = "image_file"

type adminPage struct {
	Title     string
	Section   string
	CSRFToken string
	Identity  *auth.Identity
	Flash     string
	Error     string
}

func newAdminPage(r *http.Request, title, section string) adminPage {
	page := adminPage{
		Title:     title,
		Section:   section,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	}
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		page.Identity = identity
	}
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		page.Flash = sess.PopFlash()
	}
	return page
}

type dashboardPage struct {
	adminPage
	Products    int
	Featured    int
	Categories  int
	Entries     int
	Diagnostics int
	LintError   string
}

type productListPage struct {
	adminPage
	Products []domain.Product
}

type productFormPage struct {
	adminPage
	ID         string
	Input      services.ProductInput
	Categories []domain.Category
	Uploads    bool
}

type categoriesPage struct {
	adminPage
	Categories []domain.Category
	Name       string
}

type detailsPage struct {
	adminPage
	Input services.DetailsInput
}

type textEntriesPage struct {
	adminPage
	Entries  []domain.TextContentEntry
	Sections []string
	Input    services.TextEntryInput
}

type lintPage struct {
	adminPage
	Report services.LintReport
}

// AdminHandlers serves the admin panel pages.
type AdminHandlers struct {
	views   *Views
	catalog services.CatalogService
	content services.ContentService
	details services.DetailsService
	authn   *AuthHandlers
	uploads bool
}

// AdminHandlersDeps bundles constructor inputs for the admin panel.
type AdminHandlersDeps struct {
	Views   *Views
	Catalog services.CatalogService
	Content services.ContentService
	Details services.DetailsService
	Auth    *AuthHandlers
	// UploadsEnabled shows the image file input on product forms.
	UploadsEnabled bool
}

func NewAdminHandlers(deps AdminHandlersDeps) *AdminHandlers {
	return &AdminHandlers{
		views:   deps.Views,
		catalog: deps.Catalog,
		content: deps.Content,
		details: deps.Details,
		authn:   deps.Auth,
		uploads: deps.UploadsEnabled,
	}
}

// Routes registers the admin pages relative to the admin base path.
func (h *AdminHandlers) Routes(r chi.Router) {
	r.Get("/", h.dashboard)
	if h.authn != nil {
		r.Post("/logout", h.authn.Logout)
	}

	r.Get("/products", h.listProducts)
	r.Get("/products/new", h.newProduct)
	r.Post("/products", h.createProduct)
	r.Get("/products/{productID}/edit", h.editProduct)
	r.Post("/products/{productID}", h.updateProduct)
	r.Post("/products/{productID}/featured", h.toggleFeatured)
	r.Post("/products/{productID}/delete", h.deleteProduct)

	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Post("/categories/{categoryID}/delete", h.deleteCategory)

	r.Get("/details", h.editDetails)
	r.Post("/details", h.saveDetails)

	r.Get("/text-content", h.listEntries)
	r.Post("/text-content", h.saveEntry)
	r.Post("/text-content/{entryID}/delete", h.deleteEntry)
	r.Get("/text-content/lint", h.lint)
}

func (h *AdminHandlers) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := dashboardPage{adminPage: newAdminPage(r, "Tableau de bord", "dashboard")}

	products, err := h.catalog.ListProducts(ctx, domain.AllCategories)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page.Products = len(products)
	for _, p := range products {
		if p.Featured {
			page.Featured++
		}
	}
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page.Categories = len(categories)
	entries, err := h.content.ListEntries(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page.Entries = len(entries)
	if report, err := h.content.Lint(ctx); err != nil {
		page.LintError = err.Error()
	} else {
		page.Diagnostics = len(report.Diagnostics)
	}
	h.views.Render(w, r, http.StatusOK, "admin_dashboard", page)
}

func (h *AdminHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := productListPage{adminPage: newAdminPage(r, "Produits", "products"), Products: products}
	h.views.Render(w, r, http.StatusOK, "admin_products", page)
}

func (h *AdminHandlers) newProduct(w http.ResponseWriter, r *http.Request) {
	h.renderProductForm(w, r, http.StatusOK, "", services.ProductInput{}, "")
}

func (h *AdminHandlers) editProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	input := services.ProductInput{
		Name:        product.Name,
		Image:       product.Image,
		Category:    product.Category,
		Featured:    product.Featured,
		Description: product.Description,
		Price:       product.Price,
	}
	h.renderProductForm(w, r, http.StatusOK, product.ID, input, "")
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, chi.URLParam(r, "productID"))
}

func (h *AdminHandlers) saveProduct(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	input, err := h.parseProductForm(r)
	if err != nil {
		h.renderProductForm(w, r, statusFor(err), id, input, formError(err))
		return
	}

	var product domain.Product
	if id == "" {
		product, err = h.catalog.CreateProduct(ctx, input)
	} else {
		product, err = h.catalog.UpdateProduct(ctx, id, input)
	}
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			h.renderProductForm(w, r, http.StatusUnprocessableEntity, id, input, formError(err))
			return
		}
		h.fail(w, r, err)
		return
	}
	h.flash(r, fmt.Sprintf("Produit « %s » enregistré.", product.Name))
	http.Redirect(w, r, AdminBasePath+"/products", http.StatusSeeOther)
}

// parseProductForm reads the product fields and uploads image_file when
// present, replacing the image URL field.
func (h *AdminHandlers) parseProductForm(r *http.Request) (services.ProductInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return services.ProductInput{}, fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
		}
	} else if err := r.ParseForm(); err != nil {
		return services.ProductInput{}, fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}

	input := services.ProductInput{
		Name:        r.PostFormValue("name"),
		Image:       r.PostFormValue("image"),
		Category:    r.PostFormValue("category"),
		Description: r.PostFormValue("description"),
		Featured:    parseCheckbox(r.PostFormValue("featured")),
	}
	if raw := strings.TrimSpace(strings.ReplaceAll(r.PostFormValue("price"), ",", ".")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return input, fmt.Errorf("%w: le prix doit être un nombre", services.ErrInvalidInput)
		}
		input.Price = price
	}

	if r.MultipartForm == nil {
		return input, nil
	}
	file, header, err := r.FormFile(imageFileField)
	if errors.Is(err, http.ErrMissingFile) {
		return input, nil
	}
	if err != nil {
		return input, fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}
	defer file.Close()
	url, err := h.catalog.UploadProductImage(r.Context(), header.Filename, file)
	if err != nil {
		return input, err
	}
	input.Image = url
	return input, nil
}

func (h *AdminHandlers) renderProductForm(w http.ResponseWriter, r *http.Request, status int, id string, input services.ProductInput, formErr string) {
	title := "Nouveau produit"
	if id != "" {
		title = "Modifier le produit"
	}
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		observability.FromContext(r.Context()).Warn("admin: categories unavailable", zap.Error(err))
	}
	page := productFormPage{
		adminPage:  newAdminPage(r, title, "products"),
		ID:         id,
		Input:      input,
		Categories: categories,
		Uploads:    h.uploads,
	}
	page.Error = formErr
	h.views.Render(w, r, status, "admin_product_form", page)
}

func (h *AdminHandlers) toggleFeatured(w http.ResponseWriter, r *http.Request) {
	featured := parseCheckbox(r.PostFormValue("featured"))
	product, err := h.catalog.SetFeatured(r.Context(), chi.URLParam(r, "productID"), featured)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if product.Featured {
		h.flash(r, fmt.Sprintf("« %s » est mis en avant.", product.Name))
	} else {
		h.flash(r, fmt.Sprintf("« %s » n'est plus mis en avant.", product.Name))
	}
	http.Redirect(w, r, AdminBasePath+"/products", http.StatusSeeOther)
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.flash(r, "Produit supprimé.")
	http.Redirect(w, r, AdminBasePath+"/products", http.StatusSeeOther)
}

func (h *AdminHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	h.renderCategories(w, r, http.StatusOK, "", "")
}

func (h *AdminHandlers) renderCategories(w http.ResponseWriter, r *http.Request, status int, name, formErr string) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := categoriesPage{adminPage: newAdminPage(r, "Catégories", "categories"), Categories: categories, Name: name}
	page.Error = formErr
	h.views.Render(w, r, status, "admin_categories", page)
}

func (h *AdminHandlers) createCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	category, err := h.catalog.CreateCategory(r.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) || errors.Is(err, services.ErrConflict) {
			h.renderCategories(w, r, statusFor(err), name, formError(err))
			return
		}
		h.fail(w, r, err)
		return
	}
	h.flash(r, fmt.Sprintf("Catégorie « %s » ajoutée.", category.Name))
	http.Redirect(w, r, AdminBasePath+"/categories", http.StatusSeeOther)
}

func (h *AdminHandlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteCategory(r.Context(), chi.URLParam(r, "categoryID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.flash(r, "Catégorie supprimée.")
	http.Redirect(w, r, AdminBasePath+"/categories", http.StatusSeeOther)
}

func (h *AdminHandlers) editDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.details.Get(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := detailsPage{
		adminPage: newAdminPage(r, "Coordonnées", "details"),
		Input: services.DetailsInput{
			PhoneNumber: details.PhoneNumber,
			CatalogURL:  details.CatalogURL,
			HeroImages:  details.HeroImages,
		},
	}
	h.views.Render(w, r, http.StatusOK, "admin_details", page)
}

func (h *AdminHandlers) saveDetails(w http.ResponseWriter, r *http.Request) {
	input := services.DetailsInput{
		PhoneNumber: r.PostFormValue("phone_number"),
		CatalogURL:  r.PostFormValue("catalog_url"),
		HeroImages:  strings.Split(strings.ReplaceAll(r.PostFormValue("hero_images"), "\r\n", "\n"), "\n"),
	}
	if _, err := h.details.Update(r.Context(), input); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			page := detailsPage{adminPage: newAdminPage(r, "Coordonnées", "details"), Input: input}
			page.Error = formError(err)
			h.views.Render(w, r, http.StatusUnprocessableEntity, "admin_details", page)
			return
		}
		h.fail(w, r, err)
		return
	}
	h.flash(r, "Coordonnées enregistrées.")
	http.Redirect(w, r, AdminBasePath+"/details", http.StatusSeeOther)
}

func (h *AdminHandlers) listEntries(w http.ResponseWriter, r *http.Request) {
	input := services.TextEntryInput{Section: r.URL.Query().Get("section")}
	if id := r.URL.Query().Get("edit"); id != "" {
		entries, err := h.content.ListEntries(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		for _, e := range entries {
			if e.ID == id {
				input = services.TextEntryInput{ID: e.ID, Section: e.Section, Title: e.Title, Content: e.Content}
			}
		}
	}
	h.renderEntries(w, r, http.StatusOK, input, "")
}

func (h *AdminHandlers) renderEntries(w http.ResponseWriter, r *http.Request, status int, input services.TextEntryInput, formErr string) {
	entries, err := h.content.ListEntries(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := textEntriesPage{
		adminPage: newAdminPage(r, "Textes", "text-content"),
		Entries:   entries,
		Sections:  textcontent.Sections(),
		Input:     input,
	}
	page.Error = formErr
	h.views.Render(w, r, status, "admin_text_content", page)
}

func (h *AdminHandlers) saveEntry(w http.ResponseWriter, r *http.Request) {
	input := services.TextEntryInput{
		ID:      r.PostFormValue("id"),
		Section: r.PostFormValue("section"),
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
	}
	if _, err := h.content.UpsertEntry(r.Context(), input); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			h.renderEntries(w, r, http.StatusUnprocessableEntity, input, formError(err))
			return
		}
		h.fail(w, r, err)
		return
	}
	h.flash(r, "Texte enregistré.")
	http.Redirect(w, r, AdminBasePath+"/text-content", http.StatusSeeOther)
}

func (h *AdminHandlers) deleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteEntry(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.flash(r, "Texte supprimé.")
	http.Redirect(w, r, AdminBasePath+"/text-content", http.StatusSeeOther)
}

func (h *AdminHandlers) lint(w http.ResponseWriter, r *http.Request) {
	report, err := h.content.Lint(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := lintPage{adminPage: newAdminPage(r, "Vérification du fichier de textes", "text-content"), Report: report}
	h.views.Render(w, r, http.StatusOK, "admin_lint", page)
}

func (h *AdminHandlers) flash(r *http.Request, message string) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok {
		sess.SetFlash(message)
	}
}

func (h *AdminHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		observability.FromContext(r.Context()).Error("admin: request failed", zap.Error(err))
	}
	page := newAdminPage(r, http.StatusText(status), "")
	page.Error = formError(err)
	h.views.Render(w, r, status, "admin_error", page)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// formError is the user-facing text for err; internal failures stay generic.
func formError(err error) string {
	switch statusFor(err) {
	case http.StatusUnprocessableEntity, http.StatusConflict:
		return err.Error()
	case http.StatusNotFound:
		return "Élément introuvable."
	case http.StatusServiceUnavailable:
		return "Service momentanément indisponible."
	default:
		return "Une erreur inattendue est survenue."
	}
}

func parseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}
