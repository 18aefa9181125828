package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saifelleuhci/kanouwood2/internal/domain"
	"github.com/saifelleuhci/kanouwood2/internal/textcontent"
)

func apiRouter(s *testStack) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/admin", NewAdminAPIHandlers(s.catalog, s.content, s.details).Routes)
	return r
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func TestAdminAPIProducts(t *testing.T) {
	s := newTestStack(t)
	router := apiRouter(s)

	rec := serve(router, jsonRequest(http.MethodPost, "/api/admin/products", `{"name":"Bol","category":"Cuisine","price":18.5}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Product](t, rec)
	assert.Equal(t, "Bol", created.Name)
	assert.True(t, testNow.Equal(created.CreatedAt))

	rec = serve(router, jsonRequest(http.MethodPut, "/api/admin/products/"+created.ID+"/featured", `{"featured":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[domain.Product](t, rec).Featured)

	rec = serve(router, jsonRequest(http.MethodPut, "/api/admin/products/"+created.ID, `{"name":"Grand bol","category":"Cuisine","price":22}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Grand bol", decode[domain.Product](t, rec).Name)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/products?category=cuisine", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Products []domain.Product `json:"products"`
	}](t, rec)
	require.Len(t, list.Products, 1)

	rec = serve(router, httptest.NewRequest(http.MethodDelete, "/api/admin/products/"+created.ID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/products/"+created.ID, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[apiError](t, rec).Error)
}

func TestAdminAPIValidationErrors(t *testing.T) {
	s := newTestStack(t)
	router := apiRouter(s)

	cases := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{name: "empty body", req: jsonRequest(http.MethodPost, "/api/admin/products", ""), status: http.StatusBadRequest, code: "invalid_request"},
		{name: "unknown field", req: jsonRequest(http.MethodPost, "/api/admin/products", `{"name":"Bol","colour":"red"}`), status: http.StatusBadRequest, code: "invalid_request"},
		{name: "missing name", req: jsonRequest(http.MethodPost, "/api/admin/products", `{"price":3}`), status: http.StatusUnprocessableEntity, code: "invalid_request"},
		{name: "bad details", req: jsonRequest(http.MethodPut, "/api/admin/details", `{"phone_number":""}`), status: http.StatusUnprocessableEntity, code: "invalid_request"},
		{name: "missing entry section", req: jsonRequest(http.MethodPost, "/api/admin/text-content", `{"content":"x"}`), status: http.StatusUnprocessableEntity, code: "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(router, tc.req)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decode[apiError](t, rec).Error)
		})
	}
}

func TestAdminAPICategories(t *testing.T) {
	s := newTestStack(t)
	router := apiRouter(s)

	rec := serve(router, jsonRequest(http.MethodPost, "/api/admin/categories", `{"name":"Cuisine"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	category := decode[domain.Category](t, rec)
	assert.Equal(t, "cuisine", category.Slug)

	rec = serve(router, jsonRequest(http.MethodPost, "/api/admin/categories", `{"name":"CUISINE"}`))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode[apiError](t, rec).Error)

	rec = serve(router, httptest.NewRequest(http.MethodDelete, "/api/admin/categories/"+category.ID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminAPIDetails(t *testing.T) {
	s := newTestStack(t)
	router := apiRouter(s)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/details", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "+216 96 794 242", decode[domain.Details](t, rec).PhoneNumber)

	rec = serve(router, jsonRequest(http.MethodPut, "/api/admin/details", `{"phone_number":"+216 58 415 520","catalog_url":"https://cdn.example.com/c.pdf","hero_images":["/files/a.jpeg"]}`))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Details](t, rec)
	assert.Equal(t, "https://cdn.example.com/c.pdf", got.CatalogURL)
	assert.Equal(t, []string{"/files/a.jpeg"}, got.HeroImages)
}

func TestAdminAPITextContent(t *testing.T) {
	s := newTestStack(t)
	router := apiRouter(s)

	rec := serve(router, jsonRequest(http.MethodPost, "/api/admin/text-content", `{"id":"ignored","section":"hero","title":"Accroche"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode[domain.TextContentEntry](t, rec)
	assert.NotEqual(t, "ignored", entry.ID)

	rec = serve(router, jsonRequest(http.MethodPut, "/api/admin/text-content/"+entry.ID, `{"section":"hero","content":"Du bois"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[domain.TextContentEntry](t, rec)
	assert.Equal(t, entry.ID, updated.ID)
	assert.Equal(t, "Du bois", updated.Content)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/text-content/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[textcontent.TextContent](t, rec)
	assert.Equal(t, "Bienvenue à l'atelier", current.Hero.Title)
	assert.Equal(t, "SOCRATE WOOD", current.Header.Logo)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/admin/text-content/lint", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[struct {
		Diagnostics []textcontent.Diagnostic `json:"diagnostics"`
	}](t, rec)
	require.Len(t, report.Diagnostics, 1)
	assert.Equal(t, textcontent.ReasonUnknownField, report.Diagnostics[0].Reason)

	rec = serve(router, httptest.NewRequest(http.MethodDelete, "/api/admin/text-content/"+entry.ID, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminAPIUploadImage(t *testing.T) {
	s := newTestStack(t)
	router := apiRouter(s)

	upload := func(fileName string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/admin/products/images", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return serve(router, req)
	}

	rec := upload("plateau.png")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, strings.HasPrefix(decode[map[string]string](t, rec)["url"], "/uploads/products/"))

	rec = upload("notes.txt")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_request", decode[apiError](t, rec).Error)

	rec = serve(router, jsonRequest(http.MethodPost, "/api/admin/products/images", `{}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
