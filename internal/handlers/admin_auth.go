package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/saifelleuhci/kanouwood2/internal/httpserver/middleware"
	"github.com/saifelleuhci/kanouwood2/internal/platform/auth"
	"github.com/saifelleuhci/kanouwood2/internal/platform/observability"
	"github.com/saifelleuhci/kanouwood2/internal/services"
	"github.com/saifelleuhci/kanouwood2/internal/session"
)

const (
	// LoginPath serves the admin sign-in form.
	LoginPath = "/admin-auth"
	// AdminBasePath prefixes every admin page.
	AdminBasePath = "/admin"
)

type loginPage struct {
	adminPage
	Email          string
	Next           string
	Message        string
	PasswordSignIn bool
}

// AuthHandlers serves admin sign-in and sign-out.
type AuthHandlers struct {
	views *Views
	auth  services.AdminAuthService
}

func NewAuthHandlers(views *Views, authService services.AdminAuthService) *AuthHandlers {
	return &AuthHandlers{views: views, auth: authService}
}

// Routes registers the sign-in form. Logout is registered by the admin group
// so it runs behind RequireAdmin.
func (h *AuthHandlers) Routes(r chi.Router) {
	r.Get(LoginPath, h.loginForm)
	r.Post(LoginPath, h.loginSubmit)
}

func (h *AuthHandlers) loginForm(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.SessionFromContext(r.Context()); ok && sess.User() != nil && !forceLogin(r) {
		http.Redirect(w, r, redirectTarget(r.URL.Query().Get("next")), http.StatusFound)
		return
	}
	q := r.URL.Query()
	page := h.page(r)
	page.Email = strings.TrimSpace(q.Get("email"))
	page.Next = normalizeNext(q.Get("next"))
	page.Message = messageForQuery(q)
	h.views.Render(w, r, http.StatusOK, "admin_login", page)
}

func (h *AuthHandlers) loginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := h.page(r)
	if err := r.ParseForm(); err != nil {
		page.Error = "Le formulaire n'a pas pu être envoyé. Veuillez réessayer."
		h.views.Render(w, r, http.StatusBadRequest, "admin_login", page)
		return
	}
	page.Email = strings.TrimSpace(r.PostFormValue("email"))
	page.Next = normalizeNext(r.PostFormValue("next"))

	sess, ok := middleware.SessionFromContext(ctx)
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	var err error
	if key := strings.TrimSpace(r.PostFormValue("access_key")); key != "" {
		var identity *auth.Identity
		identity, err = h.auth.VerifyAccessKey(ctx, key)
		if err == nil {
			sess.SignIn(sessionUser(identity), key, sess.ExpiresAt())
		}
	} else {
		var creds auth.Credentials
		creds, err = h.auth.SignIn(ctx, page.Email, r.PostFormValue("password"))
		if err == nil {
			sess.SignIn(sessionUser(&creds.Identity), creds.Token, creds.ExpiresAt)
		}
	}
	if err != nil {
		observability.FromContext(ctx).Info("admin login failed", zap.String("email", page.Email), zap.Error(err))
		status, message := loginError(err)
		page.Error = message
		h.views.Render(w, r, status, "admin_login", page)
		return
	}

	http.Redirect(w, r, redirectTarget(page.Next), http.StatusSeeOther)
}

// Logout revokes the provider session and clears the cookie.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if identity, ok := auth.IdentityFromContext(ctx); ok {
		if err := h.auth.SignOut(ctx, identity); err != nil {
			observability.FromContext(ctx).Warn("admin logout: revoke failed", zap.String("uid", identity.UID), zap.Error(err))
		}
	}
	if sess, ok := middleware.SessionFromContext(ctx); ok {
		sess.Destroy()
	}
	http.Redirect(w, r, LoginPath+"?status=logged_out", http.StatusSeeOther)
}

func (h *AuthHandlers) page(r *http.Request) loginPage {
	return loginPage{
		adminPage:      newAdminPage(r, "Connexion", ""),
		PasswordSignIn: h.auth.Enabled(),
	}
}

func sessionUser(identity *auth.Identity) session.User {
	return session.User{
		UID:    identity.UID,
		Email:  identity.Email,
		Roles:  append([]string(nil), identity.Roles...),
		Method: string(identity.Method),
	}
}

func loginError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest, "Veuillez saisir votre email et votre mot de passe."
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, "Ce compte n'a pas accès à l'administration."
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized, "Identifiants incorrects."
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable, "La connexion est momentanément indisponible. Réessayez plus tard."
	default:
		return http.StatusInternalServerError, "Une erreur inattendue est survenue."
	}
}

func messageForQuery(q url.Values) string {
	if q.Get("status") == "logged_out" {
		return "Vous êtes déconnecté."
	}
	if q.Get("reason") == middleware.ReasonExpired {
		return "Votre session a expiré. Veuillez vous reconnecter."
	}
	return ""
}

func forceLogin(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("force"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func redirectTarget(raw string) string {
	if next := normalizeNext(raw); next != "" {
		return next
	}
	return AdminBasePath
}

// normalizeNext keeps only same-site targets under the admin base path and
// never the sign-in page itself.
func normalizeNext(raw string) string {
	sanitized := sanitizeNextTarget(AdminBasePath, raw)
	if sanitized == "" {
		return ""
	}
	if p := pathOnly(sanitized); p == LoginPath || p == AdminBasePath+"/logout" {
		return ""
	}
	return sanitized
}

func sanitizeNextTarget(basePath, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return ""
	}
	pathValue := parsed.Path
	if pathValue == "" {
		pathValue = "/"
	}
	unescaped, err := url.PathUnescape(pathValue)
	if err != nil || strings.Contains(unescaped, "\\") {
		return ""
	}
	cleaned := path.Clean(unescaped)
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	if strings.HasPrefix(cleaned, "//") || !hasSafePrefix(cleaned, basePath) {
		return ""
	}
	target := cleaned
	if parsed.RawQuery != "" {
		target += "?" + parsed.RawQuery
	}
	if parsed.Fragment != "" {
		target += "#" + parsed.Fragment
	}
	return target
}

func hasSafePrefix(pathValue, base string) bool {
	if !strings.HasPrefix(pathValue, base) {
		return false
	}
	return len(pathValue) == len(base) || pathValue[len(base)] == '/'
}

func pathOnly(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Path
}
