package auth

import "strings"

const (
	roleClaim  = "role"
	adminClaim = "admin"
	emailClaim = "email"
)

// rolesFromClaims reads the "role" custom claim (string or list) and the
// boolean "admin" claim.
func rolesFromClaims(claims map[string]any) []string {
	var roles []string
	add := func(role string) {
		role = normaliseRole(role)
		if role == "" {
			return
		}
		for _, existing := range roles {
			if existing == role {
				return
			}
		}
		roles = append(roles, role)
	}

	switch v := claims[roleClaim].(type) {
	case string:
		add(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	}
	if flag, ok := claims[adminClaim].(bool); ok && flag {
		add(RoleAdmin)
	}
	return roles
}

func claimString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// ExtractBearerToken parses an "Authorization: Bearer <token>" header value.
func ExtractBearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
