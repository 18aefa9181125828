package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	require.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{UID: "u1", Roles: []string{"Admin"}})
	identity, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", identity.UID)
	require.True(t, identity.HasRole(RoleAdmin))
	require.False(t, (*Identity)(nil).HasRole(RoleAdmin))
}

func TestRolesFromClaims(t *testing.T) {
	require.Equal(t, []string{"editor", "admin"}, rolesFromClaims(map[string]any{
		"role":  []any{"Editor", "admin", 3},
		"admin": true,
	}))
	require.Equal(t, []string{"admin"}, rolesFromClaims(map[string]any{"admin": true}))
	require.Nil(t, rolesFromClaims(map[string]any{"admin": "yes"}))
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := ExtractBearerToken("Bearer abc.def")
	require.True(t, ok)
	require.Equal(t, "abc.def", token)

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc", "abc"} {
		_, ok := ExtractBearerToken(header)
		require.False(t, ok, header)
	}
}

func TestClassifySignInError(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&googleapi.Error{Code: http.StatusBadRequest, Message: "INVALID_PASSWORD"}, ErrInvalidCredentials},
		{&googleapi.Error{Code: http.StatusBadRequest, Message: "INVALID_LOGIN_CREDENTIALS"}, ErrInvalidCredentials},
		{&googleapi.Error{Code: http.StatusBadRequest, Message: "TOO_MANY_ATTEMPTS_TRY_LATER : blocked"}, ErrTooManyAttempts},
		{&googleapi.Error{Code: http.StatusServiceUnavailable, Message: "backend"}, ErrUnavailable},
		{errors.New("dial tcp: refused"), ErrUnavailable},
	}
	for _, tc := range cases {
		require.ErrorIs(t, classifySignInError(tc.err), tc.want)
	}
}

func TestClampSessionTTL(t *testing.T) {
	require.Equal(t, defaultSessionTTL, clampSessionTTL(0))
	require.Equal(t, minFirebaseSessionTTL, clampSessionTTL(time.Second))
	require.Equal(t, maxFirebaseSessionTTL, clampSessionTTL(30*24*time.Hour))
	require.Equal(t, 48*time.Hour, clampSessionTTL(48*time.Hour))
}
