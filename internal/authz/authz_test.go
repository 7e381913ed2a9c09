package authz_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"orderflow/internal/authz"

	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789abcdef"

func TestResolver_SignResolveRoundTrip(t *testing.T) {
	resolver := authz.NewResolver(testSecret)

	token, err := resolver.Sign("user-1", "admin@example.com", authz.RoleAdmin, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	ctx := resolver.Resolve(req)
	require.True(t, ctx.Authenticated)
	require.Equal(t, "user-1", ctx.Subject)
	require.Equal(t, "admin@example.com", ctx.Email)
	require.Equal(t, authz.RoleAdmin, ctx.Role)
	require.True(t, ctx.IsAdmin())
	require.True(t, ctx.IsStaff())
}

func TestResolver_RejectsBadCredentials(t *testing.T) {
	resolver := authz.NewResolver(testSecret)

	testCases := []struct {
		desc   string
		header string
	}{
		{desc: "NoHeader", header: ""},
		{desc: "NotBearer", header: "Basic dXNlcjpwYXNz"},
		{desc: "Garbage", header: "Bearer not-a-jwt"},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/orders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			ctx := resolver.Resolve(req)
			require.False(t, ctx.Authenticated)
			require.False(t, ctx.IsStaff())
		})
	}
}

func TestResolver_RejectsForeignSecret(t *testing.T) {
	other := authz.NewResolver("another-secret-0123456789abcdef")
	token, err := other.Sign("user-1", "admin@example.com", authz.RoleAdmin, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	ctx := authz.NewResolver(testSecret).Resolve(req)
	require.False(t, ctx.Authenticated)
}

func TestResolver_RejectsExpiredToken(t *testing.T) {
	resolver := authz.NewResolver(testSecret)

	token, err := resolver.Sign("user-1", "admin@example.com", authz.RoleAdmin, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	ctx := resolver.Resolve(req)
	require.False(t, ctx.Authenticated)
}

func TestContext_Capabilities(t *testing.T) {
	manager := authz.Context{Authenticated: true, Role: authz.RoleManager}
	require.True(t, manager.IsStaff())
	require.False(t, manager.IsAdmin())

	customer := authz.Context{Authenticated: true, Role: authz.RoleCustomer}
	require.False(t, customer.IsStaff())

	// Role claims mean nothing without a verified token.
	forged := authz.Context{Authenticated: false, Role: authz.RoleAdmin}
	require.False(t, forged.IsAdmin())
	require.False(t, forged.IsStaff())
}
