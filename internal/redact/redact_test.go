package redact_test

import (
	"testing"

	"orderflow/internal/authz"
	"orderflow/internal/entity"
	"orderflow/internal/redact"

	"github.com/stretchr/testify/require"
)

func adminCtx() authz.Context {
	return authz.Context{Authenticated: true, Subject: "admin-1", Email: "admin@example.com", Role: authz.RoleAdmin}
}

func managerCtx() authz.Context {
	return authz.Context{Authenticated: true, Subject: "manager-1", Email: "manager@example.com", Role: authz.RoleManager}
}

func customerCtx(email string) authz.Context {
	return authz.Context{Authenticated: true, Subject: "cust-1", Email: email, Role: authz.RoleCustomer}
}

func anonymousCtx() authz.Context {
	return authz.Context{}
}

func TestFilter_UserRecord(t *testing.T) {
	record := map[string]any{
		"id":                   "user-1",
		"email":                "user@example.com",
		"password":             "boom",
		"salt":                 "s",
		"hash":                 "h",
		"reset_password_token": "tok",
		"api_key":              "key",
		"login_attempts":       3,
	}

	t.Run("SecretsRemovedForEveryone", func(t *testing.T) {
		for _, auth := range []authz.Context{adminCtx(), managerCtx(), anonymousCtx()} {
			out := redact.Filter(record, auth, redact.TypeUser)
			require.NotNil(t, out)
			require.NotContains(t, out, "password")
			require.NotContains(t, out, "salt")
			require.NotContains(t, out, "hash")
			require.NotContains(t, out, "reset_password_token")
			require.NotContains(t, out, "login_attempts")
		}
	})

	t.Run("AdminKeepsEmailAndAPIKey", func(t *testing.T) {
		out := redact.Filter(record, adminCtx(), redact.TypeUser)
		require.Equal(t, "user@example.com", out["email"])
		require.Equal(t, "key", out["api_key"])
	})

	t.Run("ManagerLosesEmailAndAPIKey", func(t *testing.T) {
		out := redact.Filter(record, managerCtx(), redact.TypeUser)
		require.NotContains(t, out, "email")
		require.NotContains(t, out, "api_key")
	})
}

func TestFilter_CustomerRecordStaffOnly(t *testing.T) {
	record := map[string]any{
		"id":              "cust-1",
		"email":           "buyer@example.com",
		"secondary_phone": "+94222222222",
		"internal_notes":  "flagged",
		"status":          "active",
		"whatsapp": map[string]any{
			"number":          "+94111111111",
			"message_history": []any{"hello"},
		},
	}

	t.Run("InvisibleToCustomers", func(t *testing.T) {
		require.Nil(t, redact.Filter(record, customerCtx("buyer@example.com"), redact.TypeCustomer))
		require.Nil(t, redact.Filter(record, anonymousCtx(), redact.TypeCustomer))
	})

	t.Run("ManagerSeesRedactedView", func(t *testing.T) {
		out := redact.Filter(record, managerCtx(), redact.TypeCustomer)
		require.NotNil(t, out)
		require.NotContains(t, out, "internal_notes")
		require.NotContains(t, out, "secondary_phone")
		require.NotContains(t, out, "status")

		whatsapp, ok := out["whatsapp"].(map[string]any)
		require.True(t, ok)
		require.NotContains(t, whatsapp, "message_history")
		require.Equal(t, "+94111111111", whatsapp["number"])
	})

	t.Run("AdminStillLosesMessageHistory", func(t *testing.T) {
		out := redact.Filter(record, adminCtx(), redact.TypeCustomer)
		require.Equal(t, "active", out["status"])

		whatsapp, ok := out["whatsapp"].(map[string]any)
		require.True(t, ok)
		require.NotContains(t, whatsapp, "message_history")
	})

	t.Run("InputNotMutated", func(t *testing.T) {
		_ = redact.Filter(record, managerCtx(), redact.TypeCustomer)
		require.Contains(t, record, "internal_notes")
		whatsapp := record["whatsapp"].(map[string]any)
		require.Contains(t, whatsapp, "message_history")
	})
}

func TestFilter_OrderVisibility(t *testing.T) {
	record := map[string]any{
		"order_number":      "RS-20260830-ABCDE",
		"customer_id":       "cust-1",
		"customer_email":    "Buyer@Example.com",
		"payment_reference": "ref-1",
		"internal_notes":    "call before delivery",
	}

	t.Run("OwnerMatchIsCaseInsensitive", func(t *testing.T) {
		out := redact.Filter(record, customerCtx("buyer@example.com"), redact.TypeOrder)
		require.NotNil(t, out)
		require.NotContains(t, out, "internal_notes")
		require.NotContains(t, out, "customer_id")
		require.NotContains(t, out, "payment_reference")
	})

	t.Run("StrangerSeesNothing", func(t *testing.T) {
		require.Nil(t, redact.Filter(record, customerCtx("other@example.com"), redact.TypeOrder))
		require.Nil(t, redact.Filter(record, anonymousCtx(), redact.TypeOrder))
	})

	t.Run("ManagerSeesOrderWithoutAdminFields", func(t *testing.T) {
		out := redact.Filter(record, managerCtx(), redact.TypeOrder)
		require.NotNil(t, out)
		require.NotContains(t, out, "customer_id")
		require.NotContains(t, out, "payment_reference")
	})

	t.Run("AdminSeesAdminFields", func(t *testing.T) {
		out := redact.Filter(record, adminCtx(), redact.TypeOrder)
		require.Equal(t, "cust-1", out["customer_id"])
		require.Equal(t, "ref-1", out["payment_reference"])
		require.NotContains(t, out, "internal_notes")
	})

	t.Run("NestedCustomerEmailFallback", func(t *testing.T) {
		nested := map[string]any{
			"order_number": "RS-20260830-FGHIJ",
			"customer":     map[string]any{"email": "buyer@example.com"},
		}
		require.NotNil(t, redact.Filter(nested, customerCtx("buyer@example.com"), redact.TypeOrder))
		require.Nil(t, redact.Filter(nested, customerCtx("other@example.com"), redact.TypeOrder))
	})
}

func TestFilter_ProductRecord(t *testing.T) {
	record := map[string]any{
		"id":                    "prod-1",
		"name":                  "Cricket Bat",
		"cost_price":            7000,
		"supplier":              "Acme Sports",
		"stock_alert_threshold": 5,
	}

	out := redact.Filter(record, customerCtx("buyer@example.com"), redact.TypeProduct)
	require.NotNil(t, out)
	require.NotContains(t, out, "cost_price")
	require.NotContains(t, out, "supplier")
	require.NotContains(t, out, "stock_alert_threshold")
	require.Equal(t, "Cricket Bat", out["name"])

	adminOut := redact.Filter(record, adminCtx(), redact.TypeProduct)
	require.Equal(t, "Acme Sports", adminOut["supplier"])
}

func TestFilterSlice_DropsInvisibleRecords(t *testing.T) {
	records := []map[string]any{
		{"order_number": "RS-1", "customer_email": "buyer@example.com"},
		{"order_number": "RS-2", "customer_email": "other@example.com"},
	}

	out := redact.FilterSlice(records, customerCtx("buyer@example.com"), redact.TypeOrder)
	require.Len(t, out, 1)
	require.Equal(t, "RS-1", out[0]["order_number"])

	require.Nil(t, redact.FilterSlice(nil, adminCtx(), redact.TypeOrder))
}

func TestAsMap_EntityRoundTrip(t *testing.T) {
	order := &entity.Order{
		OrderNumber:   "RS-20260830-ABCDE",
		CustomerEmail: "buyer@example.com",
		OrderTotal:    4500,
	}

	record := redact.AsMap(order)
	require.NotNil(t, record)
	require.Equal(t, "RS-20260830-ABCDE", record["order_number"])
	require.Equal(t, "buyer@example.com", record["customer_email"])

	require.Nil(t, redact.AsMap(make(chan int)))
}
