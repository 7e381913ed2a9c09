// Package redact strips record fields before they leave the service, based
// on the caller's capability. Filtering is pure: inputs are never mutated and
// no call path returns an error. A record the caller may not see at all
// filters to nil.
package redact

import (
	"encoding/json"
	"strings"

	"orderflow/internal/authz"
)

type Type string

const (
	TypeUser     Type = "user"
	TypeCustomer Type = "customer"
	TypeOrder    Type = "order"
	TypeProduct  Type = "product"
)

type ruleSet struct {
	// sensitive fields are removed for every caller, admins included.
	sensitive []string
	// adminOnly fields are removed unless the caller is an admin.
	adminOnly []string
}

var rules = map[Type]ruleSet{
	TypeUser: {
		sensitive: []string{
			"password", "salt", "hash",
			"reset_password_token", "reset_password_expiration",
			"login_attempts", "lock_until",
		},
		adminOnly: []string{"email", "api_key"},
	},
	TypeCustomer: {
		sensitive: []string{"internal_notes", "whatsapp.message_history"},
		adminOnly: []string{"secondary_phone", "addresses", "status"},
	},
	TypeOrder: {
		sensitive: []string{"internal_notes", "admin_notes"},
		adminOnly: []string{"customer_id", "payment_reference"},
	},
	TypeProduct: {
		sensitive: []string{},
		adminOnly: []string{"cost_price", "supplier", "stock_alert_threshold"},
	},
}

// Filter returns a redacted copy of record, or nil when the record must not
// be visible to the caller at all.
func Filter(record map[string]any, auth authz.Context, recordType Type) map[string]any {
	if record == nil {
		return nil
	}
	if !visible(record, auth, recordType) {
		return nil
	}

	rs, ok := rules[recordType]
	if !ok {
		return cloneMap(record)
	}

	out := cloneMap(record)
	for _, field := range rs.sensitive {
		removeField(out, field)
	}
	if !auth.IsAdmin() {
		for _, field := range rs.adminOnly {
			removeField(out, field)
		}
	}
	return out
}

// FilterSlice applies Filter element-wise and drops invisible records.
func FilterSlice(records []map[string]any, auth authz.Context, recordType Type) []map[string]any {
	if records == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if filtered := Filter(record, auth, recordType); filtered != nil {
			out = append(out, filtered)
		}
	}
	return out
}

// visible enforces record-level access on top of field redaction: customer
// records are staff-only, order records are staff-or-owner.
func visible(record map[string]any, auth authz.Context, recordType Type) bool {
	switch recordType {
	case TypeCustomer:
		return auth.IsStaff()
	case TypeOrder:
		if auth.IsStaff() {
			return true
		}
		return auth.Email != "" && strings.EqualFold(auth.Email, orderEmail(record))
	default:
		return true
	}
}

func orderEmail(record map[string]any) string {
	if email, ok := record["customer_email"].(string); ok {
		return email
	}
	if customer, ok := record["customer"].(map[string]any); ok {
		if email, emailOk := customer["email"].(string); emailOk {
			return email
		}
	}
	return ""
}

// removeField deletes a top-level key, or the leaf of a one-level dotted
// path such as "whatsapp.message_history".
func removeField(record map[string]any, field string) {
	parent, leaf, nested := strings.Cut(field, ".")
	if !nested {
		delete(record, field)
		return
	}

	inner, ok := record[parent].(map[string]any)
	if !ok {
		return
	}
	clone := cloneMap(inner)
	delete(clone, leaf)
	record[parent] = clone
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// AsMap converts any JSON-serializable value to the map form Filter works
// on. Conversion failure yields nil, which Filter treats as invisible.
func AsMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
