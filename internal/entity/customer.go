package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CustomerStatus string

const (
	CustomerStatusActive  CustomerStatus = "active"
	CustomerStatusBlocked CustomerStatus = "blocked"
)

type Customer struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"            validate:"required,max=100"`
	Email          string         `json:"email"           validate:"required,email,max=100"`
	PrimaryPhone   string         `json:"primary_phone"   validate:"required,max=20"`
	SecondaryPhone string         `json:"secondary_phone" validate:"max=20"`
	Addresses      []Address      `json:"addresses"       validate:"dive"`
	Status         CustomerStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type Address struct {
	Street     string `json:"street"      validate:"max=255"`
	City       string `json:"city"        validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Province   string `json:"province"    validate:"max=100"`
	IsDefault  bool   `json:"is_default"`
}

// NormalizeEmail is the canonical form used for customer lookup and storage.
// Raw equality on the submitted value would split one customer into several
// records differing only by case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
