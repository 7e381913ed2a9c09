// nolint: revive,staticcheck
// swagger:meta
package httpt

import (
	"time"

	"orderflow/internal/service"
)

// swagger:model ErrorResponse
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// swagger:model SuccessResponse
type SuccessResponse struct {
	Success    bool                `json:"success"`
	Data       any                 `json:"data,omitempty"`
	Pagination *service.Pagination `json:"pagination,omitempty"`
}

// swagger:model SubmitOrderRequest
type SubmitOrderRequest struct {
	Customer CustomerRequest `json:"customer" binding:"required"`
	Items    []ItemRequest   `json:"items"    binding:"required,min=1,dive"`
}

type CustomerRequest struct {
	FullName       string          `json:"fullName"       binding:"required,max=100"`
	Email          string          `json:"email"          binding:"required,email,max=100"`
	Phone          string          `json:"phone"          binding:"required,max=20"`
	SecondaryPhone string          `json:"secondaryPhone" binding:"omitempty,max=20"`
	Address        *AddressRequest `json:"address"`
}

type AddressRequest struct {
	Street     string `json:"street"     binding:"max=255"`
	City       string `json:"city"       binding:"max=100"`
	PostalCode string `json:"postalCode" binding:"max=20"`
	Province   string `json:"province"   binding:"max=100"`
}

type ItemRequest struct {
	ProductID     string  `json:"productId"     binding:"required,max=50"`
	VariantID     string  `json:"variantId"     binding:"omitempty,max=50"`
	ProductName   string  `json:"productName"   binding:"omitempty,max=255"`
	ProductSKU    string  `json:"productSku"    binding:"omitempty,max=100"`
	Quantity      int     `json:"quantity"      binding:"required,gte=1"`
	UnitPrice     float64 `json:"unitPrice"     binding:"omitempty,gte=0"`
	Subtotal      float64 `json:"subtotal"      binding:"omitempty,gte=0"`
	SelectedSize  string  `json:"selectedSize"  binding:"omitempty,max=50"`
	SelectedColor string  `json:"selectedColor" binding:"omitempty,max=50"`
}

// swagger:model SubmitOrderData
type SubmitOrderData struct {
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	CustomerID  string    `json:"customerId"`
	Status      string    `json:"status"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"createdAt"`
}

// swagger:model OrderSummary
type OrderSummary struct {
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	OrderStatus   string    `json:"orderStatus"`
	PaymentStatus string    `json:"paymentStatus"`
	OrderTotal    float64   `json:"orderTotal"`
	CreatedAt     time.Time `json:"createdAt"`
}
