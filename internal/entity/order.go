package entity

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially-paid"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusFailed        PaymentStatus = "failed"
)

// Order carries a denormalized customer snapshot taken at intake time so the
// record stays auditable after the customer row changes.
type Order struct {
	ID              uuid.UUID     `json:"id"`
	OrderNumber     string        `json:"order_number"     validate:"required,max=20"`
	CustomerID      uuid.UUID     `json:"customer_id"      validate:"required"`
	CustomerName    string        `json:"customer_name"    validate:"required,max=100"`
	CustomerEmail   string        `json:"customer_email"   validate:"required,email,max=100"`
	CustomerPhone   string        `json:"customer_phone"   validate:"required,max=20"`
	DeliveryAddress string        `json:"delivery_address" validate:"max=500"`
	Items           []*OrderItem  `json:"items"            validate:"required,min=1,dive"`
	OrderStatus     OrderStatus   `json:"order_status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	OrderTotal      float64       `json:"order_total"      validate:"gte=0"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type OrderItem struct {
	ProductID     string  `json:"product_id"     validate:"required,max=50"`
	VariantID     string  `json:"variant_id"     validate:"max=50"`
	ProductName   string  `json:"product_name"   validate:"max=255"`
	ProductSKU    string  `json:"product_sku"    validate:"max=100"`
	Quantity      int     `json:"quantity"       validate:"required,gte=1"`
	UnitPrice     float64 `json:"unit_price"     validate:"gte=0"`
	Subtotal      float64 `json:"subtotal"       validate:"gte=0"`
	SelectedSize  string  `json:"selected_size"  validate:"max=50"`
	SelectedColor string  `json:"selected_color" validate:"max=50"`
}

// Total sums item subtotals. The stored OrderTotal is fixed at creation time
// and is never recomputed afterwards.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Subtotal
	}
	return total
}
