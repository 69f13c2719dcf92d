package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a customer account, deduplicated by email
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Address belongs to one user; the key fields (type, line 1, city,
// state/province, postal code, country) are immutable once created
type Address struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Type          string    `db:"type" json:"type"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Company       *string   `db:"company" json:"company,omitempty"`
	AddressLine1  string    `db:"address_line_1" json:"address_line_1"`
	AddressLine2  *string   `db:"address_line_2" json:"address_line_2,omitempty"`
	City          string    `db:"city" json:"city"`
	StateProvince string    `db:"state_province" json:"state_province"`
	PostalCode    string    `db:"postal_code" json:"postal_code"`
	Country       string    `db:"country" json:"country"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	IsDefault     bool      `db:"is_default" json:"is_default"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Product represents a catalog entry, deduplicated by SKU
type Product struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	SKU       string          `db:"sku" json:"sku"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// Order represents a placed order. Immutable after creation except for
// Status, which moves through the status machine.
type Order struct {
	ID             uuid.UUID       `db:"id" json:"order_id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	OrderNumber    string          `db:"order_number" json:"order_number"`
	Subtotal       decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxAmount      decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	ShippingAmount decimal.Decimal `db:"shipping_amount" json:"shipping_amount"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status         string          `db:"status" json:"status"`
	PaymentStatus  string          `db:"payment_status" json:"payment_status"`
	PaymentMethod  *string         `db:"payment_method" json:"payment_method,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// Payment statuses
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

var orderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusConfirmed:  {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
}

// ValidOrderStatus reports whether s is a member of the fixed status enumeration.
func ValidOrderStatus(s string) bool {
	_, ok := orderStatuses[s]
	return ok
}

// AddressInput is a caller-supplied address description
type AddressInput struct {
	Type          string  `json:"type" binding:"required,oneof=billing shipping"`
	FirstName     string  `json:"first_name" binding:"required"`
	LastName      string  `json:"last_name" binding:"required"`
	Company       *string `json:"company"`
	AddressLine1  string  `json:"address_line_1" binding:"required"`
	AddressLine2  *string `json:"address_line_2"`
	City          string  `json:"city" binding:"required"`
	StateProvince string  `json:"state_province" binding:"required"`
	PostalCode    string  `json:"postal_code" binding:"required"`
	Country       string  `json:"country"`
	Phone         *string `json:"phone"`
	IsDefault     bool    `json:"is_default"`
}

// UserInput is a caller-supplied user description. Password is an opaque
// credential reference; hashing happens upstream of this service.
type UserInput struct {
	Email     string         `json:"email" binding:"required,email"`
	Password  string         `json:"password" binding:"required"`
	FirstName string         `json:"first_name" binding:"required"`
	LastName  string         `json:"last_name" binding:"required"`
	Phone     *string        `json:"phone"`
	Addresses []AddressInput `json:"addresses" binding:"required,min=1,dive"`
}

// OrderItemInput is one requested line item
type OrderItemInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	SKU       string          `json:"sku" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"required"`
	VariantID *uuid.UUID      `json:"variant_id"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
}
