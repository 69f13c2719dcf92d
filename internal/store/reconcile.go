package store

import (
	"context"
	"database/sql"
	"errors"

	"order-api/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderTx is the transactional unit an order submission runs in. Every
// method executes against the same database transaction; nothing is visible
// to other sessions until Commit, and Rollback discards all of it.
type OrderTx interface {
	// UpsertUser inserts a user or, if the email already exists, refreshes
	// name and phone. A null incoming phone never clobbers a stored one.
	// Returns the persisted user identifier either way.
	UpsertUser(ctx context.Context, user *models.UserInput) (uuid.UUID, error)

	// UpsertAddress inserts an address or, on a key match for the same user,
	// refreshes the mutable fields and stamps updated_at. The key fields
	// themselves are never updated.
	UpsertAddress(ctx context.Context, userID uuid.UUID, addr *models.AddressInput) (uuid.UUID, error)

	// UpsertProduct inserts a product or, on a SKU match, overwrites name and
	// price. The returned price is read back from the stored row, not echoed
	// from the input: concurrent price updates must be reflected in totals.
	// Returns ErrNotFound if the upsert yields no row.
	UpsertProduct(ctx context.Context, item *models.OrderItemInput) (uuid.UUID, decimal.Decimal, error)

	// InsertOrder persists the order aggregate, filling in ID, CreatedAt and
	// UpdatedAt. Returns ErrDuplicateOrderNumber on an order_number conflict.
	InsertOrder(ctx context.Context, order *models.Order) error

	Commit() error
	Rollback() error
}

type orderTx struct {
	tx *sqlx.Tx
}

func (t *orderTx) UpsertUser(ctx context.Context, user *models.UserInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO users (email, password_hash, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email)
		DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = COALESCE(EXCLUDED.phone, users.phone),
			updated_at = NOW()
		RETURNING id`,
		user.Email, user.Password, user.FirstName, user.LastName, user.Phone)
	return id, err
}

func (t *orderTx) UpsertAddress(ctx context.Context, userID uuid.UUID, addr *models.AddressInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO addresses (
			user_id, type, first_name, last_name, company,
			address_line_1, address_line_2, city, state_province,
			postal_code, country, phone, is_default
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, type, address_line_1, city, state_province, postal_code, country)
		DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			company = EXCLUDED.company,
			address_line_2 = EXCLUDED.address_line_2,
			phone = EXCLUDED.phone,
			is_default = EXCLUDED.is_default,
			updated_at = NOW()
		RETURNING id`,
		userID, addr.Type, addr.FirstName, addr.LastName, addr.Company,
		addr.AddressLine1, addr.AddressLine2, addr.City, addr.StateProvince,
		addr.PostalCode, addr.Country, addr.Phone, addr.IsDefault)
	return id, err
}

func (t *orderTx) UpsertProduct(ctx context.Context, item *models.OrderItemInput) (uuid.UUID, decimal.Decimal, error) {
	var row struct {
		ID    uuid.UUID       `db:"id"`
		Price decimal.Decimal `db:"price"`
	}
	err := t.tx.GetContext(ctx, &row, `
		INSERT INTO products (id, name, sku, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (sku)
		DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			updated_at = NOW()
		RETURNING id, price`,
		item.ProductID, item.Name, item.SKU, item.Price)
	if err == sql.ErrNoRows {
		return uuid.Nil, decimal.Zero, ErrNotFound
	}
	if err != nil {
		return uuid.Nil, decimal.Zero, err
	}
	return row.ID, row.Price, nil
}

func (t *orderTx) InsertOrder(ctx context.Context, order *models.Order) error {
	err := t.tx.GetContext(ctx, order, `
		INSERT INTO orders (
			user_id, order_number, subtotal, tax_amount, shipping_amount,
			total_amount, status, payment_status, payment_method
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		order.UserID, order.OrderNumber, order.Subtotal, order.TaxAmount,
		order.ShippingAmount, order.TotalAmount, order.Status,
		order.PaymentStatus, order.PaymentMethod)
	if isUniqueViolation(err, "orders_order_number_key") {
		return ErrDuplicateOrderNumber
	}
	return err
}

func (t *orderTx) Commit() error {
	return t.tx.Commit()
}

func (t *orderTx) Rollback() error {
	return t.tx.Rollback()
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == constraint
}
