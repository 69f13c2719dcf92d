package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"order-api/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "orders_order_number_key"}
	assert.True(t, isUniqueViolation(err, "orders_order_number_key"))
	assert.False(t, isUniqueViolation(err, "users_email_key"))

	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}, "orders_order_number_key"))
	assert.False(t, isUniqueViolation(errors.New("plain"), "orders_order_number_key"))
	assert.False(t, isUniqueViolation(nil, "orders_order_number_key"))
}

// Integration tests below need a database; they run only when
// TEST_DATABASE_URL is set (and migrations have been applied).

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewStore(dsn, 5, 2)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertUserIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	user := &models.UserInput{
		Email:     uuid.New().String() + "@example.com",
		Password:  "hash",
		FirstName: "First",
		LastName:  "Last",
	}

	id1, err := tx.UpsertUser(ctx, user)
	require.NoError(t, err)

	user.FirstName = "Renamed"
	id2, err := tx.UpsertUser(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "re-upserting the same email must return the same row")
}

func TestUpsertProductReturnsStoredPrice(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	item := &models.OrderItemInput{
		ProductID: uuid.New(),
		SKU:       "TEST-" + uuid.New().String(),
		Name:      "Test Product",
		Price:     decimal.RequireFromString("19.99"),
		Quantity:  1,
	}

	id1, price1, err := tx.UpsertProduct(ctx, item)
	require.NoError(t, err)
	assert.True(t, price1.Equal(item.Price))

	item.Price = decimal.RequireFromString("24.99")
	id2, price2, err := tx.UpsertProduct(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.True(t, price2.Equal(item.Price), "upsert overwrites price and reads it back")
}

func TestOrderLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	userID, err := tx.UpsertUser(ctx, &models.UserInput{
		Email:     uuid.New().String() + "@example.com",
		Password:  "hash",
		FirstName: "First",
		LastName:  "Last",
	})
	require.NoError(t, err)

	order := &models.Order{
		UserID:         userID,
		OrderNumber:    "ORD-TEST-" + uuid.New().String(),
		Subtotal:       decimal.RequireFromString("59.97"),
		TaxAmount:      decimal.Zero,
		ShippingAmount: decimal.Zero,
		TotalAmount:    decimal.RequireFromString("59.97"),
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
	}
	require.NoError(t, tx.InsertOrder(ctx, order))
	require.NotEqual(t, uuid.Nil, order.ID)
	require.NoError(t, tx.Commit())

	found, err := s.UpdateOrderStatus(ctx, order.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.True(t, found)

	status, err := s.GetOrderStatus(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, status)

	_, err = s.GetOrderStatus(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	email := uuid.New().String() + "@example.com"

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.UpsertUser(ctx, &models.UserInput{
		Email: email, Password: "hash", FirstName: "First", LastName: "Last",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	var count int
	err = s.GetDB().GetContext(ctx, &count, "SELECT COUNT(*) FROM users WHERE email = $1", email)
	require.NoError(t, err)
	assert.Zero(t, count)
}
