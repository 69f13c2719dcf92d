package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"order-api/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicateOrderNumber is returned when an order insert hits the unique
// constraint on order_number. Callers may retry with a fresh number.
var ErrDuplicateOrderNumber = errors.New("duplicate order number")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string, maxOpenConns, maxIdleConns int) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// Begin opens the transaction an order submission runs in. Default
// isolation (read committed) is sufficient: each upsert sees the latest
// committed row, and the transaction commits or rolls back as a whole.
func (s *Store) Begin(ctx context.Context) (OrderTx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &orderTx{tx: tx}, nil
}

// UpdateOrderStatus applies a status to an order and stamps updated_at.
// Returns false when no order matches the identifier.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetOrderStatus retrieves the current status of an order
func (s *Store) GetOrderStatus(ctx context.Context, orderID uuid.UUID) (string, error) {
	var status string
	err := s.db.GetContext(ctx, &status, "SELECT status FROM orders WHERE id = $1", orderID)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// RecordOrderEvent appends an event to the order_events journal. Replayed
// events are absorbed by the primary key on event_id.
func (s *Store) RecordOrderEvent(ctx context.Context, eventID, eventType string, orderID uuid.UUID, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO order_events (event_id, event_type, order_id, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (event_id) DO NOTHING`,
		eventID, eventType, orderID, payload)
	return err
}

// IsEventRecorded checks whether an event is already in the journal
func (s *Store) IsEventRecorded(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM order_events WHERE event_id = $1)", eventID)
	return exists, err
}
