package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-api/internal/models"
	"order-api/internal/store"
	"order-api/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderStore is the storage surface the order service needs.
// Implemented by *store.Store.
type OrderStore interface {
	Begin(ctx context.Context) (store.OrderTx, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (bool, error)
	GetOrderStatus(ctx context.Context, orderID uuid.UUID) (string, error)
}

// StatusCache is a best-effort cache for order status lookups.
// Implemented by *redisclient.Client.
type StatusCache interface {
	GetOrderStatus(ctx context.Context, orderID uuid.UUID) (string, bool, error)
	SetOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error
}

// EventPublisher publishes order domain events.
// Implemented by *broker.EventPublisher.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService handles order submission and status tracking
type OrderService struct {
	store  OrderStore
	cache  StatusCache
	events EventPublisher
	policy PricingPolicy
	logger *zap.Logger
}

// NewOrderService creates a new order service. cache and events may be nil;
// both are best-effort collaborators, never load-bearing for correctness.
func NewOrderService(st OrderStore, cache StatusCache, events EventPublisher, policy PricingPolicy) *OrderService {
	if policy == nil {
		policy = ZeroPolicy()
	}
	return &OrderService{
		store:  st,
		cache:  cache,
		events: events,
		policy: policy,
		logger: util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to place an order
type CreateOrderRequest struct {
	User                 models.UserInput        `json:"user" binding:"required"`
	Items                []models.OrderItemInput `json:"items" binding:"required,min=1,dive"`
	ShippingAddressIndex int                     `json:"shipping_address_index"`
	BillingAddressIndex  int                     `json:"billing_address_index"`
	PaymentMethod        *string                 `json:"payment_method"`
	Notes                *string                 `json:"notes"`
}

// CreateOrderResponse represents the result of a placed order
type CreateOrderResponse struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uuid.UUID       `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
	ItemsCount    int             `json:"items_count"`
}

// StatusResponse echoes an order's status
type StatusResponse struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
}

// CreateOrder reconciles the user, addresses and products, computes totals
// and persists the order, all in one database transaction. On any failure
// the transaction rolls back in full; no partial writes survive.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderCreateLatency.Observe(time.Since(start).Seconds())
	}()

	// The request layer already rejects quantity <= 0; guarded again here so
	// a misbehaving caller cannot reach the transaction with one.
	for i := range req.Items {
		if req.Items[i].Quantity <= 0 {
			util.OrdersFailedTotal.WithLabelValues("invalid_quantity").Inc()
			return nil, fmt.Errorf("%w: sku %s", ErrInvalidQuantity, req.Items[i].SKU)
		}
	}

	resp, err := s.createOrderTx(ctx, req)
	if errors.Is(err, store.ErrDuplicateOrderNumber) {
		// The timestamp-derived order number collided. The aborted
		// transaction left nothing behind, so one clean re-run with a fresh
		// number is safe.
		s.logger.Warn("Order number collision, retrying")
		resp, err = s.createOrderTx(ctx, req)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAddressIndex):
			util.OrdersFailedTotal.WithLabelValues("invalid_address_index").Inc()
			return nil, err
		case errors.Is(err, ErrInvalidQuantity):
			util.OrdersFailedTotal.WithLabelValues("invalid_quantity").Inc()
			return nil, err
		case errors.Is(err, ErrProductUnavailable):
			util.OrdersFailedTotal.WithLabelValues("product_unavailable").Inc()
			return nil, err
		default:
			util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
			s.logger.Error("Order transaction failed", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", resp.OrderID.String()),
		zap.String("order_number", resp.OrderNumber),
		zap.String("total", resp.TotalAmount.String()))

	s.cacheStatus(ctx, resp.OrderID, resp.Status)
	s.publishOrderPlaced(ctx, resp)

	return resp, nil
}

// createOrderTx runs one attempt of the order transaction. Validation
// failures come back as taxonomy errors, everything else as raw storage
// errors for the caller to classify.
func (s *OrderService) createOrderTx(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	userID, err := tx.UpsertUser(ctx, &req.User)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	addressIDs := make([]uuid.UUID, 0, len(req.User.Addresses))
	for i := range req.User.Addresses {
		addr := &req.User.Addresses[i]
		if addr.Country == "" {
			addr.Country = "US"
		}
		id, err := tx.UpsertAddress(ctx, userID, addr)
		if err != nil {
			return nil, fmt.Errorf("upsert address %d: %w", i, err)
		}
		addressIDs = append(addressIDs, id)
	}

	if req.ShippingAddressIndex < 0 || req.ShippingAddressIndex >= len(addressIDs) {
		return nil, fmt.Errorf("%w: shipping index %d with %d addresses",
			ErrInvalidAddressIndex, req.ShippingAddressIndex, len(addressIDs))
	}
	if req.BillingAddressIndex < 0 || req.BillingAddressIndex >= len(addressIDs) {
		return nil, fmt.Errorf("%w: billing index %d with %d addresses",
			ErrInvalidAddressIndex, req.BillingAddressIndex, len(addressIDs))
	}

	priced := make([]PricedItem, 0, len(req.Items))
	for i := range req.Items {
		item := &req.Items[i]
		_, price, err := tx.UpsertProduct(ctx, item)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: sku %s", ErrProductUnavailable, item.SKU)
		}
		if err != nil {
			return nil, fmt.Errorf("upsert product %s: %w", item.SKU, err)
		}
		priced = append(priced, PricedItem{UnitPrice: price, Quantity: item.Quantity})
	}

	totals, err := CalculateTotals(priced, s.policy)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:         userID,
		OrderNumber:    newOrderNumber(),
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.Tax,
		ShippingAmount: totals.Shipping,
		TotalAmount:    totals.Total,
		Status:         models.OrderStatusPending,
		PaymentStatus:  models.PaymentStatusPending,
		PaymentMethod:  req.PaymentMethod,
	}
	if err := tx.InsertOrder(ctx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true

	return &CreateOrderResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        userID,
		TotalAmount:   order.TotalAmount,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     order.CreatedAt,
		ItemsCount:    len(req.Items),
	}, nil
}

// UpdateStatus applies a target status to an existing order. The membership
// check runs before any storage access; applying the same status twice is a
// no-op observable as two successful calls.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*StatusResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	found, err := s.store.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		s.logger.Error("Status update failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}

	util.StatusUpdatesTotal.WithLabelValues(status).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", status))

	s.cacheStatus(ctx, orderID, status)
	s.publishStatusChanged(ctx, orderID, status)

	return &StatusResponse{OrderID: orderID, Status: status}, nil
}

// GetStatus returns an order's current status, read through the cache.
func (s *OrderService) GetStatus(ctx context.Context, orderID uuid.UUID) (*StatusResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetStatus")
	defer span.End()

	if s.cache != nil {
		status, ok, err := s.cache.GetOrderStatus(ctx, orderID)
		if err != nil {
			s.logger.Warn("Status cache read failed", zap.Error(err))
		} else if ok {
			util.StatusCacheHits.Inc()
			return &StatusResponse{OrderID: orderID, Status: status}, nil
		}
		util.StatusCacheMisses.Inc()
	}

	status, err := s.store.GetOrderStatus(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.cacheStatus(ctx, orderID, status)
	return &StatusResponse{OrderID: orderID, Status: status}, nil
}

func (s *OrderService) cacheStatus(ctx context.Context, orderID uuid.UUID, status string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetOrderStatus(ctx, orderID, status); err != nil {
		s.logger.Warn("Status cache write failed", zap.Error(err))
	}
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, resp *CreateOrderResponse) {
	if s.events == nil {
		return
	}
	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     resp.OrderID,
		OrderNumber: resp.OrderNumber,
		UserID:      resp.UserID,
		TotalAmount: resp.TotalAmount,
		ItemsCount:  resp.ItemsCount,
	}
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *OrderService) publishStatusChanged(ctx context.Context, orderID uuid.UUID, status string) {
	if s.events == nil {
		return
	}
	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:   orderID,
		NewStatus: status,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}
}

// newOrderNumber derives a human-readable order number from the creation
// time. Uniqueness is enforced by the constraint on orders.order_number,
// not by this function.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d", time.Now().UnixMilli())
}
