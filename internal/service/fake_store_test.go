package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"order-api/internal/models"
	"order-api/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory stand-in for *store.Store with real transaction
// visibility: writes stay in the fakeTx until Commit and vanish on Rollback.
type fakeStore struct {
	users     map[string]uuid.UUID        // email -> id
	addresses map[string]uuid.UUID        // composite key -> id
	products  map[string]fakeProduct      // sku -> product
	orders    map[uuid.UUID]*models.Order // id -> order

	// priceOverride simulates a concurrently committed price: the upsert
	// returns this stored price instead of the request price.
	priceOverride map[string]decimal.Decimal

	// missingSKU makes the product upsert yield no row for that SKU
	missingSKU string

	// dupNumberRemaining makes InsertOrder fail with a duplicate order
	// number that many times before succeeding
	dupNumberRemaining int

	begins        int
	statusUpdates int
}

type fakeProduct struct {
	id    uuid.UUID
	price decimal.Decimal
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]uuid.UUID),
		addresses:     make(map[string]uuid.UUID),
		products:      make(map[string]fakeProduct),
		orders:        make(map[uuid.UUID]*models.Order),
		priceOverride: make(map[string]decimal.Decimal),
	}
}

func (f *fakeStore) Begin(ctx context.Context) (store.OrderTx, error) {
	f.begins++
	return &fakeTx{
		st:        f,
		users:     make(map[string]uuid.UUID),
		addresses: make(map[string]uuid.UUID),
		products:  make(map[string]fakeProduct),
	}, nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status string) (bool, error) {
	f.statusUpdates++
	order, ok := f.orders[orderID]
	if !ok {
		return false, nil
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeStore) GetOrderStatus(ctx context.Context, orderID uuid.UUID) (string, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return "", store.ErrNotFound
	}
	return order.Status, nil
}

type fakeTx struct {
	st        *fakeStore
	users     map[string]uuid.UUID
	addresses map[string]uuid.UUID
	products  map[string]fakeProduct
	orders    []*models.Order
	done      bool
}

func (t *fakeTx) UpsertUser(ctx context.Context, user *models.UserInput) (uuid.UUID, error) {
	if id, ok := t.st.users[user.Email]; ok {
		return id, nil
	}
	if id, ok := t.users[user.Email]; ok {
		return id, nil
	}
	id := uuid.New()
	t.users[user.Email] = id
	return id, nil
}

func (t *fakeTx) UpsertAddress(ctx context.Context, userID uuid.UUID, addr *models.AddressInput) (uuid.UUID, error) {
	key := strings.Join([]string{
		userID.String(), addr.Type, addr.AddressLine1, addr.City,
		addr.StateProvince, addr.PostalCode, addr.Country,
	}, "|")
	if id, ok := t.st.addresses[key]; ok {
		return id, nil
	}
	if id, ok := t.addresses[key]; ok {
		return id, nil
	}
	id := uuid.New()
	t.addresses[key] = id
	return id, nil
}

func (t *fakeTx) UpsertProduct(ctx context.Context, item *models.OrderItemInput) (uuid.UUID, decimal.Decimal, error) {
	if item.SKU == t.st.missingSKU {
		return uuid.Nil, decimal.Zero, store.ErrNotFound
	}

	price := item.Price
	if override, ok := t.st.priceOverride[item.SKU]; ok {
		price = override
	}

	if existing, ok := t.st.products[item.SKU]; ok {
		t.products[item.SKU] = fakeProduct{id: existing.id, price: price}
		return existing.id, price, nil
	}
	if existing, ok := t.products[item.SKU]; ok {
		t.products[item.SKU] = fakeProduct{id: existing.id, price: price}
		return existing.id, price, nil
	}
	t.products[item.SKU] = fakeProduct{id: item.ProductID, price: price}
	return item.ProductID, price, nil
}

func (t *fakeTx) InsertOrder(ctx context.Context, order *models.Order) error {
	if t.st.dupNumberRemaining > 0 {
		t.st.dupNumberRemaining--
		return store.ErrDuplicateOrderNumber
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	t.orders = append(t.orders, order)
	return nil
}

func (t *fakeTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	for email, id := range t.users {
		t.st.users[email] = id
	}
	for key, id := range t.addresses {
		t.st.addresses[key] = id
	}
	for sku, p := range t.products {
		t.st.products[sku] = p
	}
	for _, order := range t.orders {
		t.st.orders[order.ID] = order
	}
	return nil
}

func (t *fakeTx) Rollback() error {
	t.done = true
	return nil
}

// fakeCache is an in-memory StatusCache
type fakeCache struct {
	statuses map[uuid.UUID]string
	hits     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{statuses: make(map[uuid.UUID]string)}
}

func (c *fakeCache) GetOrderStatus(ctx context.Context, orderID uuid.UUID) (string, bool, error) {
	status, ok := c.statuses[orderID]
	if ok {
		c.hits++
	}
	return status, ok, nil
}

func (c *fakeCache) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status string) error {
	c.statuses[orderID] = status
	return nil
}

// fakePublisher records published events
type fakePublisher struct {
	placed        []*models.OrderPlacedEvent
	statusChanged []*models.OrderStatusChangedEvent
}

func (p *fakePublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	p.placed = append(p.placed, event)
	return nil
}

func (p *fakePublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	p.statusChanged = append(p.statusChanged, event)
	return nil
}
