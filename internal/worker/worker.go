package worker

import (
	"context"
	"encoding/json"
	"log"

	"order-api/internal/broker"
	"order-api/internal/models"
	"order-api/internal/store"
	"order-api/internal/util"

	"github.com/google/uuid"
)

// JournalWorker consumes order events and appends them to the order_events
// audit table. Redelivered events are absorbed by the journal's primary key,
// so handling is idempotent.
type JournalWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
}

// NewJournalWorker creates a new journal worker
func NewJournalWorker(consumer *broker.Consumer, st *store.Store) *JournalWorker {
	w := &JournalWorker{
		consumer: consumer,
		store:    st,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnOrderStatusChanged(w.handleOrderStatusChanged)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *JournalWorker) Start(ctx context.Context) error {
	log.Println("Starting journal worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *JournalWorker) Stop() error {
	log.Println("Stopping journal worker...")
	return w.consumer.Close()
}

func (w *JournalWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	return w.journal(ctx, event.EventID, event.EventType, event.OrderID, event)
}

func (w *JournalWorker) handleOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	return w.journal(ctx, event.EventID, event.EventType, event.OrderID, event)
}

func (w *JournalWorker) journal(ctx context.Context, eventID, eventType string, orderID uuid.UUID, event interface{}) error {
	recorded, err := w.store.IsEventRecorded(ctx, eventID)
	if err != nil {
		return err
	}
	if recorded {
		log.Printf("Event already journaled: %s", eventID)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := w.store.RecordOrderEvent(ctx, eventID, eventType, orderID, payload); err != nil {
		return err
	}

	util.EventsJournaledTotal.WithLabelValues(eventType).Inc()
	return nil
}
