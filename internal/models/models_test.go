package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidOrderStatus(t *testing.T) {
	for _, status := range []string{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusRefunded,
	} {
		assert.True(t, ValidOrderStatus(status), status)
	}

	for _, status := range []string{"", "PENDING", "unknown", "shipped "} {
		assert.False(t, ValidOrderStatus(status), status)
	}
}
