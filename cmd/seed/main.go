package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"order-api/internal/models"
	"order-api/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seeds the API with sample data: 12 products, 12 users with a shipping and
// a billing address each, one order per user, then a round of status churn.
// Run against a live server, e.g. API_URL=http://localhost:8080 go run ./cmd/seed

var statuses = []string{
	models.OrderStatusConfirmed,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
}

func main() {
	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 10 * time.Second}

	products := make([]models.OrderItemInput, 12)
	for i := range products {
		// random price between 10.00 and 100.00, in cents
		cents := int64(1000 + rand.Intn(9001))
		products[i] = models.OrderItemInput{
			ProductID: uuid.New(),
			SKU:       fmt.Sprintf("SKU-%d", 1000+i),
			Name:      fmt.Sprintf("Product %d", i),
			Price:     decimal.New(cents, -2),
		}
	}

	orderIDs := make([]uuid.UUID, 0, 12)
	for i := 0; i < 12; i++ {
		product := products[rand.Intn(len(products))]
		product.Quantity = 1 + rand.Intn(5)

		req := service.CreateOrderRequest{
			User:                 makeUser(i),
			Items:                []models.OrderItemInput{product},
			ShippingAddressIndex: 0,
			BillingAddressIndex:  1,
			PaymentMethod:        ptr("credit_card"),
			Notes:                ptr("Automated seed order"),
		}

		var resp service.CreateOrderResponse
		if err := post(client, apiURL+"/orders", req, &resp); err != nil {
			log.Fatalf("Failed to create order for user %d: %v", i, err)
		}
		log.Printf("Created order %s (%s) total=%s", resp.OrderID, resp.OrderNumber, resp.TotalAmount)
		orderIDs = append(orderIDs, resp.OrderID)
	}

	for _, orderID := range orderIDs {
		status := statuses[rand.Intn(len(statuses))]
		if err := patchStatus(client, apiURL, orderID, status); err != nil {
			log.Printf("Failed to update order %s: %v", orderID, err)
			continue
		}

		var statusResp service.StatusResponse
		if err := get(client, fmt.Sprintf("%s/orders/%s/status", apiURL, orderID), &statusResp); err != nil {
			log.Printf("Failed to read status of order %s: %v", orderID, err)
			continue
		}
		log.Printf("Order %s status=%s", orderID, statusResp.Status)
	}

	log.Println("Seeding complete")
}

func makeUser(i int) models.UserInput {
	addr := models.AddressInput{
		FirstName:     fmt.Sprintf("First%d", i),
		LastName:      fmt.Sprintf("Last%d", i),
		AddressLine1:  fmt.Sprintf("%d Main St", i),
		City:          "Cityville",
		StateProvince: "State",
		PostalCode:    fmt.Sprintf("100%02d", i),
		Country:       "US",
		IsDefault:     true,
	}
	shipping, billing := addr, addr
	shipping.Type = "shipping"
	billing.Type = "billing"

	return models.UserInput{
		Email:     fmt.Sprintf("user%d@example.com", i),
		Password:  "password123",
		FirstName: fmt.Sprintf("First%d", i),
		LastName:  fmt.Sprintf("Last%d", i),
		Phone:     ptr(fmt.Sprintf("555-010%02d", i)),
		Addresses: []models.AddressInput{shipping, billing},
	}
}

func post(client *http.Client, url string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func patchStatus(client *http.Client, apiURL string, orderID uuid.UUID, status string) error {
	payload, _ := json.Marshal(map[string]string{"status": status})
	req, err := http.NewRequest(http.MethodPatch,
		fmt.Sprintf("%s/orders/%s/status", apiURL, orderID), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func get(client *http.Client, url string, out interface{}) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func ptr(s string) *string {
	return &s
}
