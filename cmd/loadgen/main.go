//nolint:mnd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-resty/resty/v2"
)

type submission struct {
	Customer customer `json:"customer"`
	Items    []item   `json:"items"`
}

type customer struct {
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Address  *address `json:"address,omitempty"`
}

type address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Province   string `json:"province"`
}

type item struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	ProductSKU  string  `json:"productSku"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Order service base URL")
	numOrders := flag.Int("count", 1, "Number of orders to submit")
	interval := flag.Duration("interval", 1*time.Second, "Interval between submissions")

	flag.Parse()

	client := resty.New().
		SetBaseURL(*baseURL).
		SetTimeout(5 * time.Second).
		SetHeader("Content-Type", "application/json")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf(
		"Starting load generator. Will submit %d orders to '%s' every %v\n",
		*numOrders,
		*baseURL,
		*interval,
	)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	submitted := 0

	submitOrder(ctx, client)

	submitted++
	if submitted >= *numOrders {
		log.Printf("Submitted all %d orders. Exiting.\n", *numOrders)
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down load generator...")
			return
		case <-ticker.C:
			submitOrder(ctx, client)
			submitted++
			if submitted >= *numOrders {
				log.Printf("Submitted all %d orders. Exiting.\n", *numOrders)
				return
			}
		}
	}
}

func submitOrder(ctx context.Context, client *resty.Client) {
	payload := generateFakeSubmission()

	resp, err := client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/api/orders")
	if err != nil {
		log.Printf("Failed to submit order: %v", err)
		return
	}

	log.Printf(
		"Submitted order for %s: status=%d remaining=%s",
		payload.Customer.Email,
		resp.StatusCode(),
		resp.Header().Get("X-RateLimit-Remaining"),
	)
}

func generateFakeSubmission() *submission {
	items := make([]item, 0, gofakeit.Number(1, 4))
	for i := 0; i < cap(items); i++ {
		items = append(items, item{
			ProductID:   gofakeit.UUID(),
			ProductName: gofakeit.ProductName(),
			ProductSKU:  fmt.Sprintf("SKU-%s", gofakeit.LetterN(8)),
			Quantity:    gofakeit.Number(1, 3),
			UnitPrice:   gofakeit.Price(500, 50000),
		})
	}

	return &submission{
		Customer: customer{
			FullName: gofakeit.Name(),
			Email:    gofakeit.Email(),
			Phone:    gofakeit.Phone(),
			Address: &address{
				Street:     gofakeit.Street(),
				City:       gofakeit.City(),
				PostalCode: gofakeit.Zip(),
				Province:   gofakeit.State(),
			},
		},
		Items: items,
	}
}
