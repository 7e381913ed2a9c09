package e2e_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type E2ETestSuite struct {
	suite.Suite

	client  *resty.Client
	appHost string
	appPort string
}

func (s *E2ETestSuite) SetupSuite() {
	s.appHost = getEnvOrDefault("APP_HOST", "localhost")
	s.appPort = getEnvOrDefault("APP_PORT", "8080")

	hostport := net.JoinHostPort(s.appHost, s.appPort)
	s.client = resty.New().
		SetBaseURL("http://" + hostport).
		SetTimeout(10 * time.Second)

	s.waitForApp()
}

func (s *E2ETestSuite) waitForApp() {
	const maxRetries = 30
	const retryDelay = 2 * time.Second

	for i := range maxRetries {
		resp, err := s.client.R().
			SetContext(context.Background()).
			Get("/health")
		if err != nil {
			s.T().Logf("Health check failed (attempt %d/%d): %v", i+1, maxRetries, err)
			time.Sleep(retryDelay)
			continue
		}

		if resp.StatusCode() == http.StatusOK {
			s.T().Log("App is healthy")
			return
		}
		s.T().Logf("App health check status %d (attempt %d/%d)", resp.StatusCode(), i+1, maxRetries)
		time.Sleep(retryDelay)
	}
	s.T().Fatalf("App did not become healthy after %d attempts", maxRetries)
}

func (s *E2ETestSuite) TestOrderFlow() {
	payload := generateFakeSubmission()

	resp, err := s.client.R().
		SetContext(context.Background()).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/api/orders")
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode(), "body: %s", resp.String())

	var submitResp struct {
		Success bool `json:"success"`
		Data    struct {
			OrderNumber string  `json:"orderNumber"`
			Total       float64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(s.T(), json.Unmarshal(resp.Body(), &submitResp))
	require.True(s.T(), submitResp.Success)
	require.NotEmpty(s.T(), submitResp.Data.OrderNumber)

	// An identical resubmission inside the duplicate window collapses into
	// the same order.
	resp, err = s.client.R().
		SetContext(context.Background()).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post("/api/orders")
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode())

	var dupResp struct {
		Data struct {
			OrderNumber string `json:"orderNumber"`
		} `json:"data"`
	}
	require.NoError(s.T(), json.Unmarshal(resp.Body(), &dupResp))
	require.Equal(s.T(), submitResp.Data.OrderNumber, dupResp.Data.OrderNumber)
}

func (s *E2ETestSuite) TestRateLimitHeaders() {
	resp, err := s.client.R().
		SetContext(context.Background()).
		Get("/api/orders/RS-20260101-XXXXX")
	require.NoError(s.T(), err)

	require.NotEmpty(s.T(), resp.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(s.T(), resp.Header().Get("X-RateLimit-Remaining"))
	require.Equal(s.T(), "nosniff", resp.Header().Get("X-Content-Type-Options"))
}

func TestE2E(t *testing.T) {
	t.Parallel()
	if os.Getenv("E2E_TEST") == "" {
		t.Skip("Skipping e2e test; set E2E_TEST to run.")
	}
	suite.Run(t, new(E2ETestSuite))
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

type submissionPayload struct {
	Customer customerPayload `json:"customer"`
	Items    []itemPayload   `json:"items"`
}

type customerPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type itemPayload struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

func generateFakeSubmission() *submissionPayload {
	return &submissionPayload{
		Customer: customerPayload{
			FullName: gofakeit.Name(),
			Email:    fmt.Sprintf("e2e-%s@example.com", gofakeit.LetterN(10)),
			Phone:    gofakeit.Phone(),
		},
		Items: []itemPayload{
			{
				ProductID: gofakeit.UUID(),
				Quantity:  gofakeit.Number(1, 3),
				UnitPrice: gofakeit.Price(500, 50000),
			},
		},
	}
}
