package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// HTTPClient talks to the balance service over HTTP. All calls go through a
// circuit breaker so a dead balance service fails fast instead of tying up
// checkout requests waiting on timeouts.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	settings := gobreaker.Settings{
		Name:    "balance-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
	}
}

type balanceResponse struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}

type deductRequest struct {
	Amount float64 `json:"amount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *HTTPClient) GetBalance(ctx context.Context, userID string) (float64, error) {
	url := fmt.Sprintf("%s/balances/%s", c.baseURL, userID)

	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	return body.Balance, nil
}

func (c *HTTPClient) Deduct(ctx context.Context, userID string, amount float64) error {
	url := fmt.Sprintf("%s/balances/%s/deduct", c.baseURL, userID)

	payload, err := json.Marshal(deductRequest{Amount: amount})
	if err != nil {
		return fmt.Errorf("marshal deduct request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	// Decline responses carry the collaborator's reason; pass it through
	var body errorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if jsonErr := json.Unmarshal(raw, &body); jsonErr == nil && body.Error != "" {
		return fmt.Errorf("deduct rejected: %s", body.Error)
	}
	return fmt.Errorf("deduct rejected with status %d", resp.StatusCode)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, payload []byte) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}

		// 5xx counts as a breaker failure; 4xx is a business answer
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("balance service returned %d", resp.StatusCode)
		}

		return resp, nil
	})
}
