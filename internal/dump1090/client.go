package dump1090

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"modes_radar/internal/models"

	"golang.org/x/time/rate"
)

// maxBodySize bounds a single snapshot; a busy receiver serves well under 1MB
const maxBodySize = 8 << 20

// Client polls a dump1090 HTTP endpoint (e.g. http://127.0.0.1:8080/data.json)
type Client struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for url. Requests are paced to at most
// requestsPerSecond; a value <= 0 disables pacing.
func NewClient(url string, timeout time.Duration, requestsPerSecond float64) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// URL returns the endpoint being polled
func (c *Client) URL() string {
	return c.url
}

// Fetch retrieves and decodes one snapshot. On any error no messages are returned.
func (c *Client) Fetch(ctx context.Context) ([]models.TransponderMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", c.url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("receiver returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response exceeds %d bytes", maxBodySize)
	}

	msgs, err := ParseSnapshot(body)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
