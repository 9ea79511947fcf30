package api

import (
	"context"
	"fmt"
	"time"
)

// HealthStatus represents the API health status
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health checks if the API is healthy
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.doRequest(ctx, "GET", "/health", nil)
	if err != nil {
		return nil, err
	}

	var health HealthStatus
	if err := decode(resp, &health); err != nil {
		return nil, err
	}

	return &health, nil
}

// WaitUntilHealthy polls the health endpoint until it answers, up to attempts times
func (c *Client) WaitUntilHealthy(ctx context.Context, attempts int, interval time.Duration) error {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		_, err := c.Health(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if i == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("API not available after %d attempts: %w", attempts, lastErr)
}
