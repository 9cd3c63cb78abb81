package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPChecker calls a remote inventory collaborator over HTTP.
type HTTPChecker struct {
	client *resty.Client
}

// checkBatchRequest is the wire shape of the batch check request.
type checkBatchRequest struct {
	Items []AvailabilityRequest `json:"items"`
}

// checkBatchResponse is the wire shape of the batch check response.
type checkBatchResponse struct {
	Results []AvailabilityResult `json:"results"`
}

// NewHTTPChecker creates an HTTPChecker for the collaborator at baseURL.
// Per-call deadlines come from the circuit breaker; the client timeout is a
// transport-level backstop.
func NewHTTPChecker(baseURL string, timeout time.Duration) *HTTPChecker {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &HTTPChecker{client: client}
}

// CheckBatchAvailability implements Checker.
func (c *HTTPChecker) CheckBatchAvailability(
	ctx context.Context,
	items []AvailabilityRequest,
) ([]AvailabilityResult, error) {
	var out checkBatchResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(checkBatchRequest{Items: items}).
		SetResult(&out).
		Post("/v1/inventory/check")
	if err != nil {
		return nil, fmt.Errorf("inventory request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("inventory request failed with status %d", resp.StatusCode())
	}

	return out.Results, nil
}
