// Package crm is the outbound adapter for the CRM REST API. It reacts to
// domain events; ingestion never blocks on it.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"candidate_pipeline_backend/internal/events"
	"candidate_pipeline_backend/platform/config"
	"candidate_pipeline_backend/platform/logger"
)

// Client calls the CRM REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates the CRM API client.
func NewClient(cfg config.CRMConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.GetCRMAPIBaseURL(),
		apiKey:  cfg.GetCRMAPIKey(),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// ClearAssignee removes the assigned user from a CRM opportunity so it drops
// back into the unassigned queue after a terminal close.
func (c *Client) ClearAssignee(ctx context.Context, opportunityID string) error {
	body, err := json.Marshal(map[string]interface{}{"assignedTo": nil})
	if err != nil {
		return fmt.Errorf("marshal clear assignee body: %w", err)
	}

	url := fmt.Sprintf("%s/opportunities/%s", c.baseURL, opportunityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build clear assignee request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("clear assignee request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("clear assignee: crm api returned %d", resp.StatusCode)
	}
	return nil
}

// RegisterHandlers subscribes the adapter to candidate lifecycle events.
// Failures are logged and dropped: the local close has already committed,
// and a stale assignee in the CRM is recoverable by hand.
func (c *Client) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.NameCandidateClosed, events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		closed, ok := event.(events.CandidateClosed)
		if !ok {
			return nil
		}
		if err := c.ClearAssignee(ctx, closed.OpportunityID); err != nil {
			c.log.Warn("clear assignee failed",
				"opportunity_id", closed.OpportunityID,
				"error", err,
			)
		}
		return nil
	}))
}
