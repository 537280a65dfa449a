// Package xp reports closed tickets to the external XP service. The call is
// best-effort: when the service is down or unconfigured the ticket system
// works without it.
package xp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/model"
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	timeout time.Duration
}

// NewClient builds a client for the XP service. An empty baseURL disables
// all calls.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 5 * time.Second},
		timeout: 5 * time.Second,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

type awardPayload struct {
	TicketID    uint64 `json:"ticket_id"`
	OwnerID     string `json:"owner_id"`
	SupporterID string `json:"supporter_id,omitempty"`
	CategoryID  string `json:"category_id"`
	Rating      *int   `json:"rating"`
}

// Award posts the closed ticket to the XP service. rating is nil when the
// owner skipped the rating.
func (c *Client) Award(ctx context.Context, t *model.Ticket, rating *int) error {
	if !c.Enabled() {
		return nil
	}
	body, err := json.Marshal(awardPayload{
		TicketID:    t.ID,
		OwnerID:     t.OwnerID,
		SupporterID: t.SupporterID,
		CategoryID:  t.CategoryID,
		Rating:      rating,
	})
	if err != nil {
		return fmt.Errorf("xp: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tickets/award-xp", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("xp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("xp: award call: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("xp: award returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// AwardAsync fires Award in a goroutine with its own timeout. Errors are
// logged and dropped.
func (c *Client) AwardAsync(t *model.Ticket, rating *int) {
	if !c.Enabled() {
		return
	}
	snapshot := *t
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.Award(ctx, &snapshot, rating); err != nil {
			log.Printf("xp: award for ticket %d: %v", snapshot.ID, err)
		}
	}()
}
