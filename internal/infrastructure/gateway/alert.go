package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Alert is one customer notification
type Alert struct {
	ID        uint       `json:"id"`
	Type      string     `json:"type,omitempty"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Unread reports whether the alert has not been read
func (a Alert) Unread() bool { return a.ReadAt == nil }

// Alerts lists the caller's notifications, newest first
func (c *Client) Alerts(ctx context.Context) ([]Alert, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "client/alerts", nil, &raw); err != nil {
		return nil, err
	}
	var alerts []Alert
	if err := json.Unmarshal(unwrap(raw), &alerts); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertRead marks one alert as read
func (c *Client) MarkAlertRead(ctx context.Context, id string) error {
	rel, err := resource("client/alerts/", id, "/read")
	if err != nil {
		return err
	}
	return c.doURL(ctx, http.MethodPost, rel, nil, nil)
}

// MarkAllAlertsRead marks every alert as read
func (c *Client) MarkAllAlertsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "client/alerts/read-all", nil, nil)
}
