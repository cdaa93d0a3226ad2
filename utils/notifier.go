package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"project-tracker/backend/logging"

	"github.com/sony/gobreaker"
)

// Notifier delivers best-effort event webhooks (task assigned, comment
// added) through a circuit breaker. Delivery failures are logged and never
// surfaced to the caller; with no webhook URL configured it is a no-op.
type Notifier struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	url     string
}

func NewNotifier(client *http.Client, url string) *Notifier {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	return &Notifier{client: client, breaker: breaker, url: url}
}

type event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sentAt"`
}

// Notify posts the event to the configured webhook. Errors are swallowed
// after logging; the primary operation already succeeded.
func (n *Notifier) Notify(ctx context.Context, eventType string, payload interface{}) {
	if n == nil || n.url == "" {
		return
	}

	_, err := n.breaker.Execute(func() (interface{}, error) {
		body, err := json.Marshal(event{Type: eventType, Payload: payload, SentAt: time.Now()})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFY_FAILED, Description: Failed to deliver '%s' notification: %v", eventType, err)
	}
}
