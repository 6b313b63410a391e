// Package notify carries the fire-and-forget expense event contract. Events
// are dispatched after the mutation's transaction commits; a delivery
// failure is logged by the caller and never affects the mutation outcome.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"fleetops/internal/websocket"
)

// Actor identifies the user who performed the mutation
type Actor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Event describes one expense mutation
type Event struct {
	Action    string    `json:"action"` // CREATE_EXPENSE, UPDATE_EXPENSE, DELETE_EXPENSE
	ExpenseID string    `json:"expense_id"`
	Notes     string    `json:"notes"`
	Category  string    `json:"category"`
	Amount    string    `json:"amount"`
	Date      string    `json:"date"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers expense events to interested collaborators
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// HubNotifier broadcasts events as JSON frames to connected WebSocket clients
type HubNotifier struct {
	hub *websocket.Hub
}

func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case n.hub.Broadcast <- body:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Multi fans one event out to every configured notifier, collecting failures
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
