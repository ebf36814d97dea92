package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vittermi/FastFood/models"
)

// Event types
const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderCancelled     = "order.cancelled"
)

// Event is the broker representation of one entry of the transition log.
// ID is the change id, so consumers can drop redeliveries.
type Event struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	OrderID      string             `json:"orderId"`
	RestaurantID string             `json:"restaurantId"`
	CustomerID   string             `json:"customerId"`
	From         models.OrderStatus `json:"from,omitempty"`
	To           models.OrderStatus `json:"to"`
	ActorID      string             `json:"actorId"`
	OccurredAt   time.Time          `json:"occurredAt"`
}

// FromStatusChange maps a transition log entry to its event.
func FromStatusChange(change models.OrderStatusChange) Event {
	eventType := TypeOrderStatusChanged
	switch {
	case change.FromStatus == "":
		eventType = TypeOrderCreated
	case change.ToStatus == models.StatusCancelled:
		eventType = TypeOrderCancelled
	}

	return Event{
		ID:           change.ID,
		Type:         eventType,
		OrderID:      change.OrderID,
		RestaurantID: change.RestaurantID,
		CustomerID:   change.CustomerID,
		From:         change.FromStatus,
		To:           change.ToStatus,
		ActorID:      change.ActorID,
		OccurredAt:   change.ChangedAt,
	}
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to one destination.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
