package events

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vittermi/FastFood/utils"
)

// LogPublisher writes events to the info log. It is the default when no
// broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) error {
	utils.InfoLogger.WithFields(logrus.Fields{
		"event":      event.Type,
		"id":         event.ID,
		"order_id":   event.OrderID,
		"restaurant": event.RestaurantID,
		"from":       event.From,
		"to":         event.To,
	}).Info("Order event")
	return nil
}

func (LogPublisher) Close() error { return nil }
