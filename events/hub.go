package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vittermi/FastFood/utils"
)

// Hub fans every event out to all registered publishers.
type Hub struct {
	publishers map[string]Publisher
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{publishers: make(map[string]Publisher)}
}

// Register adds a publisher under name, replacing any previous one.
func (h *Hub) Register(name string, p Publisher) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if old, ok := h.publishers[name]; ok {
		_ = old.Close()
	}
	h.publishers[name] = p
}

func (h *Hub) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.publishers)
}

// Publish sends the event to every publisher. Delivery continues past a
// failing publisher; the joined error is returned so the caller can retry.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var errs []error
	for name, p := range h.publishers {
		if err := p.Publish(ctx, event); err != nil {
			utils.ErrorLogger.Errorf("Error publishing %s for order %s to %s: %v", event.Type, event.OrderID, name, err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (h *Hub) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	var errs []error
	for name, p := range h.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		delete(h.publishers, name)
	}
	return errors.Join(errs...)
}

var _ Publisher = (*Hub)(nil)
