package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/events"
	"github.com/vittermi/FastFood/utils"
)

// OutboxRelay polls the transition log for unpublished changes and hands
// them to the publisher. Delivery is at least once: a change is marked only
// after a successful publish.
type OutboxRelay struct {
	Store     database.OrderStore
	Publisher events.Publisher
	Interval  time.Duration
	BatchSize int
	Now       func() time.Time

	stopChan chan struct{}
	done     chan struct{}
	started  atomic.Bool
	once     sync.Once
}

func NewOutboxRelay(store database.OrderStore, publisher events.Publisher) *OutboxRelay {
	return &OutboxRelay{
		Store:     store,
		Publisher: publisher,
		Interval:  1 * time.Second,
		BatchSize: 100,
		Now:       func() time.Time { return time.Now().UTC() },
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (r *OutboxRelay) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := r.RunOnce(context.Background()); err != nil {
					utils.ErrorLogger.Errorf("Outbox relay: %v", err)
				}
			case <-r.stopChan:
				return
			}
		}
	}()
}

// Stop ends the polling loop and waits for the current batch to finish.
func (r *OutboxRelay) Stop() {
	r.once.Do(func() {
		close(r.stopChan)
		if r.started.Load() {
			<-r.done
		}
	})
}

// RunOnce publishes one batch and returns how many changes were published.
// The batch stops at the first failure so later changes of the same order
// are not delivered ahead of it.
func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	changes, err := r.Store.PendingStatusChanges(ctx, r.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(changes) > 0 {
		utils.InfoLogger.Debugf("Found %d unpublished status changes", len(changes))
	}

	published := 0
	for _, change := range changes {
		event := events.FromStatusChange(change)
		if err := r.Publisher.Publish(ctx, event); err != nil {
			return published, err
		}
		if err := r.Store.MarkStatusChangePublished(ctx, change.ID, r.Now()); err != nil {
			return published, err
		}
		published++
	}

	if published > 0 {
		utils.InfoLogger.Infof("Successfully published %d status changes", published)
	}
	return published, nil
}
