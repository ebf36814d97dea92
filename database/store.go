package database

import (
	"context"
	"errors"
	"time"

	"github.com/vittermi/FastFood/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// OrderStore persists orders and their transition log.
type OrderStore interface {
	// Create stores the order, its lines and the initial change record as one unit.
	Create(ctx context.Context, order *models.Order, change *models.OrderStatusChange) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	FindByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error)
	// FindWorkload returns Ordered and In Preparation orders of the restaurant
	// created strictly before the given instant.
	FindWorkload(ctx context.Context, restaurantID string, before time.Time) ([]models.Order, error)
	// CompareAndSetStatus moves the order from change.FromStatus to
	// change.ToStatus only if it is still in change.FromStatus, and appends
	// change to the log.
	CompareAndSetStatus(ctx context.Context, change *models.OrderStatusChange) error
	StatusHistory(ctx context.Context, orderID string) ([]models.OrderStatusChange, error)
	PendingStatusChanges(ctx context.Context, limit int) ([]models.OrderStatusChange, error)
	MarkStatusChangePublished(ctx context.Context, id string, at time.Time) error
}

type DishStore interface {
	FindDish(ctx context.Context, id string) (*models.Dish, error)
	FindTemplate(ctx context.Context, id string) (*models.DishTemplate, error)
}

type RestaurantStore interface {
	FindRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	FindByOwner(ctx context.Context, ownerID string) (*models.Restaurant, error)
}

type PreferenceStore interface {
	FindPreference(ctx context.Context, customerID string) (*models.Preference, error)
	SavePreference(ctx context.Context, pref *models.Preference) error
}

// Store bundles every collection the service needs from one backend.
type Store interface {
	OrderStore
	DishStore
	RestaurantStore
	PreferenceStore
	Close(ctx context.Context) error
}

func workloadStatuses() []models.OrderStatus {
	return []models.OrderStatus{models.StatusOrdered, models.StatusInPreparation}
}
