package models

import "time"

// OrderStatusChange is one entry of the append-only transition log. An empty
// FromStatus marks the creation of the order. PublishedAt stays nil until the
// outbox relay has handed the change to the event publisher.
type OrderStatusChange struct {
	ID           string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID      string      `gorm:"type:varchar(36);not null;index" json:"orderId"`
	RestaurantID string      `gorm:"type:varchar(36);not null" json:"restaurantId"`
	CustomerID   string      `gorm:"type:varchar(36);not null" json:"customerId"`
	FromStatus   OrderStatus `gorm:"type:varchar(20)" json:"from,omitempty"`
	ToStatus     OrderStatus `gorm:"type:varchar(20);not null" json:"to"`
	ActorID      string      `gorm:"type:varchar(36);not null" json:"actorId"`
	ChangedAt    time.Time   `gorm:"not null;index" json:"changedAt"`
	PublishedAt  *time.Time  `gorm:"index" json:"-"`
}
