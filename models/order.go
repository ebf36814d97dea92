package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusOrdered       OrderStatus = "Ordered"
	StatusInPreparation OrderStatus = "In Preparation"
	StatusReady         OrderStatus = "Ready"
	StatusInDelivery    OrderStatus = "In Delivery"
	StatusDelivered     OrderStatus = "Delivered"
	StatusCancelled     OrderStatus = "Cancelled"
)

// OrderStatuses lists every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		StatusOrdered,
		StatusInPreparation,
		StatusReady,
		StatusInDelivery,
		StatusDelivered,
		StatusCancelled,
	}
}

// ParseOrderStatus accepts only the known wire values.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, status := range OrderStatuses() {
		if string(status) == s {
			return status, true
		}
	}
	return "", false
}

// Order is a customer's purchase from one restaurant. Only Status changes
// after creation.
type Order struct {
	ID           string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RestaurantID string          `gorm:"type:varchar(36);not null;index:idx_orders_restaurant_status" json:"restaurant"`
	CustomerID   string          `gorm:"type:varchar(36);not null;index" json:"customer"`
	Items        []OrderLine     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;default:'Ordered';index:idx_orders_restaurant_status" json:"status"`
	CreatedAt    time.Time       `gorm:"not null;index" json:"createdAt"`
}

// OrderLine is one dish and quantity inside an order. PriceAtOrder is the
// dish price snapshotted when the order was placed.
type OrderLine struct {
	ID           uint            `gorm:"primaryKey" json:"-"`
	OrderID      string          `gorm:"type:varchar(36);not null;index" json:"-"`
	DishID       string          `gorm:"type:varchar(36);not null" json:"dish"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	PriceAtOrder decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"priceAtOrder"`
}

// Subtotal is quantity times the snapshotted price.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.PriceAtOrder.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal sums every line subtotal.
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Items {
		total = total.Add(line.Subtotal())
	}
	return total
}

// CustomerOrder is an order as presented to its customer. The estimate is
// only set while the order is still Ordered.
type CustomerOrder struct {
	Order
	EstimatedPreparationTime *int `json:"estimatedPreparationTime,omitempty"`
}
