package services

import "github.com/vittermi/FastFood/models"

// allowedTransitions lists the statuses reachable in one step. Terminal
// statuses map to an empty list.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusOrdered:       {models.StatusInPreparation, models.StatusCancelled},
	models.StatusInPreparation: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:         {models.StatusInDelivery, models.StatusDelivered},
	models.StatusInDelivery:    {models.StatusDelivered},
	models.StatusDelivered:     {},
	models.StatusCancelled:     {},
}

// AllowedTransitions returns the next statuses for the order's current
// status. Without includeCancel, Cancelled is left out so clients can offer
// cancelling as a separate action.
func AllowedTransitions(order *models.Order, includeCancel bool) []models.OrderStatus {
	return allowedFrom(order.Status, includeCancel)
}

func allowedFrom(status models.OrderStatus, includeCancel bool) []models.OrderStatus {
	all := allowedTransitions[status]
	next := make([]models.OrderStatus, 0, len(all))
	for _, s := range all {
		if s == models.StatusCancelled && !includeCancel {
			continue
		}
		next = append(next, s)
	}
	return next
}

// IsValidTransition reports whether target is reachable from the order's
// status in one step, cancellation included.
func IsValidTransition(order *models.Order, target models.OrderStatus) bool {
	return canTransition(order.Status, target)
}

func canTransition(from, to models.OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func IsTerminal(status models.OrderStatus) bool {
	return status == models.StatusDelivered || status == models.StatusCancelled
}
