package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/utils"
	"golang.org/x/sync/errgroup"
)

// Recorder receives lifecycle measurements. The metrics package implements it.
type Recorder interface {
	OrderCreated()
	StatusChanged(from, to models.OrderStatus)
	EstimateComputed(minutes int)
}

type noopRecorder struct{}

func (noopRecorder) OrderCreated()                             {}
func (noopRecorder) StatusChanged(from, to models.OrderStatus) {}
func (noopRecorder) EstimateComputed(minutes int)              {}

type OrderItemInput struct {
	Dish     string `json:"dish" validate:"required,notblank"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

type CreateOrderInput struct {
	Items        []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	RestaurantID string           `json:"restaurantId" validate:"required,notblank"`
}

// TransitionsView is the answer to "what can this order become next".
type TransitionsView struct {
	OrderID     string               `json:"orderId"`
	Status      models.OrderStatus   `json:"status"`
	Transitions []models.OrderStatus `json:"transitions"`
}

// OrderService is the only writer of orders. Every mutation reloads the order
// and commits through a compare-and-set on its status.
type OrderService struct {
	store     database.Store
	estimator *PreparationEstimator

	Recorder    Recorder
	Concurrency int
	Now         func() time.Time
	NewID       func() string
}

func NewOrderService(store database.Store, estimator *PreparationEstimator) *OrderService {
	return &OrderService{
		store:       store,
		estimator:   estimator,
		Recorder:    noopRecorder{},
		Concurrency: 4,
		Now:         func() time.Time { return time.Now().UTC() },
		NewID:       uuid.NewString,
	}
}

// OrderStatuses lists every valid status value.
func (s *OrderService) OrderStatuses() []models.OrderStatus {
	return models.OrderStatuses()
}

func (s *OrderService) CreateOrder(ctx context.Context, actor models.Actor, input CreateOrderInput) (*models.Order, error) {
	if !actor.Is(models.RoleCustomer) {
		return nil, newError(KindForbidden, "only customers can place orders")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	if _, err := s.store.FindRestaurant(ctx, input.RestaurantID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(KindNotFound, "restaurant %s not found", input.RestaurantID)
		}
		return nil, internalError("failed to load restaurant", err)
	}

	pref, err := s.store.FindPreference(ctx, actor.ID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, internalError("failed to load preferences", err)
	}
	if pref == nil || !pref.HasPaymentMethod() || !pref.HasRequiredConsents() {
		return nil, newError(KindPreconditionFailed, "preferences, payment method or consents missing")
	}

	order := &models.Order{
		ID:           s.NewID(),
		RestaurantID: input.RestaurantID,
		CustomerID:   actor.ID,
		Status:       models.StatusOrdered,
		CreatedAt:    s.Now(),
	}
	for _, item := range input.Items {
		dish, err := s.store.FindDish(ctx, item.Dish)
		if errors.Is(err, database.ErrNotFound) {
			return nil, newError(KindNotFound, "dish %s not found", item.Dish)
		}
		if err != nil {
			return nil, internalError("failed to load dish", err)
		}
		if dish.RestaurantID != input.RestaurantID {
			return nil, newError(KindBadRequest, "dish %s is not served by restaurant %s", item.Dish, input.RestaurantID)
		}

		line := models.OrderLine{
			OrderID:      order.ID,
			DishID:       dish.ID,
			Quantity:     item.Quantity,
			PriceAtOrder: dish.Price,
		}
		order.Items = append(order.Items, line)
	}
	order.TotalAmount = order.LinesTotal()

	change := s.newChange(order, "", models.StatusOrdered, actor)
	if err := s.store.Create(ctx, order, change); err != nil {
		return nil, internalError("failed to create order", err)
	}

	s.Recorder.OrderCreated()
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"restaurant": order.RestaurantID,
		"customer":   order.CustomerID,
		"total":      order.TotalAmount.StringFixed(2),
	}).Info("Order created")
	return order, nil
}

// GetOrdersForCustomer returns the customer's orders, newest first. Orders
// still Ordered carry a preparation estimate.
func (s *OrderService) GetOrdersForCustomer(ctx context.Context, actor models.Actor) ([]models.CustomerOrder, error) {
	if !actor.Is(models.RoleCustomer) {
		return nil, newError(KindForbidden, "only customers can list their orders")
	}

	orders, err := s.store.FindByCustomer(ctx, actor.ID)
	if err != nil {
		return nil, internalError("failed to load orders", err)
	}

	result := make([]models.CustomerOrder, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for i := range orders {
		result[i].Order = orders[i]
		if orders[i].Status != models.StatusOrdered {
			continue
		}
		i := i
		g.Go(func() error {
			minutes, err := s.estimator.Estimate(gctx, &result[i].Order)
			if err != nil {
				return err
			}
			s.Recorder.EstimateComputed(minutes)
			result[i].EstimatedPreparationTime = &minutes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *OrderService) GetOrdersForRestaurant(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	if !actor.Is(models.RoleRestaurateur) {
		return nil, newError(KindForbidden, "only restaurateurs can list restaurant orders")
	}

	restaurant, err := s.store.FindByOwner(ctx, actor.ID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(KindNotFound, "no restaurant owned by %s", actor.ID)
	}
	if err != nil {
		return nil, internalError("failed to load restaurant", err)
	}

	orders, err := s.store.FindByRestaurant(ctx, restaurant.ID)
	if err != nil {
		return nil, internalError("failed to load orders", err)
	}
	return orders, nil
}

// GetOrderByID is open to the customer who placed the order and to the owner
// of its restaurant.
func (s *OrderService) GetOrderByID(ctx context.Context, actor models.Actor, orderID string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) GetAvailableTransitions(ctx context.Context, orderID string, includeCancel bool) (*TransitionsView, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &TransitionsView{
		OrderID:     order.ID,
		Status:      order.Status,
		Transitions: AllowedTransitions(order, includeCancel),
	}, nil
}

// UpdateStatus moves an order of the restaurateur's restaurant to newStatus.
func (s *OrderService) UpdateStatus(ctx context.Context, actor models.Actor, orderID string, newStatus string) (*models.Order, error) {
	if !actor.Is(models.RoleRestaurateur) {
		return nil, newError(KindForbidden, "only restaurateurs can update order status")
	}
	if strings.TrimSpace(newStatus) == "" {
		return nil, newError(KindBadRequest, "newStatus is required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(ctx, actor, order); err != nil {
		return nil, err
	}
	if IsTerminal(order.Status) {
		return nil, newError(KindInvalidState, "order %s is %s, terminal, cannot transition", order.ID, order.Status)
	}
	target, ok := models.ParseOrderStatus(newStatus)
	if !ok {
		return nil, newError(KindInvalidTransition, "cannot move order %s from %s to unknown status %q",
			order.ID, order.Status, newStatus)
	}
	return s.transition(ctx, actor, order, target)
}

// CancelOrder lets a customer withdraw their own order before the kitchen
// has started on it.
func (s *OrderService) CancelOrder(ctx context.Context, actor models.Actor, orderID string) (*models.Order, error) {
	if !actor.Is(models.RoleCustomer) {
		return nil, newError(KindForbidden, "only customers can cancel their orders")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != actor.ID {
		return nil, newError(KindForbidden, "order %s belongs to another customer", order.ID)
	}
	if IsTerminal(order.Status) {
		return nil, newError(KindInvalidState, "order %s is %s, terminal, cannot transition", order.ID, order.Status)
	}
	if order.Status != models.StatusOrdered {
		return nil, newError(KindInvalidTransition, "order %s is %s, customers can only cancel %s orders",
			order.ID, order.Status, models.StatusOrdered)
	}
	return s.transition(ctx, actor, order, models.StatusCancelled)
}

// StatusHistory returns the transition log of an order, oldest first.
func (s *OrderService) StatusHistory(ctx context.Context, actor models.Actor, orderID string) ([]models.OrderStatusChange, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, actor, order); err != nil {
		return nil, err
	}

	history, err := s.store.StatusHistory(ctx, order.ID)
	if err != nil {
		return nil, internalError("failed to load status history", err)
	}
	return history, nil
}

func (s *OrderService) transition(ctx context.Context, actor models.Actor, order *models.Order, target models.OrderStatus) (*models.Order, error) {
	if IsTerminal(order.Status) {
		return nil, newError(KindInvalidState, "order %s is %s, terminal, cannot transition", order.ID, order.Status)
	}
	if !IsValidTransition(order, target) {
		return nil, newError(KindInvalidTransition, "cannot move order %s from %s to %s", order.ID, order.Status, target)
	}

	from := order.Status
	change := s.newChange(order, from, target, actor)
	err := s.store.CompareAndSetStatus(ctx, change)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrNotFound):
		return nil, newError(KindNotFound, "order %s not found", order.ID)
	case errors.Is(err, database.ErrStatusConflict):
		return nil, s.classifyConflict(ctx, order.ID, from, target)
	default:
		return nil, internalError("failed to update order status", err)
	}

	order.Status = target
	s.Recorder.StatusChanged(from, target)
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     from,
		"to":       target,
		"actor":    actor.ID,
	}).Info("Order status changed")
	return order, nil
}

// classifyConflict explains a lost compare-and-set from the status that won.
func (s *OrderService) classifyConflict(ctx context.Context, orderID string, from, target models.OrderStatus) error {
	current, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	utils.InfoLogger.Warnf("Concurrent status change on order %s: expected %s, found %s", orderID, from, current.Status)
	if IsTerminal(current.Status) {
		return newError(KindInvalidState, "order %s is %s, terminal, cannot transition", orderID, current.Status)
	}
	return newError(KindInvalidTransition, "cannot move order %s from %s to %s", orderID, current.Status, target)
}

func (s *OrderService) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, newError(KindBadRequest, "order id is required")
	}
	order, err := s.store.FindByID(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(KindNotFound, "order %s not found", orderID)
	}
	if err != nil {
		return nil, internalError("failed to load order", err)
	}
	return order, nil
}

func (s *OrderService) authorizeRead(ctx context.Context, actor models.Actor, order *models.Order) error {
	switch actor.Role {
	case models.RoleCustomer:
		if order.CustomerID != actor.ID {
			return newError(KindForbidden, "order %s belongs to another customer", order.ID)
		}
		return nil
	case models.RoleRestaurateur:
		return s.authorizeOwner(ctx, actor, order)
	}
	return newError(KindForbidden, "role %q cannot read orders", actor.Role)
}

func (s *OrderService) authorizeOwner(ctx context.Context, actor models.Actor, order *models.Order) error {
	restaurant, err := s.store.FindRestaurant(ctx, order.RestaurantID)
	if errors.Is(err, database.ErrNotFound) {
		return newError(KindForbidden, "order %s belongs to another restaurant", order.ID)
	}
	if err != nil {
		return internalError("failed to load restaurant", err)
	}
	if restaurant.OwnerID != actor.ID {
		return newError(KindForbidden, "order %s belongs to another restaurant", order.ID)
	}
	return nil
}

func (s *OrderService) newChange(order *models.Order, from, to models.OrderStatus, actor models.Actor) *models.OrderStatusChange {
	return &models.OrderStatusChange{
		ID:           s.NewID(),
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		CustomerID:   order.CustomerID,
		FromStatus:   from,
		ToStatus:     to,
		ActorID:      actor.ID,
		ChangedAt:    s.Now(),
	}
}
