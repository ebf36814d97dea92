package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vittermi/FastFood/services"
	"github.com/vittermi/FastFood/utils"
)

type OrderController struct {
	Service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{Service: service}
}

// GetOrderStatuses -> every valid status value, public
func (oc *OrderController) GetOrderStatuses(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Order statuses", oc.Service.OrderStatuses())
}

// CreateOrder -> POST /api/orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var body services.CreateOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondErrorKind(c, http.StatusBadRequest, string(services.KindBadRequest), err)
		return
	}

	order, err := oc.Service.CreateOrder(c.Request.Context(), actor, body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetCustomerOrders -> orders of the caller, with estimates
func (oc *OrderController) GetCustomerOrders(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	orders, err := oc.Service.GetOrdersForCustomer(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer orders", orders)
}

// GetRestaurantOrders -> orders of the caller's restaurant
func (oc *OrderController) GetRestaurantOrders(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	orders, err := oc.Service.GetOrdersForRestaurant(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant orders", orders)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	order, err := oc.Service.GetOrderByID(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetAvailableTransitions -> GET /api/orders/:id/transitions?includeCancel=true
func (oc *OrderController) GetAvailableTransitions(c *gin.Context) {
	// only the literal "true" asks for the cancel option
	includeCancel := c.Query("includeCancel") == "true"

	view, err := oc.Service.GetAvailableTransitions(c.Request.Context(), c.Param("id"), includeCancel)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available transitions", view)
}

// UpdateOrderStatus -> PUT /api/orders/:id/status {"newStatus": "..."}
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var body struct {
		NewStatus string `json:"newStatus" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondErrorKind(c, http.StatusBadRequest, string(services.KindBadRequest), err)
		return
	}

	order, err := oc.Service.UpdateStatus(c.Request.Context(), actor, c.Param("id"), body.NewStatus)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// CancelOrder -> customer withdraws an order that is still Ordered
func (oc *OrderController) CancelOrder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	order, err := oc.Service.CancelOrder(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}

func (oc *OrderController) GetOrderHistory(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	history, err := oc.Service.StatusHistory(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status history", history)
}
