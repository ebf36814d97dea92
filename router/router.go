package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vittermi/FastFood/controllers"
	"github.com/vittermi/FastFood/metrics"
	"github.com/vittermi/FastFood/middlewares"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/services"
)

type Deps struct {
	Orders      *services.OrderService
	Preferences *services.PreferenceService
	Metrics     *metrics.Metrics
	RateLimiter *middlewares.RateLimiter
	CORSOrigins []string
}

func SetupRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	if deps.Metrics != nil {
		r.Use(middlewares.MetricsMiddleware(deps.Metrics))
	}
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigins))
	r.Use(middlewares.SecurityHeaders())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	orderCtrl := controllers.NewOrderController(deps.Orders)
	prefCtrl := controllers.NewPreferenceController(deps.Preferences)

	api := r.Group("/api")
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.RateLimit())
	}

	// public
	api.GET("/orders/statuses", orderCtrl.GetOrderStatuses)

	auth := api.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		orders := auth.Group("/orders")
		orders.POST("", orderCtrl.CreateOrder)
		orders.GET("/customer", orderCtrl.GetCustomerOrders)
		orders.GET("/restaurant", orderCtrl.GetRestaurantOrders)
		orders.GET("/:id", orderCtrl.GetOrderByID)
		orders.GET("/:id/transitions", orderCtrl.GetAvailableTransitions)
		orders.GET("/:id/history", orderCtrl.GetOrderHistory)
		orders.PUT("/:id/status", orderCtrl.UpdateOrderStatus)
		orders.POST("/:id/cancel", orderCtrl.CancelOrder)

		prefs := auth.Group("/preferences")
		prefs.Use(middlewares.RequireRole(models.RoleCustomer))
		prefs.GET("", prefCtrl.GetPreferences)
		prefs.PUT("", prefCtrl.SavePreferences)
	}

	return r
}
