package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vittermi/FastFood/config"
	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/events"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	utils.InitLogger("warn")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, db.Create(&models.Restaurant{ID: "r1", OwnerID: "owner-1", Name: "Trattoria"}).Error)
	require.NoError(t, db.Create(&[]models.Dish{
		{ID: "d1", RestaurantID: "r1", Name: "Carbonara", Ingredients: []string{"pasta", "egg", "guanciale", "pecorino"}, Price: decimal.RequireFromString("8.00")},
		{ID: "d2", RestaurantID: "r1", Name: "Tiramisu", Ingredients: []string{"savoiardi", "mascarpone", "coffee", "cocoa", "egg", "sugar"}, Price: decimal.RequireFromString("5.00")},
	}).Error)
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	env := map[string]string{
		"JWT_SECRET":       "integration-test-secret",
		"RATE_LIMIT_RPS":   "1000",
		"RATE_LIMIT_BURST": "1000",
	}
	cfg, err := config.FromEnv(func(key string) string { return env[key] })
	require.NoError(t, err)
	utils.InitJWT(cfg.JWTSecret)
	return cfg
}

func call(t *testing.T, r http.Handler, method, path, userID, role string, body interface{}) (int, apiResponse) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		tok, err := utils.GenerateToken(userID, role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

// TestEndToEndIntegration walks one order through its whole lifecycle:
// preferences, order placement, estimate, restaurant updates to Delivered,
// event publication and the exported counters.
func TestEndToEndIntegration(t *testing.T) {
	cfg := testConfig(t)
	db := setupTestDB(t)
	publisher := &capturePublisher{}
	r, relay := buildApp(cfg, database.NewGormStore(db), publisher)

	const customer, owner = "cust-1", "owner-1"

	// 1. ordering without preferences is refused
	code, resp := call(t, r, http.MethodPost, "/api/orders", customer, "customer", map[string]interface{}{
		"restaurantId": "r1",
		"items":        []map[string]interface{}{{"dish": "d1", "quantity": 1}},
	})
	require.Equal(t, http.StatusPreconditionFailed, code)
	assert.Equal(t, "precondition_failed", resp.Kind)

	// 2. save preferences
	code, _ = call(t, r, http.MethodPut, "/api/preferences", customer, "customer", map[string]interface{}{
		"paymentType": "cash",
		"consents":    map[string]bool{"tos": true, "privacy": true},
	})
	require.Equal(t, http.StatusOK, code)

	// 3. place the order
	code, resp = call(t, r, http.MethodPost, "/api/orders", customer, "customer", map[string]interface{}{
		"restaurantId": "r1",
		"items": []map[string]interface{}{
			{"dish": "d1", "quantity": 2},
			{"dish": "d2", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, code, resp.Message)

	var order models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	require.NotEmpty(t, order.ID)
	assert.Equal(t, models.StatusOrdered, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("21.00")), order.TotalAmount.String())

	// 4. the customer sees an estimate of 2*2 + 1*3 minutes
	code, resp = call(t, r, http.MethodGet, "/api/orders/customer", customer, "customer", nil)
	require.Equal(t, http.StatusOK, code)
	var mine []models.CustomerOrder
	require.NoError(t, json.Unmarshal(resp.Data, &mine))
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].EstimatedPreparationTime)
	assert.Equal(t, 7, *mine[0].EstimatedPreparationTime)

	statusPath := "/api/orders/" + order.ID + "/status"

	// 5. the restaurant moves the order forward
	code, resp = call(t, r, http.MethodPut, statusPath, owner, "restaurateur", map[string]string{"newStatus": "In Preparation"})
	require.Equal(t, http.StatusOK, code, resp.Message)

	code, resp = call(t, r, http.MethodPut, statusPath, owner, "restaurateur", map[string]string{"newStatus": "Ordered"})
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_transition", resp.Kind)

	code, resp = call(t, r, http.MethodGet, "/api/orders/"+order.ID+"/transitions", owner, "restaurateur", nil)
	require.Equal(t, http.StatusOK, code)
	var view struct {
		Transitions []models.OrderStatus `json:"transitions"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, []models.OrderStatus{models.StatusReady}, view.Transitions)

	for _, next := range []string{"Ready", "Delivered"} {
		code, resp = call(t, r, http.MethodPut, statusPath, owner, "restaurateur", map[string]string{"newStatus": next})
		require.Equal(t, http.StatusOK, code, resp.Message)
	}

	// 6. a delivered order is final
	code, resp = call(t, r, http.MethodPut, statusPath, owner, "restaurateur", map[string]string{"newStatus": "Cancelled"})
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_state", resp.Kind)

	code, resp = call(t, r, http.MethodGet, "/api/orders/"+order.ID, customer, "customer", nil)
	require.Equal(t, http.StatusOK, code)
	var final models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &final))
	assert.Equal(t, models.StatusDelivered, final.Status)

	// 7. every recorded change is published once
	published, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, published)
	assert.ElementsMatch(t, []string{
		events.TypeOrderCreated,
		events.TypeOrderStatusChanged,
		events.TypeOrderStatusChanged,
		events.TypeOrderStatusChanged,
	}, publisher.types())

	published, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, published)

	// 8. counters are exported
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "fastfood_orders_created_total 1")
	assert.Contains(t, body, `fastfood_order_status_transitions_total{from="Ready",to="Delivered"} 1`)
	assert.Contains(t, body, "fastfood_http_requests_total")
}
