package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/router"
	"github.com/vittermi/FastFood/services"
	"github.com/vittermi/FastFood/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitJWT("controllers-test-secret")
}

type envelope struct {
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

	require.NoError(t, db.Create(&[]models.Restaurant{
		{ID: "r1", OwnerID: "owner-1", Name: "Trattoria"},
		{ID: "r2", OwnerID: "owner-2", Name: "Burger Bar"},
	}).Error)
	require.NoError(t, db.Create(&[]models.Dish{
		{ID: "d1", RestaurantID: "r1", Name: "Carbonara", Ingredients: []string{"pasta", "egg", "guanciale", "pecorino"}, Price: decimal.RequireFromString("8.00")},
		{ID: "d2", RestaurantID: "r1", Name: "Tiramisu", Ingredients: []string{"savoiardi", "mascarpone", "coffee", "cocoa", "egg", "sugar"}, Price: decimal.RequireFromString("5.00")},
	}).Error)
	require.NoError(t, db.Create(&models.Preference{
		CustomerID: "cust-1", PaymentType: models.PaymentCash, ConsentTOS: true, ConsentPrivacy: true,
	}).Error)
	return db
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	store := database.NewGormStore(db)
	estimator := services.NewPreparationEstimator(store, services.NewCachedCatalog(store, 16, time.Minute))

	r := router.SetupRouter(router.Deps{
		Orders:      services.NewOrderService(store, estimator),
		Preferences: services.NewPreferenceService(store, &services.CardTokenizer{Cost: bcrypt.MinCost}),
	})
	return r, db
}

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func doRequest(t *testing.T, r http.Handler, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func createOrder(t *testing.T, r http.Handler, tok string) string {
	t.Helper()
	w, env := doRequest(t, r, http.MethodPost, "/api/orders", tok, map[string]interface{}{
		"restaurantId": "r1",
		"items": []map[string]interface{}{
			{"dish": "d1", "quantity": 2},
			{"dish": "d2", "quantity": 1},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &order))
	return order.ID
}
