package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	customer    = models.Actor{ID: "cust-1", Role: models.RoleCustomer}
	otherCust   = models.Actor{ID: "cust-2", Role: models.RoleCustomer}
	owner       = models.Actor{ID: "owner-1", Role: models.RoleRestaurateur}
	otherOwner  = models.Actor{ID: "owner-2", Role: models.RoleRestaurateur}
	nobodyOwner = models.Actor{ID: "owner-3", Role: models.RoleRestaurateur}
)

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
	seedCatalog(t, db)
	return db
}

// seedCatalog creates two restaurants and a small menu:
// d1 8.00 with four ingredients, d2 5.00 inheriting six from template t1,
// d3 served by the other restaurant, d4 with a single ingredient.
func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&[]models.Restaurant{
		{ID: "r1", OwnerID: owner.ID, Name: "Trattoria"},
		{ID: "r2", OwnerID: otherOwner.ID, Name: "Burger Bar"},
	}).Error)
	require.NoError(t, db.Create(&models.DishTemplate{
		ID:          "t1",
		Name:        "Margherita",
		Ingredients: []string{"dough", "tomato", "mozzarella", "basil", "oil", "salt"},
	}).Error)
	require.NoError(t, db.Create(&[]models.Dish{
		{ID: "d1", RestaurantID: "r1", Name: "Carbonara", Ingredients: []string{"pasta", "egg", "guanciale", "pecorino"}, Price: decimal.RequireFromString("8.00"), IsAvailable: true},
		{ID: "d2", RestaurantID: "r1", BaseDishID: "t1", Price: decimal.RequireFromString("5.00"), IsAvailable: true},
		{ID: "d3", RestaurantID: "r2", Name: "Cheeseburger", Ingredients: []string{"bun", "beef"}, Price: decimal.RequireFromString("9.50"), IsAvailable: true},
		{ID: "d4", RestaurantID: "r1", Name: "Water", Ingredients: []string{"water"}, Price: decimal.RequireFromString("1.00"), IsAvailable: true},
	}).Error)
}

func seedPreference(t *testing.T, db *gorm.DB, customerID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Preference{
		CustomerID:     customerID,
		Allergens:      []string{},
		PaymentType:    models.PaymentCash,
		ConsentTOS:     true,
		ConsentPrivacy: true,
	}).Error)
}

// testClock hands out strictly increasing instants one minute apart.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type testEnv struct {
	db      *gorm.DB
	store   *database.GormStore
	service *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	seedPreference(t, db, customer.ID)
	seedPreference(t, db, otherCust.ID)

	store := database.NewGormStore(db)
	estimator := NewPreparationEstimator(store, NewCachedCatalog(store, 16, time.Minute))
	service := NewOrderService(store, estimator)
	service.Now = newTestClock().Now
	return &testEnv{db: db, store: store, service: service}
}

func (e *testEnv) placeOrder(t *testing.T, actor models.Actor, items ...OrderItemInput) *models.Order {
	t.Helper()
	order, err := e.service.CreateOrder(context.Background(), actor, CreateOrderInput{RestaurantID: "r1", Items: items})
	require.NoError(t, err)
	return order
}

func item(dish string, quantity int) OrderItemInput {
	return OrderItemInput{Dish: dish, Quantity: quantity}
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
