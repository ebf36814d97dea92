package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vittermi/FastFood/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the relational backend (MySQL, PostgreSQL, SQLite).
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("order_lines.id ASC")
}

func (s *GormStore) Create(ctx context.Context, order *models.Order, change *models.OrderStatusChange) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := tx.Create(change).Error; err != nil {
			return fmt.Errorf("insert status change: %w", err)
		}
		return nil
	})
}

func (s *GormStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).Preload("Items", preloadLines).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *GormStore) FindByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).Preload("Items", preloadLines).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, translate(err)
}

func (s *GormStore) FindByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).Preload("Items", preloadLines).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, translate(err)
}

func (s *GormStore) FindWorkload(ctx context.Context, restaurantID string, before time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.DB.WithContext(ctx).Preload("Items", preloadLines).
		Where("restaurant_id = ? AND status IN ? AND created_at < ?", restaurantID, workloadStatuses(), before).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, translate(err)
}

func (s *GormStore) CompareAndSetStatus(ctx context.Context, change *models.OrderStatusChange) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", change.OrderID, change.FromStatus).
			Update("status", change.ToStatus)
		if res.Error != nil {
			return fmt.Errorf("update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Order{}).Where("id = ?", change.OrderID).Count(&count).Error; err != nil {
				return fmt.Errorf("check order: %w", err)
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrStatusConflict
		}
		if err := tx.Create(change).Error; err != nil {
			return fmt.Errorf("insert status change: %w", err)
		}
		return nil
	})
}

func (s *GormStore) StatusHistory(ctx context.Context, orderID string) ([]models.OrderStatusChange, error) {
	var changes []models.OrderStatusChange
	err := s.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at ASC").
		Find(&changes).Error
	return changes, translate(err)
}

func (s *GormStore) PendingStatusChanges(ctx context.Context, limit int) ([]models.OrderStatusChange, error) {
	var changes []models.OrderStatusChange
	err := s.DB.WithContext(ctx).
		Where("published_at IS NULL").
		Order("changed_at ASC").
		Limit(limit).
		Find(&changes).Error
	return changes, translate(err)
}

func (s *GormStore) MarkStatusChangePublished(ctx context.Context, id string, at time.Time) error {
	res := s.DB.WithContext(ctx).Model(&models.OrderStatusChange{}).
		Where("id = ?", id).
		Update("published_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindDish(ctx context.Context, id string) (*models.Dish, error) {
	var dish models.Dish
	if err := s.DB.WithContext(ctx).First(&dish, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &dish, nil
}

func (s *GormStore) FindTemplate(ctx context.Context, id string) (*models.DishTemplate, error) {
	var tmpl models.DishTemplate
	if err := s.DB.WithContext(ctx).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &tmpl, nil
}

func (s *GormStore) FindRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.DB.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (s *GormStore) FindByOwner(ctx context.Context, ownerID string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id ASC").First(&restaurant).Error; err != nil {
		return nil, translate(err)
	}
	return &restaurant, nil
}

func (s *GormStore) FindPreference(ctx context.Context, customerID string) (*models.Preference, error) {
	var pref models.Preference
	if err := s.DB.WithContext(ctx).First(&pref, "customer_id = ?", customerID).Error; err != nil {
		return nil, translate(err)
	}
	return &pref, nil
}

// SavePreference upserts on customer_id.
func (s *GormStore) SavePreference(ctx context.Context, pref *models.Preference) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		UpdateAll: true,
	}).Create(pref).Error
}

func (s *GormStore) Close(_ context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var _ Store = (*GormStore)(nil)
