package database

import (
	"fmt"

	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/utils"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the service reads or writes.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Restaurant{},
		&models.DishTemplate{},
		&models.Dish{},
		&models.Preference{},
		&models.Order{},
		&models.OrderLine{},
		&models.OrderStatusChange{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
