package models

import "github.com/shopspring/decimal"

// Dish is a restaurant-specific menu entry. Blank fields fall back to the
// optional base template, see ResolveEffective.
type Dish struct {
	ID           string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RestaurantID string          `gorm:"type:varchar(36);index" json:"restaurant"`
	BaseDishID   string          `gorm:"type:varchar(36)" json:"baseDish,omitempty"`
	Name         string          `gorm:"type:varchar(255)" json:"name"`
	Type         string          `gorm:"type:varchar(100)" json:"type"`
	Category     string          `gorm:"type:varchar(100)" json:"category"`
	Ingredients  []string        `gorm:"serializer:json" json:"ingredients"`
	Allergens    []string        `gorm:"serializer:json" json:"allergens"`
	Tags         []string        `gorm:"serializer:json" json:"tags"`
	Photo        string          `gorm:"type:varchar(255)" json:"photo"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsAvailable  bool            `gorm:"default:true" json:"isAvailable"`
}

// DishTemplate is a shared base dish a restaurant can derive dishes from.
type DishTemplate struct {
	ID          string   `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string   `gorm:"type:varchar(255);not null" json:"name"`
	Type        string   `gorm:"type:varchar(100)" json:"type"`
	Ingredients []string `gorm:"serializer:json" json:"ingredients"`
	Measures    []string `gorm:"serializer:json" json:"measures"`
	Allergens   []string `gorm:"serializer:json" json:"allergens"`
	Tags        []string `gorm:"serializer:json" json:"tags"`
	Photo       string   `gorm:"type:varchar(255)" json:"photo"`
}

// EffectiveDish is a dish with its template fallbacks applied.
type EffectiveDish struct {
	ID          string
	Name        string
	Type        string
	Ingredients []string
	Allergens   []string
	Tags        []string
	Photo       string
	Price       decimal.Decimal
}

// ResolveEffective merges a dish with its template: every blank field of the
// dish takes the template's value. Price is never inherited.
func ResolveEffective(dish *Dish, template *DishTemplate) EffectiveDish {
	eff := EffectiveDish{
		ID:          dish.ID,
		Name:        dish.Name,
		Type:        dish.Type,
		Ingredients: dish.Ingredients,
		Allergens:   dish.Allergens,
		Tags:        dish.Tags,
		Photo:       dish.Photo,
		Price:       dish.Price,
	}
	if template == nil {
		return eff
	}
	if eff.Name == "" {
		eff.Name = template.Name
	}
	if eff.Type == "" {
		eff.Type = template.Type
	}
	if len(eff.Ingredients) == 0 {
		eff.Ingredients = template.Ingredients
	}
	if len(eff.Allergens) == 0 {
		eff.Allergens = template.Allergens
	}
	if len(eff.Tags) == 0 {
		eff.Tags = template.Tags
	}
	if eff.Photo == "" {
		eff.Photo = template.Photo
	}
	return eff
}
