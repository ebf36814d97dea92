package services

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/models"
)

// CachedCatalog is a read-through cache over a DishStore. Entries expire
// after the TTL; lookups that fail are never cached.
type CachedCatalog struct {
	store     database.DishStore
	dishes    *expirable.LRU[string, *models.Dish]
	templates *expirable.LRU[string, *models.DishTemplate]
}

func NewCachedCatalog(store database.DishStore, size int, ttl time.Duration) *CachedCatalog {
	if size <= 0 {
		size = 1024
	}
	return &CachedCatalog{
		store:     store,
		dishes:    expirable.NewLRU[string, *models.Dish](size, nil, ttl),
		templates: expirable.NewLRU[string, *models.DishTemplate](size, nil, ttl),
	}
}

func (c *CachedCatalog) FindDish(ctx context.Context, id string) (*models.Dish, error) {
	if dish, ok := c.dishes.Get(id); ok {
		return dish, nil
	}
	dish, err := c.store.FindDish(ctx, id)
	if err != nil {
		return nil, err
	}
	c.dishes.Add(id, dish)
	return dish, nil
}

func (c *CachedCatalog) FindTemplate(ctx context.Context, id string) (*models.DishTemplate, error) {
	if tpl, ok := c.templates.Get(id); ok {
		return tpl, nil
	}
	tpl, err := c.store.FindTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	c.templates.Add(id, tpl)
	return tpl, nil
}

var _ database.DishStore = (*CachedCatalog)(nil)
