package services

import (
	"context"
	"errors"
	"math"

	"github.com/vittermi/FastFood/database"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/utils"
)

// PreparationEstimator derives minutes-to-ready for a pending order from the
// restaurant's queued workload.
type PreparationEstimator struct {
	orders  database.OrderStore
	catalog database.DishStore
}

func NewPreparationEstimator(orders database.OrderStore, catalog database.DishStore) *PreparationEstimator {
	return &PreparationEstimator{orders: orders, catalog: catalog}
}

// Estimate sums quantity x complexity over every line of the order and of
// every Ordered or In Preparation order of the same restaurant created before
// it. A dish's complexity is max(1, ingredients/2).
func (e *PreparationEstimator) Estimate(ctx context.Context, order *models.Order) (int, error) {
	if order.Status != models.StatusOrdered {
		return 0, newError(KindInvalidState, "order %s is %s, estimates exist only for %s orders",
			order.ID, order.Status, models.StatusOrdered)
	}

	earlier, err := e.orders.FindWorkload(ctx, order.RestaurantID, order.CreatedAt)
	if err != nil {
		return 0, internalError("failed to load restaurant workload", err)
	}

	complexity := make(map[string]float64)
	total := 0.0

	workload := append([]models.Order{*order}, earlier...)
	for i, o := range workload {
		if i > 0 && o.ID == order.ID {
			continue
		}
		for _, line := range o.Items {
			c, ok, err := e.dishComplexity(ctx, line.DishID, complexity)
			if err != nil {
				return 0, err
			}
			if !ok {
				continue
			}
			total += float64(line.Quantity) * c
		}
	}

	return int(math.Round(total)), nil
}

// dishComplexity resolves the effective ingredient list of a dish. A dish that
// no longer exists reports ok=false and is skipped by the caller.
func (e *PreparationEstimator) dishComplexity(ctx context.Context, dishID string, memo map[string]float64) (float64, bool, error) {
	if c, ok := memo[dishID]; ok {
		return c, c > 0, nil
	}

	dish, err := e.catalog.FindDish(ctx, dishID)
	if errors.Is(err, database.ErrNotFound) {
		utils.InfoLogger.Debugf("Dish %s no longer exists, skipped in estimate", dishID)
		memo[dishID] = 0
		return 0, false, nil
	}
	if err != nil {
		return 0, false, internalError("failed to load dish "+dishID, err)
	}

	var template *models.DishTemplate
	if dish.BaseDishID != "" {
		template, err = e.catalog.FindTemplate(ctx, dish.BaseDishID)
		if errors.Is(err, database.ErrNotFound) {
			template = nil
		} else if err != nil {
			return 0, false, internalError("failed to load dish template "+dish.BaseDishID, err)
		}
	}

	eff := models.ResolveEffective(dish, template)
	c := math.Max(1, float64(len(eff.Ingredients))/2)
	memo[dishID] = c
	return c, true, nil
}
