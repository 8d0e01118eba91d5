package services

import (
	"context"
	"log/slog"
	"sort"

	"kd-resto/models"
	"kd-resto/repositories"
)

type FulfillmentDetail struct {
	Ingredient string  `json:"ingredient"`
	Unit       string  `json:"unit"`
	Required   float64 `json:"required"`
	Available  float64 `json:"available"`
	Sufficient bool    `json:"sufficient"`
}

type FulfillmentResult struct {
	CanFulfillOrder bool                `json:"canFulfillOrder"`
	Details         []FulfillmentDetail `json:"details"`
}

type InventoryService interface {
	CheckFulfillment(ctx context.Context, items []models.OrderItem) (*FulfillmentResult, error)
	LowStock(ctx context.Context) ([]models.Ingredient, error)
}

type inventoryService struct {
	store *repositories.Store
}

func NewInventoryService(store *repositories.Store) InventoryService {
	return &inventoryService{store: store}
}

type requirement struct {
	ingredient models.Ingredient
	quantity   float64
}

// requirementsFor sums ingredient usage across line items. Items without a
// recipe consume nothing.
func requirementsFor(ctx context.Context, store *repositories.Store, items []models.OrderItem) ([]requirement, error) {
	names := make([]string, 0, len(items))
	qty := make(map[string]int, len(items))
	for _, item := range items {
		if _, seen := qty[item.Name]; !seen {
			names = append(names, item.Name)
		}
		qty[item.Name] += item.Quantity
	}

	recipes, err := store.Inventory.RecipesFor(ctx, names)
	if err != nil {
		return nil, err
	}

	byIngredient := make(map[uint]*requirement)
	for _, r := range recipes {
		req, ok := byIngredient[r.IngredientID]
		if !ok {
			req = &requirement{ingredient: r.Ingredient}
			byIngredient[r.IngredientID] = req
		}
		req.quantity += r.QuantityRequired * float64(qty[r.MenuItemName])
	}

	out := make([]requirement, 0, len(byIngredient))
	for _, req := range byIngredient {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ingredient.Name < out[j].ingredient.Name })
	return out, nil
}

func (s *inventoryService) CheckFulfillment(ctx context.Context, items []models.OrderItem) (*FulfillmentResult, error) {
	reqs, err := requirementsFor(ctx, s.store, items)
	if err != nil {
		return nil, err
	}

	result := &FulfillmentResult{CanFulfillOrder: true, Details: make([]FulfillmentDetail, 0, len(reqs))}
	for _, req := range reqs {
		ok := req.ingredient.Quantity >= req.quantity
		if !ok {
			result.CanFulfillOrder = false
		}
		result.Details = append(result.Details, FulfillmentDetail{
			Ingredient: req.ingredient.Name,
			Unit:       req.ingredient.Unit,
			Required:   req.quantity,
			Available:  req.ingredient.Quantity,
			Sufficient: ok,
		})
	}
	return result, nil
}

func (s *inventoryService) LowStock(ctx context.Context) ([]models.Ingredient, error) {
	return s.store.Inventory.LowStock(ctx)
}

// deductForOrder consumes ingredients for a paid order inside tx. Stock may go
// negative: the payment already happened, so the shortfall is only logged.
func deductForOrder(ctx context.Context, tx *repositories.Store, order *models.Order, log *slog.Logger) error {
	reqs, err := requirementsFor(ctx, tx, order.Items)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		if req.ingredient.Quantity < req.quantity {
			log.Warn("ingredient stock insufficient for paid order",
				"action", "deduct_inventory",
				"order_id", order.OrderID,
				"ingredient", req.ingredient.Name,
				"available", req.ingredient.Quantity,
				"required", req.quantity)
		}
		if err := tx.Inventory.Deduct(ctx, req.ingredient.ID, req.quantity); err != nil {
			return err
		}
	}
	return nil
}
