package seeders

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"kd-resto/models"
	"kd-resto/repositories"
)

type recipeLine struct {
	ingredient string
	quantity   float64
}

var ingredients = []models.Ingredient{
	{Name: "Burger Bun", Quantity: 120, Unit: "pcs", MinThreshold: 20},
	{Name: "Beef Patty", Quantity: 100, Unit: "pcs", MinThreshold: 20},
	{Name: "Cheese Slice", Quantity: 150, Unit: "pcs", MinThreshold: 30},
	{Name: "Chicken Thigh", Quantity: 80, Unit: "pcs", MinThreshold: 15},
	{Name: "Rice", Quantity: 25, Unit: "kg", MinThreshold: 5},
	{Name: "Potato", Quantity: 30, Unit: "kg", MinThreshold: 5},
	{Name: "Calamansi", Quantity: 200, Unit: "pcs", MinThreshold: 40},
}

var recipes = map[string][]recipeLine{
	"Burger":          {{"Burger Bun", 1}, {"Beef Patty", 1}},
	"Cheeseburger":    {{"Burger Bun", 1}, {"Beef Patty", 1}, {"Cheese Slice", 1}},
	"Chicken Adobo":   {{"Chicken Thigh", 2}, {"Rice", 0.2}},
	"Fries":           {{"Potato", 0.25}},
	"Calamansi Juice": {{"Calamansi", 4}},
}

// Seed loads staff accounts, ingredients and recipes. It is safe to run on
// every start: existing rows are kept.
func Seed(ctx context.Context, store *repositories.Store, log *slog.Logger) error {
	users := []struct {
		username, password, role string
	}{
		{"admin", "admin123", models.RoleAdmin},
		{"staff1", "staff123", models.RoleStaff},
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.username, err)
		}
		if err := store.Users.Upsert(ctx, &models.User{Username: u.username, Password: string(hash), Role: u.role}); err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
	}

	for _, ing := range ingredients {
		if _, err := store.Inventory.FindIngredientByName(ctx, ing.Name); err == nil {
			continue
		}
		ing := ing
		if err := store.Inventory.UpsertIngredient(ctx, &ing); err != nil {
			return fmt.Errorf("seed ingredient %s: %w", ing.Name, err)
		}
	}

	for item, lines := range recipes {
		for _, line := range lines {
			ing, err := store.Inventory.FindIngredientByName(ctx, line.ingredient)
			if err != nil {
				return fmt.Errorf("recipe %s: %w", item, err)
			}
			if err := store.Inventory.AddRecipe(ctx, &models.RecipeIngredient{
				MenuItemName:     item,
				IngredientID:     ing.ID,
				QuantityRequired: line.quantity,
			}); err != nil {
				return fmt.Errorf("seed recipe %s: %w", item, err)
			}
		}
	}

	log.Info("seed data loaded", "users", len(users), "ingredients", len(ingredients), "recipes", len(recipes))
	return nil
}
