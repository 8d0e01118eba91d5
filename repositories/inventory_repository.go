package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kd-resto/apperrors"
	"kd-resto/models"
)

type InventoryRepository struct {
	db *gorm.DB
}

// RecipesFor loads the recipe lines of the given menu items with their ingredients.
func (r *InventoryRepository) RecipesFor(ctx context.Context, menuItems []string) ([]models.RecipeIngredient, error) {
	var recipes []models.RecipeIngredient
	if len(menuItems) == 0 {
		return recipes, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Ingredient").
		Where("menu_item_name IN ?", menuItems).
		Find(&recipes).Error
	return recipes, classify(err)
}

func (r *InventoryRepository) Deduct(ctx context.Context, ingredientID uint, quantity float64) error {
	return classify(r.db.WithContext(ctx).Model(&models.Ingredient{}).
		Where("id = ?", ingredientID).
		Update("quantity", gorm.Expr("quantity - ?", quantity)).Error)
}

func (r *InventoryRepository) LowStock(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	err := r.db.WithContext(ctx).
		Where("quantity <= min_threshold").
		Order("name ASC").
		Find(&ingredients).Error
	return ingredients, classify(err)
}

func (r *InventoryRepository) UpsertIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	return classify(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "unit", "min_threshold"}),
	}).Create(ingredient).Error)
}

func (r *InventoryRepository) FindIngredientByName(ctx context.Context, name string) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&ingredient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("ingredient not found")
		}
		return nil, classify(err)
	}
	return &ingredient, nil
}

func (r *InventoryRepository) AddRecipe(ctx context.Context, recipe *models.RecipeIngredient) error {
	var existing models.RecipeIngredient
	err := r.db.WithContext(ctx).
		Where(models.RecipeIngredient{MenuItemName: recipe.MenuItemName, IngredientID: recipe.IngredientID}).
		Attrs(models.RecipeIngredient{QuantityRequired: recipe.QuantityRequired}).
		FirstOrCreate(&existing).Error
	if err != nil {
		return classify(err)
	}
	*recipe = existing
	return nil
}
