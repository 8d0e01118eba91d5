package models

import "time"

type Ingredient struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Quantity     float64   `gorm:"not null;default:0" json:"quantity"`
	Unit         string    `gorm:"size:16" json:"unit"`
	MinThreshold float64   `gorm:"not null;default:0" json:"min_threshold"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i Ingredient) IsLow() bool {
	return i.Quantity <= i.MinThreshold
}

// RecipeIngredient says how much of an ingredient one unit of a menu item consumes.
type RecipeIngredient struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	MenuItemName     string     `gorm:"size:120;index;not null" json:"menu_item_name"`
	IngredientID     uint       `gorm:"not null" json:"ingredient_id"`
	Ingredient       Ingredient `json:"ingredient"`
	QuantityRequired float64    `gorm:"not null" json:"quantity_required"`
}
