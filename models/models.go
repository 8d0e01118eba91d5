package models

// All lists every model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Customer{},
		&Order{},
		&QueueCounter{},
		&PaymentTransaction{},
		&LoyaltyTransaction{},
		&Ingredient{},
		&RecipeIngredient{},
		&ActivityLog{},
	}
}
