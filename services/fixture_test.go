package services

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"kd-resto/config"
	"kd-resto/logger"
	"kd-resto/models"
	"kd-resto/providers"
	"kd-resto/realtime"
	"kd-resto/repositories"
	"kd-resto/storage"
	"kd-resto/testutil"
)

const (
	gcashSecret   = "gcash-test-secret"
	paymayaSecret = "paymaya-test-secret"
)

type stubEncoder struct{}

func (stubEncoder) Encode(content string) (string, error) { return "data:image/png;base64,stub", nil }

type fixture struct {
	db          *gorm.DB
	store       *repositories.Store
	rec         *realtime.Recorder
	receiptDir  string
	inventory   InventoryService
	loyalty     LoyaltyService
	orders      OrderService
	payments    PaymentService
	receipts    ReceiptService
	beefPattyID uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	store := repositories.NewStore(db)
	rec := &realtime.Recorder{}
	log := logger.Discard()

	dir := t.TempDir()
	receiptStore, err := storage.NewReceiptStore(dir)
	require.NoError(t, err)

	registry := providers.NewRegistry(
		providers.NewGCash(gcashSecret, "https://pay.test", stubEncoder{}),
		providers.NewPayMaya(paymayaSecret, "https://pay.test", stubEncoder{}),
	)

	inventory := NewInventoryService(store)
	loyalty := NewLoyaltyService(store, config.Loyalty{PointsPerUnit: 10})

	f := &fixture{
		db:         db,
		store:      store,
		rec:        rec,
		receiptDir: dir,
		inventory:  inventory,
		loyalty:    loyalty,
		orders:     NewOrderService(store, inventory, rec, log),
		payments:   NewPaymentService(store, registry, loyalty, rec, log),
		receipts:   NewReceiptService(store, receiptStore, rec, log),
	}
	f.seedBurger(t, 10)
	return f
}

// seedBurger stocks beef patties and maps one patty to each Burger.
func (f *fixture) seedBurger(t *testing.T, patties float64) {
	ctx := context.Background()
	patty := &models.Ingredient{Name: "Beef Patty", Quantity: patties, Unit: "pcs", MinThreshold: 3}
	require.NoError(t, f.store.Inventory.UpsertIngredient(ctx, patty))
	require.NoError(t, f.store.Inventory.AddRecipe(ctx, &models.RecipeIngredient{
		MenuItemName:     "Burger",
		IngredientID:     patty.ID,
		QuantityRequired: 1,
	}))
	f.beefPattyID = patty.ID
}

func (f *fixture) placeBurgerOrder(t *testing.T, email string) *models.Order {
	t.Helper()
	order, err := f.orders.PlaceOrder(context.Background(), PlaceOrderInput{
		Customer:      CustomerIdentity{Name: "Juan", Email: email},
		Items:         []models.OrderItem{{Name: "Burger", Quantity: 2, Price: 150}},
		TotalAmount:   300,
		PaymentMethod: models.PaymentMethodCash,
	})
	require.NoError(t, err)
	f.rec.Events = nil
	return order
}

func (f *fixture) reload(t *testing.T, orderID string) *models.Order {
	t.Helper()
	order, err := f.store.Orders.FindByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	return order
}

func (f *fixture) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) receiptFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.receiptDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func uintPtr(v uint) *uint { return &v }

func intPtr(v int) *int { return &v }
