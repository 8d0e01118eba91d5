package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kd-resto/config"
	"kd-resto/logger"
	"kd-resto/models"
	"kd-resto/providers"
	"kd-resto/realtime"
	"kd-resto/repositories"
	"kd-resto/services"
	"kd-resto/storage"
	"kd-resto/testutil"
	"kd-resto/utils"
)

const (
	testJWTSecret = "router-test-secret"
	testGCash     = "gcash-secret"
)

type qrStub struct{}

func (qrStub) Encode(string) (string, error) { return "data:image/png;base64,stub", nil }

type testApp struct {
	router *gin.Engine
	store  *repositories.Store
	hub    *realtime.Hub
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	store := repositories.NewStore(db)
	log := logger.Discard()
	hub := realtime.NewHub(8)

	receipts, err := storage.NewReceiptStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	patty := &models.Ingredient{Name: "Beef Patty", Quantity: 10, Unit: "pcs", MinThreshold: 3}
	require.NoError(t, store.Inventory.UpsertIngredient(ctx, patty))
	require.NoError(t, store.Inventory.AddRecipe(ctx, &models.RecipeIngredient{MenuItemName: "Burger", IngredientID: patty.ID, QuantityRequired: 1}))

	hash, err := bcrypt.GenerateFromPassword([]byte("pass123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Users.Upsert(ctx, &models.User{Username: "cashier", Password: string(hash), Role: models.RoleStaff}))

	registry := providers.NewRegistry(
		providers.NewGCash(testGCash, "https://pay.test", qrStub{}),
		providers.NewPayMaya("paymaya-secret", "https://pay.test", qrStub{}),
	)
	inventory := services.NewInventoryService(store)
	loyalty := services.NewLoyaltyService(store, config.Loyalty{PointsPerUnit: 10})

	router := NewRouter(Deps{
		Auth:      services.NewAuthService(store, testJWTSecret, time.Hour),
		Orders:    services.NewOrderService(store, inventory, hub, log),
		Payments:  services.NewPaymentService(store, registry, loyalty, hub, log),
		Receipts:  services.NewReceiptService(store, receipts, hub, log),
		Loyalty:   loyalty,
		Inventory: inventory,
		Hub:       hub,
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return &testApp{router: router, store: store, hub: hub}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func (a *testApp) checkout(t *testing.T, quantity int) string {
	t.Helper()
	w, body := a.do(t, http.MethodPost, "/guest/checkout", gin.H{
		"customerName":  "Juan",
		"customerEmail": "juan@example.com",
		"items":         []gin.H{{"name": "Burger", "quantity": quantity, "price": 150}},
		"totalAmount":   150 * quantity,
		"paymentMethod": "cash",
		"tableNumber":   2,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return body["orderId"].(string)
}

func bearer(t *testing.T, userID uint, role string) map[string]string {
	token, err := utils.GenerateToken(testJWTSecret, time.Hour, userID, role)
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestGuestCheckout(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(t, http.MethodPost, "/guest/checkout", gin.H{
		"customerName":  "Juan",
		"items":         []gin.H{{"name": "Burger", "quantity": 2, "price": 150}},
		"totalAmount":   300,
		"paymentMethod": "cash",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Regexp(t, `^ORD-\d+-`, body["orderId"])
	assert.Equal(t, models.OrderStatusPendingVerification, body["status"])
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))
}

func TestGuestCheckoutErrors(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(t, http.MethodPost, "/guest/checkout", gin.H{"customerName": "Juan", "items": []gin.H{}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])

	w, body = app.do(t, http.MethodPost, "/guest/checkout", gin.H{
		"customerName": "Juan",
		"items":        []gin.H{{"name": "Burger", "quantity": 11, "price": 150}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient stock to fulfill order", body["error"])
	assert.Len(t, body["details"], 1)

	w, _ = app.do(t, http.MethodPost, "/guest/checkout", gin.H{
		"customerName":  "Juan",
		"items":         []gin.H{{"name": "Burger", "quantity": 1, "price": 150}},
		"paymentMethod": "barter",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQRAndCashPaymentFlow(t *testing.T) {
	app := newTestApp(t)
	orderID := app.checkout(t, 2)

	w, body := app.do(t, http.MethodPost, "/payment/gcash/qr/"+orderID, gin.H{"tableNumber": 4}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, orderID, body["orderId"])
	assert.Equal(t, 300.0, body["amount"])
	assert.NotEmpty(t, body["gcashPaymentId"])
	assert.NotEmpty(t, body["reference"])

	w, _ = app.do(t, http.MethodPost, "/payment/gcash/qr/ORD-nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = app.do(t, http.MethodPost, "/payment/cash/"+orderID, gin.H{"amount": 300, "staffId": 7}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = app.do(t, http.MethodPost, "/payment/cash/"+orderID, gin.H{"amount": 300, "staffId": 8}, bearer(t, 7, models.RoleStaff))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = app.do(t, http.MethodPost, "/payment/cash/"+orderID, gin.H{"amount": 300, "staffId": 7}, bearer(t, 7, models.RoleStaff))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "cash", body["method"])
	assert.Equal(t, 7.0, body["staffId"])
	assert.NotZero(t, body["transactionId"])

	w, _ = app.do(t, http.MethodPost, "/payment/cash/"+orderID, gin.H{"amount": 300}, bearer(t, 9, models.RoleStaff))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodPost, "/payment/gcash/qr/"+orderID, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = app.do(t, http.MethodGet, "/payment/status/"+orderID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, models.PaymentStatusPaid, data["paymentStatus"])
	assert.Len(t, data["transactions"], 1)
}

func TestProviderCallbackEndpoint(t *testing.T) {
	app := newTestApp(t)
	orderID := app.checkout(t, 1)
	payload := []byte(`{"orderId":"` + orderID + `","amount":150,"transactionId":"gc_77","status":"SUCCESS"}`)

	w, _ := app.do(t, http.MethodPost, "/payment/gcash/callback", payload, map[string]string{"x-gcash-signature": "deadbeef"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	sig := map[string]string{"x-gcash-signature": providers.SignHex(testGCash, payload)}
	w, body := app.do(t, http.MethodPost, "/payment/gcash/callback", payload, sig)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])

	w, _ = app.do(t, http.MethodPost, "/payment/gcash/callback", payload, sig)
	assert.Equal(t, http.StatusOK, w.Code)

	txns, err := app.store.Payments.ListByOrder(context.Background(), mustOrder(t, app, orderID).ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func mustOrder(t *testing.T, app *testApp, orderID string) *models.Order {
	order, err := app.store.Orders.FindByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	return order
}

func multipartReceipt(t *testing.T, orderID string, content []byte) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("orderId", orderID))
	part, err := mw.CreateFormFile("receipt", "receipt.bin")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadReceiptEndpoint(t *testing.T) {
	app := newTestApp(t)
	orderID := app.checkout(t, 1)

	png := append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)
	for _, tc := range []struct {
		content []byte
		status  int
	}{
		{[]byte("just some text"), http.StatusBadRequest},
		{[]byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`), http.StatusBadRequest},
		{png, http.StatusOK},
	} {
		body, contentType := multipartReceipt(t, orderID, tc.content)
		req := httptest.NewRequest(http.MethodPost, "/receipts/upload-receipt", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, w.Body.String())
	}

	order := mustOrder(t, app, orderID)
	require.NotNil(t, order.ReceiptPath)
	assert.Equal(t, models.PaymentStatusPendingVerification, order.PaymentStatus)

	w, _ := app.do(t, http.MethodGet, "/receipts/"+*order.ReceiptPath, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/receipts/"+*order.ReceiptPath, nil)
	for k, v := range bearer(t, 3, models.RoleStaff) {
		req.Header.Set(k, v)
	}
	dl := httptest.NewRecorder()
	app.router.ServeHTTP(dl, req)
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, png, dl.Body.Bytes())
	assert.Equal(t, "nosniff", dl.Header().Get("X-Content-Type-Options"))

	w, _ = app.do(t, http.MethodGet, "/receipts/receipt_ORD-nope_1.png", nil, bearer(t, 3, models.RoleStaff))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body := app.do(t, http.MethodPost, "/payment/verify/"+orderID, gin.H{"approve": true}, bearer(t, 3, models.RoleStaff))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.PaymentStatusPaid, body["paymentStatus"])
}

func TestStaffEndpointsRequireAuth(t *testing.T) {
	app := newTestApp(t)
	orderID := app.checkout(t, 1)

	w, _ := app.do(t, http.MethodGet, "/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := app.do(t, http.MethodPost, "/login", gin.H{"username": "cashier", "password": "pass123"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	headers := map[string]string{"Authorization": "Bearer " + body["token"].(string)}

	w, body = app.do(t, http.MethodGet, "/orders?limit=5", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, body["total"])
	assert.Equal(t, 1.0, body["totalPages"])

	w, body = app.do(t, http.MethodPatch, "/orders/"+orderID+"/status", gin.H{"status": "preparing"}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "order must be paid before it is preparing", body["error"])

	w, _ = app.do(t, http.MethodPatch, "/orders/"+orderID+"/status", gin.H{"status": "eaten"}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = app.do(t, http.MethodPost, "/orders/"+orderID+"/cancel", nil, headers)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = app.do(t, http.MethodPost, "/login", gin.H{"username": "cashier", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoyaltyAndInventoryEndpoints(t *testing.T) {
	app := newTestApp(t)
	orderID := app.checkout(t, 2)
	w, _ := app.do(t, http.MethodPost, "/payment/cash/"+orderID, gin.H{}, bearer(t, 1, models.RoleStaff))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	customerID := *mustOrder(t, app, orderID).CustomerID
	path := "/loyalty/" + strconv.FormatUint(uint64(customerID), 10)

	w, body := app.do(t, http.MethodGet, path+"/balance", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 30.0, body["points"])

	w, body = app.do(t, http.MethodPost, path+"/redeem", gin.H{"points": 10}, bearer(t, 1, models.RoleStaff))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 20.0, body["points"])

	w, _ = app.do(t, http.MethodGet, "/loyalty/abc/balance", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = app.do(t, http.MethodPost, "/inventory/check", gin.H{
		"items": []gin.H{{"name": "Burger", "quantity": 9, "price": 150}},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["canFulfillOrder"])

	w, body = app.do(t, http.MethodGet, "/inventory/low-stock", nil, bearer(t, 1, models.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, body["count"])
}

func TestRealtimeStream(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(t, http.MethodGet, "/realtime/"+realtime.RoomStaff, nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = app.do(t, http.MethodGet, "/realtime/random-room", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	srv := httptest.NewServer(app.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/realtime/order-ORD-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return app.hub.Subscribers("order-ORD-1") == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, app.hub.Publish(ctx, "order-ORD-1", realtime.Event{Name: realtime.EventOrderUpdated, OrderID: "ORD-1", Status: "ready"}))

	scanner := bufio.NewScanner(resp.Body)
	var sawEvent bool
	for scanner.Scan() {
		line := scanner.Text()
		if line == "event:"+realtime.EventOrderUpdated {
			sawEvent = true
		}
		if sawEvent && strings.HasPrefix(line, "data:") {
			assert.Contains(t, line, `"orderId":"ORD-1"`)
			break
		}
	}
	assert.True(t, sawEvent)
}
