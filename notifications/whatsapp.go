package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kd-resto/models"
)

const fonnteURL = "https://api.fonnte.com/send"

// Sender delivers a plain-text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// WhatsApp sends messages through the fonnte.com gateway.
type WhatsApp struct {
	token  string
	apiURL string
	client *http.Client
}

func NewWhatsApp(token string) *WhatsApp {
	return &WhatsApp{
		token:  token,
		apiURL: fonnteURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithURL points the client at another gateway endpoint.
func (w *WhatsApp) WithURL(apiURL string) *WhatsApp {
	w.apiURL = apiURL
	return w
}

func (w *WhatsApp) Send(ctx context.Context, phone, message string) error {
	if w.token == "" {
		return fmt.Errorf("FONNTE_TOKEN is not configured")
	}

	jsonData, err := json.Marshal(map[string]string{
		"target":  phone,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", w.token)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
	}
	return nil
}

func FormatLowStockMessage(ingredients []models.Ingredient, at time.Time) string {
	var b strings.Builder
	b.WriteString("LOW STOCK ALERT\n\n")
	for i, ing := range ingredients {
		fmt.Fprintf(&b, "%d. %s: %.2f %s (min %.2f)\n", i+1, ing.Name, ing.Quantity, ing.Unit, ing.MinThreshold)
	}
	fmt.Fprintf(&b, "\n_Checked: %s_", at.Format("02/01/2006 15:04:05"))
	return b.String()
}

func FormatPaymentMessage(order *models.Order, method string, amount float64, at time.Time) string {
	var b strings.Builder
	b.WriteString("PAYMENT RECEIVED\n\n")
	fmt.Fprintf(&b, "Order: %s\n", order.OrderID)
	fmt.Fprintf(&b, "Method: %s\n", method)
	fmt.Fprintf(&b, "Total: PHP %.2f\n\n", amount)
	b.WriteString("*Items:*\n")
	for i, item := range order.Items {
		fmt.Fprintf(&b, "%d. %s x%d\n", i+1, item.Name, item.Quantity)
	}
	fmt.Fprintf(&b, "\n_Time: %s_", at.Format("02/01/2006 15:04:05"))
	return b.String()
}
