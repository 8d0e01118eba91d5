package providers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kd-resto/apperrors"
	"kd-resto/models"
)

type failingEncoder struct{}

func (failingEncoder) Encode(string) (string, error) { return "", errors.New("encoder down") }

func TestGenerateQR(t *testing.T) {
	g := NewGCash("secret", "https://pay.example.com/", PNGEncoder{Size: 128})
	order := &models.Order{OrderID: "ORD-1700000000000-ab12", TotalPrice: 300}

	qr, err := g.GenerateQR(context.Background(), order)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(qr.QRCode, "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(qr.PaymentURL, "https://pay.example.com/pay/gcash/ORD-1700000000000-ab12?"))
	assert.True(t, strings.HasPrefix(qr.Reference, "GCASH-ORD-1700000000000-ab12-"))
	assert.True(t, strings.HasPrefix(qr.ProviderPaymentID, "gcash_"))
	assert.Equal(t, 300.0, qr.Amount)
}

func TestGenerateQREncoderFailure(t *testing.T) {
	p := NewPayMaya("secret", "https://pay.example.com", failingEncoder{})

	_, err := p.GenerateQR(context.Background(), &models.Order{OrderID: "ORD-1"})
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}

func TestVerifySignature(t *testing.T) {
	g := NewGCash("gcash-secret", "", PNGEncoder{})
	payload := []byte(`{"orderId":"ORD-1","amount":300,"transactionId":"gc_1","status":"SUCCESS"}`)

	assert.True(t, g.VerifySignature(payload, SignHex("gcash-secret", payload)))
	assert.False(t, g.VerifySignature(payload, SignHex("other-secret", payload)))
	assert.False(t, g.VerifySignature(payload, "not-hex"))
	assert.False(t, g.VerifySignature(payload, ""))

	unsigned := NewGCash("", "", PNGEncoder{})
	assert.False(t, unsigned.VerifySignature(payload, SignHex("", payload)))
}

func TestParseCallbacks(t *testing.T) {
	g := NewGCash("s", "", PNGEncoder{})
	evt, err := g.ParseCallback([]byte(`{"orderId":"ORD-1","amount":300,"transactionId":"gc_1","status":"success"}`))
	require.NoError(t, err)
	assert.Equal(t, CallbackEvent{OrderID: "ORD-1", Amount: 300, TransactionID: "gc_1", Succeeded: true}, *evt)

	p := NewPayMaya("s", "", PNGEncoder{})
	evt, err = p.ParseCallback([]byte(`{"id":"pm_9","requestReferenceNumber":"ORD-2","paymentStatus":"PAYMENT_FAILED","totalAmount":{"value":120.5,"currency":"PHP"}}`))
	require.NoError(t, err)
	assert.Equal(t, "ORD-2", evt.OrderID)
	assert.Equal(t, 120.5, evt.Amount)
	assert.False(t, evt.Succeeded)

	_, err = g.ParseCallback([]byte(`{"amount":1}`))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = p.ParseCallback([]byte(`not json`))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewGCash("a", "", PNGEncoder{}), NewPayMaya("b", "", PNGEncoder{}))

	p, err := r.Get("GCash")
	require.NoError(t, err)
	assert.Equal(t, "gcash", p.Name())

	_, err = r.Get("cash")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
