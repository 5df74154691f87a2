package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func sign(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutEvent(kind EventKind, paymentID uuid.UUID, paymentStatus string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_test_1",
  "object": "event",
  "api_version": "2020-08-27",
  "type": %q,
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "payment_status": %q,
      "payment_intent": "pi_test_1",
      "metadata": {"paymentId": %q, "tenantId": "t-1"}
    }
  }
}`, kind, paymentStatus, paymentID))
}

func newTestStripe() *Stripe {
	return NewStripe(StripeConfig{SecretKey: "sk_test_123", WebhookSecret: testWebhookSecret})
}

func TestParseEventCheckoutCompleted(t *testing.T) {
	paymentID := uuid.New()
	payload := checkoutEvent(EventCheckoutCompleted, paymentID, "paid")

	event, err := newTestStripe().ParseEvent(payload, sign(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "evt_test_1", event.ID)
	assert.Equal(t, EventCheckoutCompleted, event.Kind)
	assert.Equal(t, "cs_test_1", event.SessionID)
	assert.Equal(t, SessionPaymentStatusPaid, event.PaymentStatus)
	assert.Equal(t, paymentID.String(), event.Metadata[MetadataPaymentID])
	assert.Equal(t, "pi_test_1", event.TransactionID())
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	payload := checkoutEvent(EventAsyncPaymentFailed, uuid.New(), "unpaid")
	s := newTestStripe()

	_, err := s.ParseEvent(payload, sign(payload, "whsec_other", time.Now()))
	assert.ErrorIs(t, err, ErrSignature)

	_, err = s.ParseEvent(payload, "")
	assert.ErrorIs(t, err, ErrSignature)

	_, err = s.ParseEvent(payload, sign(payload, testWebhookSecret, time.Now().Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrSignature, "stale timestamps are refused")
}

func TestParseEventOtherKinds(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)

	event, err := newTestStripe().ParseEvent(payload, sign(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, EventKind("customer.created"), event.Kind)
	assert.Empty(t, event.Metadata)
}

func TestTransactionIDFallsBackToSession(t *testing.T) {
	assert.Equal(t, "cs_1", Event{SessionID: "cs_1"}.TransactionID())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(150000), MinorUnits(decimal.RequireFromString("1500")))
	assert.Equal(t, int64(70050), MinorUnits(decimal.RequireFromString("700.50")))
	assert.Equal(t, int64(1), MinorUnits(decimal.RequireFromString("0.005")))
}

func TestWithPaymentID(t *testing.T) {
	assert.Equal(t, "", withPaymentID("", "p1"))
	assert.Equal(t, "https://app.example.com/paid?paymentId=p1", withPaymentID("https://app.example.com/paid", "p1"))
	assert.Equal(t, "https://app.example.com/paid?x=1&paymentId=p1", withPaymentID("https://app.example.com/paid?x=1", "p1"))
}
