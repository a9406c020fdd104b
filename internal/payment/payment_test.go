package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	_testPremiumPrice = "price_premium"
	_testFamilyPrice  = "price_family"
	_testWebhookKey   = "whsec_test"
)

// fakeStripe serves the handful of Stripe endpoints the service calls and
// remembers the form of the last write per path.
type fakeStripe struct {
	mu    sync.Mutex
	fail  bool
	forms map[string]url.Values

	subscriptions []map[string]any
}

func (f *fakeStripe) form(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[path]
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such price"}}`))
		return
	}

	_ = r.ParseForm()
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Method == http.MethodPost {
		f.forms[r.URL.Path] = r.PostForm
	} else {
		f.forms[r.URL.Path] = r.URL.Query()
	}

	var resp any
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/customers":
		resp = map[string]any{"id": "cus_123", "object": "customer"}
	case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
		resp = map[string]any{"id": "cs_test_1", "object": "checkout.session"}
	case r.Method == http.MethodGet && r.URL.Path == "/v1/subscriptions":
		resp = map[string]any{"object": "list", "url": "/v1/subscriptions", "has_more": false, "data": f.subscriptions}
	case r.URL.Path == "/v1/subscriptions/sub_1":
		resp = testSubscription("sub_1", _testPremiumPrice)
	case r.Method == http.MethodGet && r.URL.Path == "/v1/payment_methods":
		resp = map[string]any{"object": "list", "url": "/v1/payment_methods", "has_more": false, "data": []map[string]any{
			{"id": "pm_1", "object": "payment_method", "type": "card", "card": map[string]any{
				"brand": "visa", "last4": "4242", "exp_month": 12, "exp_year": 2030,
			}},
		}}
	default:
		w.WriteHeader(http.StatusNotFound)
		resp = map[string]any{"error": map[string]any{"type": "invalid_request_error", "message": "not found"}}
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func testSubscription(id, priceID string) map[string]any {
	return map[string]any{
		"id":                   id,
		"object":               "subscription",
		"status":               "active",
		"customer":             "cus_123",
		"cancel_at_period_end": false,
		"current_period_end":   1767225600,
		"items": map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"id": "si_1", "object": "subscription_item", "price": map[string]any{"id": priceID, "object": "price"}},
			},
		},
	}
}

func testStripeConfig(backendURL string) config.StripeConfig {
	return config.StripeConfig{
		BackendURL:          backendURL,
		VoiceCreditPriceNOK: 29,
		MaxVoiceCredits:     100,
	}
}

func testKeys(secret string) Keys {
	return Keys{
		SecretKey:      secret,
		WebhookSecret:  _testWebhookKey,
		PremiumPriceID: _testPremiumPrice,
		FamilyPriceID:  _testFamilyPrice,
	}
}

func newTestService(t *testing.T, fake *fakeStripe, store BillingStore) *Service {
	t.Helper()
	fake.forms = map[string]url.Values{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return NewService(testStripeConfig(srv.URL), testKeys("sk_test_123"), store, logger.NewNopLogger())
}

func TestPlans(t *testing.T) {
	plans := Plans(_testPremiumPrice, _testFamilyPrice)
	require.Len(t, plans, 3)

	assert.Equal(t, PlanFree, plans[0].ID)
	assert.EqualValues(t, 0, plans[0].Price)
	assert.Empty(t, plans[0].StripePriceID)

	assert.Equal(t, PlanPremium, plans[1].ID)
	assert.EqualValues(t, 149, plans[1].Price)
	assert.True(t, plans[1].Popular)

	assert.Equal(t, "Familie", plans[2].NameNorwegian)
	assert.EqualValues(t, 249, plans[2].Price)

	assert.Equal(t, PlanFamily, planForPrice(plans, _testFamilyPrice))
	assert.Equal(t, PlanUnknown, planForPrice(plans, "price_other"))
	assert.Equal(t, PlanUnknown, planForPrice(plans, ""))
}

func TestCalculateVAT(t *testing.T) {
	tests := []struct {
		amount   float64
		net, vat float64
	}{
		{149, 119.2, 29.8},
		{249, 199.2, 49.8},
		{100, 80, 20},
		{0.05, 0.04, 0.01},
		{10.01, 8.01, 2},
	}
	for _, tt := range tests {
		got := CalculateVAT(tt.amount)
		assert.InDelta(t, tt.net, got.AmountWithoutVAT, 1e-9, "net of %v", tt.amount)
		assert.InDelta(t, tt.vat, got.VATAmount, 1e-9, "vat of %v", tt.amount)
		assert.Equal(t, tt.amount, got.TotalAmount)
	}
}

func TestFormatNOK(t *testing.T) {
	assert.Equal(t, "kr 0,00", FormatNOK(0))
	assert.Equal(t, "kr 149,00", FormatNOK(149))
	assert.Equal(t, "kr 1 249,00", FormatNOK(1249))
	assert.Equal(t, "kr 1 234 567,89", FormatNOK(1234567.891))
	assert.Equal(t, "-kr 29,50", FormatNOK(-29.5))
}

func TestNotConfigured(t *testing.T) {
	s := NewService(testStripeConfig(""), testKeys(""), nil, logger.NewNopLogger())
	ctx := context.Background()

	assert.False(t, s.Configured())
	_, err := s.CreateCustomer(ctx, model.CustomerInfo{Email: "a@b.no", Name: "Kari"})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, model.PaymentResult{ErrorMessage: MsgCheckoutFailed}, s.CreateCheckoutSession(ctx, "cus", "price", "s", "c"))
	assert.Equal(t, model.SubscriptionStatus{}, s.SubscriptionStatus(ctx, "cus"))
	assert.False(t, s.CancelSubscription(ctx, "sub"))
	assert.Equal(t, []model.PaymentMethod{}, s.PaymentMethods(ctx, "cus"))
}

func TestCreateCustomer(t *testing.T) {
	fake := &fakeStripe{}
	s := newTestService(t, fake, nil)

	id, err := s.CreateCustomer(context.Background(), model.CustomerInfo{
		Email:    "kari@example.no",
		Name:     "Kari Nordmann",
		Metadata: map[string]string{"userId": "u1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)

	form := fake.form("/v1/customers")
	assert.Equal(t, "kari@example.no", form.Get("email"))
	assert.Equal(t, "livets-stemme", form.Get("metadata[source]"))
	assert.Equal(t, "u1", form.Get("metadata[userId]"))
}

func TestCreateCheckoutSession(t *testing.T) {
	fake := &fakeStripe{}
	s := newTestService(t, fake, nil)

	res := s.CreateCheckoutSession(context.Background(), "cus_123", _testPremiumPrice, "https://x/success", "https://x/pricing")
	assert.Equal(t, model.PaymentResult{Success: true, SessionID: "cs_test_1"}, res)

	form := fake.form("/v1/checkout/sessions")
	assert.Equal(t, "subscription", form.Get("mode"))
	assert.Equal(t, "nb", form.Get("locale"))
	assert.Equal(t, "nok", form.Get("currency"))
	assert.Equal(t, _testPremiumPrice, form.Get("line_items[0][price]"))
	assert.Equal(t, "1", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "required", form.Get("billing_address_collection"))
	assert.Equal(t, "true", form.Get("tax_id_collection[enabled]"))
	assert.Equal(t, "livets-stemme", form.Get("subscription_data[metadata][source]"))
	assert.Equal(t, "auto", form.Get("customer_update[address]"))
}

func TestCreateCheckoutSessionFailure(t *testing.T) {
	s := newTestService(t, &fakeStripe{fail: true}, nil)

	res := s.CreateCheckoutSession(context.Background(), "cus_123", "price_missing", "s", "c")
	assert.Equal(t, model.PaymentResult{ErrorMessage: MsgCheckoutFailed}, res)
}

func TestCreateVoiceCloningPayment(t *testing.T) {
	fake := &fakeStripe{}
	s := newTestService(t, fake, nil)
	ctx := context.Background()

	assert.Equal(t, MsgVoicePaymentFailed, s.CreateVoiceCloningPayment(ctx, "cus_123", 0, "s", "c").ErrorMessage)
	assert.Equal(t, MsgVoicePaymentFailed, s.CreateVoiceCloningPayment(ctx, "cus_123", 101, "s", "c").ErrorMessage)

	res := s.CreateVoiceCloningPayment(ctx, "cus_123", 3, "s", "c")
	assert.True(t, res.Success)

	form := fake.form("/v1/checkout/sessions")
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "2900", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "3", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "Stemmekloning Kreditter (3 stk)", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "voice_cloning_credits", form.Get("metadata[type]"))
	assert.Equal(t, "3", form.Get("metadata[credits]"))
}

func TestSubscriptionStatus(t *testing.T) {
	fake := &fakeStripe{}
	s := newTestService(t, fake, nil)
	ctx := context.Background()

	assert.Equal(t, model.SubscriptionStatus{}, s.SubscriptionStatus(ctx, "cus_123"))

	fake.mu.Lock()
	fake.subscriptions = []map[string]any{testSubscription("sub_1", _testFamilyPrice)}
	fake.mu.Unlock()
	status := s.SubscriptionStatus(ctx, "cus_123")
	assert.True(t, status.IsActive)
	require.NotNil(t, status.Plan)
	assert.Equal(t, PlanFamily, *status.Plan)
	require.NotNil(t, status.SubscriptionID)
	assert.Equal(t, "sub_1", *status.SubscriptionID)
	require.NotNil(t, status.CurrentPeriodEnd)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *status.CurrentPeriodEnd)

	query := fake.form("/v1/subscriptions")
	assert.Equal(t, "active", query.Get("status"))
	assert.Equal(t, "1", query.Get("limit"))
}

func TestSubscriptionUpdates(t *testing.T) {
	fake := &fakeStripe{}
	s := newTestService(t, fake, nil)
	ctx := context.Background()

	assert.True(t, s.CancelSubscription(ctx, "sub_1"))
	assert.Equal(t, "true", fake.form("/v1/subscriptions/sub_1").Get("cancel_at_period_end"))

	assert.True(t, s.ReactivateSubscription(ctx, "sub_1"))
	assert.Equal(t, "false", fake.form("/v1/subscriptions/sub_1").Get("cancel_at_period_end"))

	assert.True(t, s.UpdateSubscriptionPlan(ctx, "sub_1", _testFamilyPrice))
	form := fake.form("/v1/subscriptions/sub_1")
	assert.Equal(t, "si_1", form.Get("items[0][id]"))
	assert.Equal(t, _testFamilyPrice, form.Get("items[0][price]"))
	assert.Equal(t, "create_prorations", form.Get("proration_behavior"))

	assert.False(t, s.CancelSubscription(ctx, "sub_missing"))
}

func TestPaymentMethods(t *testing.T) {
	s := newTestService(t, &fakeStripe{}, nil)

	methods := s.PaymentMethods(context.Background(), "cus_123")
	assert.Equal(t, []model.PaymentMethod{
		{ID: "pm_1", Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: 2030},
	}, methods)

	failing := newTestService(t, &fakeStripe{fail: true}, nil)
	assert.Equal(t, []model.PaymentMethod{}, failing.PaymentMethods(context.Background(), "cus_123"))
}

type memoryStore struct {
	seen   map[string]bool
	events []model.BillingEvent
}

func (m *memoryStore) SaveEvent(_ context.Context, event model.BillingEvent) (bool, error) {
	if m.seen[event.EventID] {
		return false, nil
	}
	m.seen[event.EventID] = true
	m.events = append(m.events, event)
	return true, nil
}

func signedEvent(t *testing.T, event map[string]any) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: _testWebhookKey})
	return payload, signed.Header
}

func TestHandleWebhook(t *testing.T) {
	store := &memoryStore{seen: map[string]bool{}}
	s := NewService(testStripeConfig(""), testKeys(""), store, logger.NewNopLogger())
	ctx := context.Background()

	_, err := s.HandleWebhook(ctx, []byte(`{}`), "")
	assert.ErrorIs(t, err, ErrMissingSignature)

	_, err = s.HandleWebhook(ctx, []byte(`{}`), "t=1,v1=bad")
	assert.Error(t, err)

	payload, sig := signedEvent(t, map[string]any{
		"id":   "evt_sub",
		"type": EventSubscriptionUpdated,
		"data": map[string]any{"object": testSubscription("sub_1", _testPremiumPrice)},
	})
	event, err := s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)
	assert.Equal(t, "evt_sub", event.ID)

	require.Len(t, store.events, 1)
	sub := store.events[0].Subscription
	require.NotNil(t, sub)
	assert.Equal(t, "sub_1", sub.SubscriptionID)
	assert.Equal(t, "cus_123", sub.CustomerID)
	assert.Equal(t, PlanPremium, sub.PlanID)
	assert.Equal(t, "active", sub.Status)

	// Stripe redelivers, nothing is applied twice
	_, err = s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)
	assert.Len(t, store.events, 1)
}

func TestHandleWebhookRecords(t *testing.T) {
	store := &memoryStore{seen: map[string]bool{}}
	s := NewService(testStripeConfig(""), testKeys(""), store, logger.NewNopLogger())
	ctx := context.Background()

	payload, sig := signedEvent(t, map[string]any{
		"id":      "evt_checkout",
		"type":    EventCheckoutCompleted,
		"created": 1750000000,
		"data": map[string]any{"object": map[string]any{
			"id": "cs_1", "object": "checkout.session", "customer": "cus_9", "mode": "payment",
			"payment_status": "paid", "amount_total": 8700,
			"metadata": map[string]string{"type": "voice_cloning_credits", "credits": "3"},
		}},
	})
	_, err := s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)

	payload, sig = signedEvent(t, map[string]any{
		"id":   "evt_invoice",
		"type": EventInvoicePaymentFailed,
		"data": map[string]any{"object": map[string]any{
			"id": "in_1", "object": "invoice", "customer": "cus_9", "subscription": "sub_1",
			"amount_due": 14900, "amount_paid": 0, "currency": "nok",
		}},
	})
	_, err = s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)

	payload, sig = signedEvent(t, map[string]any{
		"id":   "evt_other",
		"type": "customer.created",
		"data": map[string]any{"object": map[string]any{"id": "cus_9", "object": "customer"}},
	})
	_, err = s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)

	require.Len(t, store.events, 2)
	assert.Equal(t, &model.BillingCheckout{
		SessionID:   "cs_1",
		CustomerID:  "cus_9",
		Mode:        "payment",
		AmountTotal: 8700,
		Credits:     3,
		CompletedAt: time.Unix(1750000000, 0).UTC(),
	}, store.events[0].Checkout)

	invoice := store.events[1].Invoice
	require.NotNil(t, invoice)
	assert.Equal(t, "sub_1", invoice.SubscriptionID)
	assert.EqualValues(t, 14900, invoice.Amount)
	assert.False(t, invoice.Paid)
}

func TestHandleWebhookWithoutStore(t *testing.T) {
	s := NewService(testStripeConfig(""), testKeys(""), nil, logger.NewNopLogger())

	payload, sig := signedEvent(t, map[string]any{
		"id":   "evt_sub",
		"type": EventSubscriptionDeleted,
		"data": map[string]any{"object": testSubscription("sub_1", _testPremiumPrice)},
	})
	_, err := s.HandleWebhook(context.Background(), payload, sig)
	assert.NoError(t, err)
}

func TestHandleWebhookStampsEventTime(t *testing.T) {
	store := &memoryStore{seen: map[string]bool{}}
	s := NewService(testStripeConfig(""), testKeys(""), store, logger.NewNopLogger())
	ctx := context.Background()

	canceled := testSubscription("sub_1", _testPremiumPrice)
	canceled["status"] = "canceled"
	payload, sig := signedEvent(t, map[string]any{
		"id":      "evt_deleted",
		"type":    EventSubscriptionDeleted,
		"created": 2000,
		"data":    map[string]any{"object": canceled},
	})
	_, err := s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)

	// delivered late, created before the deletion
	payload, sig = signedEvent(t, map[string]any{
		"id":      "evt_updated",
		"type":    EventSubscriptionUpdated,
		"created": 1000,
		"data":    map[string]any{"object": testSubscription("sub_1", _testPremiumPrice)},
	})
	_, err = s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)

	require.Len(t, store.events, 2)
	deleted, updated := store.events[0].Subscription, store.events[1].Subscription
	require.NotNil(t, deleted)
	require.NotNil(t, updated)
	assert.Equal(t, time.Unix(2000, 0).UTC(), deleted.UpdatedAt)
	assert.Equal(t, time.Unix(1000, 0).UTC(), updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.Before(deleted.UpdatedAt))
}

func TestHandleWebhookDelayedCheckout(t *testing.T) {
	store := &memoryStore{seen: map[string]bool{}}
	s := NewService(testStripeConfig(""), testKeys(""), store, logger.NewNopLogger())
	ctx := context.Background()

	session := map[string]any{
		"id": "cs_2", "object": "checkout.session", "customer": "cus_9", "mode": "payment",
		"payment_status": "unpaid", "amount_total": 2900,
		"metadata": map[string]string{"type": "voice_cloning_credits", "credits": "1"},
	}
	payload, sig := signedEvent(t, map[string]any{
		"id":      "evt_completed",
		"type":    EventCheckoutCompleted,
		"created": 1000,
		"data":    map[string]any{"object": session},
	})
	_, err := s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)

	require.Len(t, store.events, 1)
	assert.Nil(t, store.events[0].Checkout)

	session["payment_status"] = "paid"
	payload, sig = signedEvent(t, map[string]any{
		"id":      "evt_async_paid",
		"type":    EventCheckoutAsyncPaid,
		"created": 1500,
		"data":    map[string]any{"object": session},
	})
	_, err = s.HandleWebhook(ctx, payload, sig)
	require.NoError(t, err)

	require.Len(t, store.events, 2)
	checkout := store.events[1].Checkout
	require.NotNil(t, checkout)
	assert.Equal(t, "cs_2", checkout.SessionID)
	assert.EqualValues(t, 1, checkout.Credits)
	assert.Equal(t, time.Unix(1500, 0).UTC(), checkout.CompletedAt)
}
