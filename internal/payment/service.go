// Package payment sells Livets Stemme subscriptions and voice cloning
// credits through Stripe Checkout and keeps the billing tables in sync with
// Stripe webhooks.
package payment

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Norwegian messages shown to the user when the matching operation fails.
const (
	MsgCustomerFailed     = "Kunne ikke opprette kundekonto"
	MsgCheckoutFailed     = "Kunne ikke starte betalingsprosess"
	MsgVoicePaymentFailed = "Kunne ikke behandle betaling for stemmekloning"
)

const (
	_source          = "livets-stemme"
	_currency        = "nok"
	_locale          = "nb"
	_voiceCreditType = "voice_cloning_credits"
	_voiceCreditText = "Lag dine egne stemmer med AI-teknologi"
)

var (
	ErrNotConfigured  = errors.New("stripe secret key not configured")
	ErrInvalidCredits = errors.New("invalid number of voice credits")
)

type Keys struct {
	SecretKey      string
	WebhookSecret  string
	PremiumPriceID string
	FamilyPriceID  string
}

// KeysFromSecrets picks the Stripe values out of the environment secrets.
func KeysFromSecrets(s config.Secrets) Keys {
	return Keys{
		SecretKey:      s.StripeSecretKey,
		WebhookSecret:  s.StripeWebhookSecret,
		PremiumPriceID: s.StripePremiumPriceID,
		FamilyPriceID:  s.StripeFamilyPriceID,
	}
}

type Service struct {
	sc            *client.API // nil without a secret key
	cfg           config.StripeConfig
	webhookSecret string
	plans         []model.SubscriptionPlan

	store BillingStore // optional

	logger logger.Logger
}

func NewService(cfg config.StripeConfig, keys Keys, store BillingStore, logger logger.Logger) *Service {
	s := &Service{
		cfg:           cfg,
		webhookSecret: keys.WebhookSecret,
		plans:         Plans(keys.PremiumPriceID, keys.FamilyPriceID),
		store:         store,
		logger:        logger,
	}
	if keys.SecretKey == "" {
		logger.Warnf("stripe secret key is empty, payments are disabled")
		return s
	}

	backendCfg := &stripe.BackendConfig{
		LeveledLogger:     logger,
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(cfg.BackendURL)
	}
	s.sc = client.New(keys.SecretKey, stripe.NewBackendsWithConfig(backendCfg))

	return s
}

func (s *Service) Configured() bool {
	return s.sc != nil
}

func (s *Service) Plans() []model.SubscriptionPlan {
	return s.plans
}

func (s *Service) CreateCustomer(ctx context.Context, info model.CustomerInfo) (string, error) {
	if s.sc == nil {
		return "", ErrNotConfigured
	}

	metadata := map[string]string{"source": _source}
	maps.Copy(metadata, info.Metadata)

	params := &stripe.CustomerParams{
		Email:    stripe.String(info.Email),
		Name:     stripe.String(info.Name),
		Metadata: metadata,
	}
	params.Context = ctx

	c, err := s.sc.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: can't create customer", err)
	}
	return c.ID, nil
}

func (s *Service) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) model.PaymentResult {
	if s.sc == nil {
		s.logger.Errorf("%s: can't create checkout session", ErrNotConfigured)
		return model.PaymentResult{ErrorMessage: MsgCheckoutFailed}
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:               stripe.String(successURL),
		CancelURL:                stripe.String(cancelURL),
		Locale:                   stripe.String(_locale),
		Currency:                 stripe.String(_currency),
		BillingAddressCollection: stripe.String("required"),
		TaxIDCollection: &stripe.CheckoutSessionTaxIDCollectionParams{
			Enabled: stripe.Bool(true),
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"source": _source},
		},
		CustomerUpdate: &stripe.CheckoutSessionCustomerUpdateParams{
			Address: stripe.String("auto"),
			Name:    stripe.String("auto"),
		},
	}
	params.Context = ctx

	session, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Errorf("%s: can't create checkout session", err)
		return model.PaymentResult{ErrorMessage: MsgCheckoutFailed}
	}
	return model.PaymentResult{Success: true, SessionID: session.ID}
}

// CreateVoiceCloningPayment starts a one-time checkout for credits at the
// configured per-credit price.
func (s *Service) CreateVoiceCloningPayment(ctx context.Context, customerID string, credits int64, successURL, cancelURL string) model.PaymentResult {
	if credits < 1 || credits > s.cfg.MaxVoiceCredits {
		s.logger.Warnf("%s: %d credits requested", ErrInvalidCredits, credits)
		return model.PaymentResult{ErrorMessage: MsgVoicePaymentFailed}
	}
	if s.sc == nil {
		s.logger.Errorf("%s: can't create voice cloning payment", ErrNotConfigured)
		return model.PaymentResult{ErrorMessage: MsgVoicePaymentFailed}
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(_currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("Stemmekloning Kreditter (%d stk)", credits)),
						Description: stripe.String(_voiceCreditText),
					},
					UnitAmount: stripe.Int64(toOre(s.cfg.VoiceCreditPriceNOK)),
				},
				Quantity: stripe.Int64(credits),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Locale:     stripe.String(_locale),
		Currency:   stripe.String(_currency),
		Metadata: map[string]string{
			"type":    _voiceCreditType,
			"credits": strconv.FormatInt(credits, 10),
		},
	}
	params.Context = ctx

	session, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Errorf("%s: can't create voice cloning payment", err)
		return model.PaymentResult{ErrorMessage: MsgVoicePaymentFailed}
	}
	return model.PaymentResult{Success: true, SessionID: session.ID}
}

// SubscriptionStatus reports the first active subscription of the customer.
// Lookup failures are logged and reported as no subscription.
func (s *Service) SubscriptionStatus(ctx context.Context, customerID string) model.SubscriptionStatus {
	if s.sc == nil {
		return model.SubscriptionStatus{}
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	params.Single = true

	it := s.sc.Subscriptions.List(params)
	if !it.Next() {
		if err := it.Err(); err != nil {
			s.logger.Errorf("%s: can't get subscription status", err)
		}
		return model.SubscriptionStatus{}
	}

	sub := it.Subscription()
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	return model.SubscriptionStatus{
		IsActive:          true,
		Plan:              lo.ToPtr(planForPrice(s.plans, firstPriceID(sub))),
		CurrentPeriodEnd:  &periodEnd,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		SubscriptionID:    lo.ToPtr(sub.ID),
	}
}

func firstPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}

func firstItemID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	return sub.Items.Data[0].ID
}

func (s *Service) setCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) bool {
	if s.sc == nil {
		return false
	}

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	if _, err := s.sc.Subscriptions.Update(subscriptionID, params); err != nil {
		s.logger.Errorf("%s: can't update subscription %s (cancel at period end %t)", err, subscriptionID, cancel)
		return false
	}
	return true
}

// CancelSubscription stops renewal, access lasts until the period ends.
func (s *Service) CancelSubscription(ctx context.Context, subscriptionID string) bool {
	return s.setCancelAtPeriodEnd(ctx, subscriptionID, true)
}

func (s *Service) ReactivateSubscription(ctx context.Context, subscriptionID string) bool {
	return s.setCancelAtPeriodEnd(ctx, subscriptionID, false)
}

// UpdateSubscriptionPlan swaps the price of the first subscription item and
// lets Stripe prorate the difference.
func (s *Service) UpdateSubscriptionPlan(ctx context.Context, subscriptionID, priceID string) bool {
	if s.sc == nil {
		return false
	}

	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := s.sc.Subscriptions.Get(subscriptionID, getParams)
	if err != nil {
		s.logger.Errorf("%s: can't get subscription %s", err, subscriptionID)
		return false
	}
	itemID := firstItemID(sub)
	if itemID == "" {
		s.logger.Errorf("subscription %s has no items", subscriptionID)
		return false
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	params.Context = ctx

	if _, err := s.sc.Subscriptions.Update(subscriptionID, params); err != nil {
		s.logger.Errorf("%s: can't update subscription %s plan", err, subscriptionID)
		return false
	}
	return true
}

// PaymentMethods lists the saved cards of the customer, empty on failure.
func (s *Service) PaymentMethods(ctx context.Context, customerID string) []model.PaymentMethod {
	methods := []model.PaymentMethod{}
	if s.sc == nil {
		return methods
	}

	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	it := s.sc.PaymentMethods.List(params)
	for it.Next() {
		pm := it.PaymentMethod()
		method := model.PaymentMethod{ID: pm.ID}
		if pm.Card != nil {
			method.Brand = string(pm.Card.Brand)
			method.Last4 = pm.Card.Last4
			method.ExpMonth = pm.Card.ExpMonth
			method.ExpYear = pm.Card.ExpYear
		}
		methods = append(methods, method)
	}
	if err := it.Err(); err != nil {
		s.logger.Errorf("%s: can't list payment methods", err)
		return []model.PaymentMethod{}
	}
	return methods
}
