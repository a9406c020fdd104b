package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/deanmartian/livets-stemme/internal/codec"
	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventCheckoutAsyncPaid    = "checkout.session.async_payment_succeeded"
	EventSubscriptionCreated  = "customer.subscription.created"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentPaid   = "invoice.payment_succeeded"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

var (
	ErrMissingSignature = errors.New("missing stripe signature")
	ErrInvalidEvent     = errors.New("invalid stripe event")
)

// BillingStore persists what webhook events change. SaveEvent applies the
// event at most once and reports false for an event ID it has seen before.
type BillingStore interface {
	SaveEvent(ctx context.Context, event model.BillingEvent) (bool, error)
}

// HandleWebhook verifies the Stripe-Signature header and applies the event.
// Event types we do not track are acknowledged without side effects.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (stripe.Event, error) {
	if signature == "" {
		return stripe.Event{}, ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: can't verify webhook", err)
	}

	record, err := s.billingEvent(event)
	if err != nil {
		return event, err
	}
	if record == nil {
		s.logger.Debugf("ignoring stripe event %s of type %s", event.ID, event.Type)
		return event, nil
	}

	if s.store == nil {
		s.logger.Infof("stripe event %s (%s) received, billing store disabled", event.ID, event.Type)
		return event, nil
	}

	applied, err := s.store.SaveEvent(ctx, *record)
	if err != nil {
		return event, fmt.Errorf("%w: can't save stripe event %s", err, event.ID)
	}
	if !applied {
		s.logger.Infof("stripe event %s already processed", event.ID)
	}
	return event, nil
}

func decodeObject(event stripe.Event, v any) error {
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return fmt.Errorf("%w: %s without data", ErrInvalidEvent, event.ID)
	}
	if err := codec.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("%w: %w: can't decode %s", ErrInvalidEvent, err, event.Type)
	}
	return nil
}

// settled reports whether the money of a completed checkout has arrived.
// Delayed methods complete the session unpaid and settle later with
// checkout.session.async_payment_succeeded.
func settled(session stripe.CheckoutSession) bool {
	return session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		session.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
}

// billingEvent reduces a verified event to the record it changes, or nil
// for untracked types. Rows are stamped with the event creation time since
// Stripe does not deliver in order.
func (s *Service) billingEvent(event stripe.Event) (*model.BillingEvent, error) {
	created := time.Unix(event.Created, 0).UTC()
	record := &model.BillingEvent{
		EventID:    event.ID,
		EventType:  string(event.Type),
		ReceivedAt: time.Now().UTC(),
	}

	switch string(event.Type) {
	case EventCheckoutCompleted, EventCheckoutAsyncPaid:
		var session stripe.CheckoutSession
		if err := decodeObject(event, &session); err != nil {
			return nil, err
		}
		if !settled(session) {
			s.logger.Infof("checkout %s completed for customer %s, awaiting payment (%s)",
				session.ID, customerID(session.Customer), session.PaymentStatus)
			return record, nil
		}
		s.logger.Infof("checkout %s paid by customer %s", session.ID, customerID(session.Customer))

		credits, _ := strconv.ParseInt(session.Metadata["credits"], 10, 64)
		record.Checkout = &model.BillingCheckout{
			SessionID:   session.ID,
			CustomerID:  customerID(session.Customer),
			Mode:        string(session.Mode),
			AmountTotal: session.AmountTotal,
			Credits:     credits,
			CompletedAt: created,
		}

	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := decodeObject(event, &sub); err != nil {
			return nil, err
		}
		s.logger.Infof("subscription %s changed to %s", sub.ID, sub.Status)

		priceID := firstPriceID(&sub)
		record.Subscription = &model.BillingSubscription{
			SubscriptionID:    sub.ID,
			CustomerID:        customerID(sub.Customer),
			Status:            string(sub.Status),
			PriceID:           priceID,
			PlanID:            planForPrice(s.plans, priceID),
			CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			UpdatedAt:         created,
		}

	case EventInvoicePaymentPaid, EventInvoicePaymentFailed:
		var invoice stripe.Invoice
		if err := decodeObject(event, &invoice); err != nil {
			return nil, err
		}
		paid := string(event.Type) == EventInvoicePaymentPaid
		if paid {
			s.logger.Infof("payment succeeded for customer %s", customerID(invoice.Customer))
		} else {
			s.logger.Warnf("payment failed for customer %s", customerID(invoice.Customer))
		}

		subscriptionID := ""
		if invoice.Subscription != nil {
			subscriptionID = invoice.Subscription.ID
		}
		amount := invoice.AmountDue
		if paid {
			amount = invoice.AmountPaid
		}
		record.Invoice = &model.BillingInvoice{
			InvoiceID:      invoice.ID,
			CustomerID:     customerID(invoice.Customer),
			SubscriptionID: subscriptionID,
			Amount:         amount,
			Currency:       string(invoice.Currency),
			Paid:           paid,
			RecordedAt:     created,
		}

	default:
		return nil, nil
	}

	return record, nil
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}
