package model

import "time"

// BillingEvent is a verified Stripe webhook event reduced to the record it
// changes. At most one of the record pointers is set.
type BillingEvent struct {
	EventID    string    `db:"event_id"`
	EventType  string    `db:"event_type"`
	ReceivedAt time.Time `db:"received_at"`

	Subscription *BillingSubscription `db:"-"`
	Checkout     *BillingCheckout     `db:"-"`
	Invoice      *BillingInvoice      `db:"-"`
}

type BillingSubscription struct {
	SubscriptionID    string    `db:"subscription_id"`
	CustomerID        string    `db:"customer_id"`
	Status            string    `db:"status"`
	PriceID           string    `db:"price_id"`
	PlanID            string    `db:"plan_id"`
	CurrentPeriodEnd  time.Time `db:"current_period_end"`
	CancelAtPeriodEnd bool      `db:"cancel_at_period_end"`
	UpdatedAt         time.Time `db:"updated_at"`
}

type BillingCheckout struct {
	SessionID   string    `db:"session_id"`
	CustomerID  string    `db:"customer_id"`
	Mode        string    `db:"mode"`
	AmountTotal int64     `db:"amount_total"` // øre
	Credits     int64     `db:"credits"`
	CompletedAt time.Time `db:"completed_at"`
}

type BillingInvoice struct {
	InvoiceID      string    `db:"invoice_id"`
	CustomerID     string    `db:"customer_id"`
	SubscriptionID string    `db:"subscription_id"`
	Amount         int64     `db:"amount"` // øre
	Currency       string    `db:"currency"`
	Paid           bool      `db:"paid"`
	RecordedAt     time.Time `db:"recorded_at"`
}
