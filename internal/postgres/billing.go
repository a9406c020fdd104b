package postgres

import (
	"context"
	"fmt"

	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	_insertEvent = `INSERT INTO billing_events (event_id, event_type, received_at)
						VALUES (:event_id, :event_type, :received_at)
						ON CONFLICT (event_id) DO NOTHING`
	_upsertSubscription = `INSERT INTO billing_subscriptions (
								subscription_id,
								customer_id,
								status,
								price_id,
								plan_id,
								current_period_end,
								cancel_at_period_end,
								updated_at
							) VALUES (
								:subscription_id,
								:customer_id,
								:status,
								:price_id,
								:plan_id,
								:current_period_end,
								:cancel_at_period_end,
								:updated_at
							)
							ON CONFLICT (subscription_id)
							DO UPDATE SET
								customer_id = EXCLUDED.customer_id,
								status = EXCLUDED.status,
								price_id = EXCLUDED.price_id,
								plan_id = EXCLUDED.plan_id,
								current_period_end = EXCLUDED.current_period_end,
								cancel_at_period_end = EXCLUDED.cancel_at_period_end,
								updated_at = EXCLUDED.updated_at
							WHERE billing_subscriptions.updated_at <= EXCLUDED.updated_at`
	_insertCheckout = `INSERT INTO billing_checkouts (
								session_id, customer_id, mode, amount_total, credits, completed_at
							) VALUES (
								:session_id, :customer_id, :mode, :amount_total, :credits, :completed_at
							)
							ON CONFLICT (session_id) DO NOTHING`
	_upsertInvoice = `INSERT INTO billing_invoices (
								invoice_id, customer_id, subscription_id, amount, currency, paid, recorded_at
							) VALUES (
								:invoice_id, :customer_id, :subscription_id, :amount, :currency, :paid, :recorded_at
							)
							ON CONFLICT (invoice_id)
							DO UPDATE SET
								amount = EXCLUDED.amount,
								paid = EXCLUDED.paid,
								recorded_at = EXCLUDED.recorded_at
							WHERE billing_invoices.recorded_at <= EXCLUDED.recorded_at`
)

const (
	_queryCreditsByCustomer = `SELECT COALESCE(SUM(credits), 0) FROM billing_checkouts WHERE customer_id = $1`
)

// BillingRepository keeps the Stripe billing state in the Supabase database.
type BillingRepository struct {
	db *sqlx.DB
}

func NewBillingRepository(db *sqlx.DB) *BillingRepository {
	return &BillingRepository{db: db}
}

// SaveEvent records the event ID and the attached record in one
// transaction. It returns false without touching anything when the event ID
// is already known. Subscription and invoice rows only move forward: a record
// stamped older than the stored one leaves the row as it is.
func (r *BillingRepository) SaveEvent(ctx context.Context, event model.BillingEvent) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: can't begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.NamedExecContext(ctx, _insertEvent, event)
	if err != nil {
		return false, fmt.Errorf("%w: can't insert billing event", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: can't get affected rows", err)
	}
	if inserted == 0 {
		return false, nil
	}

	switch {
	case event.Subscription != nil:
		if _, err := tx.NamedExecContext(ctx, _upsertSubscription, event.Subscription); err != nil {
			return false, fmt.Errorf("%w: can't upsert subscription", err)
		}
	case event.Checkout != nil:
		if _, err := tx.NamedExecContext(ctx, _insertCheckout, event.Checkout); err != nil {
			return false, fmt.Errorf("%w: can't insert checkout", err)
		}
	case event.Invoice != nil:
		if _, err := tx.NamedExecContext(ctx, _upsertInvoice, event.Invoice); err != nil {
			return false, fmt.Errorf("%w: can't upsert invoice", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: can't commit billing event", err)
	}
	return true, nil
}

// PurchasedCredits sums the voice cloning credits bought by the customer.
func (r *BillingRepository) PurchasedCredits(ctx context.Context, customerID string) (int64, error) {
	var credits int64
	if err := r.db.GetContext(ctx, &credits, _queryCreditsByCustomer, customerID); err != nil {
		return 0, fmt.Errorf("%w: can't query credits", err)
	}
	return credits, nil
}
