package model

import "time"

type BillingInterval string

const (
	Monthly BillingInterval = "month"
	Yearly  BillingInterval = "year"
)

type SubscriptionPlan struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	NameNorwegian        string          `json:"nameNorwegian"`
	Description          string          `json:"description"`
	DescriptionNorwegian string          `json:"descriptionNorwegian"`
	Price                int64           `json:"price"` // whole NOK, VAT included
	Currency             string          `json:"currency"`
	Interval             BillingInterval `json:"interval"`
	Features             []string        `json:"features"`
	FeaturesNorwegian    []string        `json:"featuresNorwegian"`
	StripePriceID        string          `json:"stripePriceId"`
	Popular              bool            `json:"popular,omitempty"`
}

type PaymentResult struct {
	Success        bool   `json:"success"`
	SessionID      string `json:"sessionId,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

type CustomerInfo struct {
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type SubscriptionStatus struct {
	IsActive          bool       `json:"isActive"`
	Plan              *string    `json:"plan"`
	CurrentPeriodEnd  *time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	SubscriptionID    *string    `json:"subscriptionId"`
}

type PaymentMethod struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"expMonth"`
	ExpYear  int64  `json:"expYear"`
}

type VATBreakdown struct {
	AmountWithoutVAT float64 `json:"amountWithoutVAT"`
	VATAmount        float64 `json:"vatAmount"`
	TotalAmount      float64 `json:"totalAmount"`
}
