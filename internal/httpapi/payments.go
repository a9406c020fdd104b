package httpapi

import (
	"cmp"
	"errors"
	"io"
	"net/http"

	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/deanmartian/livets-stemme/internal/payment"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

const (
	MsgPriceIDRequired      = "Pris-ID er påkrevd"
	MsgCustomerRequired     = "Kunde-informasjon er påkrevd"
	MsgCustomerIDRequired   = "Kunde-ID er påkrevd"
	MsgSubscriptionFailed   = "Kunne ikke oppdatere abonnement"
	MsgCreditsFailed        = "Kunne ikke hente kreditter"
	MsgMissingSignature     = "Mangler Stripe signatur"
	MsgWebhookInvalid       = "Webhook behandling feilet"
	MsgWebhookFailed        = "Webhook feilet"
	StripeSignatureHeader   = "Stripe-Signature"
	_checkoutCustomerSource = "livets-stemme-checkout"
)

type checkoutRequest struct {
	PriceID       string `json:"priceId"`
	CustomerID    string `json:"customerId"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
	SuccessURL    string `json:"successUrl"`
	CancelURL     string `json:"cancelUrl"`
}

type checkoutResponse struct {
	SessionID  string `json:"sessionId"`
	CustomerID string `json:"customerId"`
}

func (a *API) successURL(override string) string {
	return cmp.Or(override, a.secrets.BaseURL+"/success")
}

func (a *API) cancelURL(override string) string {
	return cmp.Or(override, a.secrets.BaseURL+"/pricing")
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.log(r).Errorf("%s: checkout creation failed", err)
		writeError(w, http.StatusInternalServerError, payment.MsgCheckoutFailed)
		return
	}
	if req.PriceID == "" {
		writeError(w, http.StatusBadRequest, MsgPriceIDRequired)
		return
	}

	customerID := req.CustomerID
	if customerID == "" && req.CustomerEmail != "" && req.CustomerName != "" {
		id, err := a.services.Payments.CreateCustomer(r.Context(), model.CustomerInfo{
			Email:    req.CustomerEmail,
			Name:     req.CustomerName,
			Metadata: map[string]string{"source": _checkoutCustomerSource},
		})
		if err != nil {
			a.log(r).Errorf("%s: checkout creation failed", err)
			writeError(w, http.StatusInternalServerError, payment.MsgCheckoutFailed)
			return
		}
		customerID = id
	}
	if customerID == "" {
		writeError(w, http.StatusBadRequest, MsgCustomerRequired)
		return
	}

	result := a.services.Payments.CreateCheckoutSession(r.Context(), customerID, req.PriceID,
		a.successURL(req.SuccessURL), a.cancelURL(req.CancelURL))
	if !result.Success {
		writeError(w, http.StatusInternalServerError, result.ErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, checkoutResponse{SessionID: result.SessionID, CustomerID: customerID})
}

type voiceCreditsRequest struct {
	CustomerID string `json:"customerId"`
	Credits    int64  `json:"credits"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
}

func (a *API) handleVoiceCredits(w http.ResponseWriter, r *http.Request) {
	var req voiceCreditsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.log(r).Errorf("%s: voice credit checkout failed", err)
		writeError(w, http.StatusInternalServerError, payment.MsgVoicePaymentFailed)
		return
	}
	if req.CustomerID == "" {
		writeError(w, http.StatusBadRequest, MsgCustomerRequired)
		return
	}

	result := a.services.Payments.CreateVoiceCloningPayment(r.Context(), req.CustomerID, req.Credits,
		a.successURL(req.SuccessURL), a.cancelURL(req.CancelURL))
	if !result.Success {
		writeError(w, http.StatusInternalServerError, result.ErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{SessionID: result.SessionID})
}

type creditsResponse struct {
	CustomerID string `json:"customerId"`
	Credits    int64  `json:"credits"`
}

func (a *API) handleCredits(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, MsgCustomerIDRequired)
		return
	}
	if a.services.Credits == nil {
		a.log(r).Errorf("billing store disabled: can't look up credits")
		writeError(w, http.StatusInternalServerError, MsgCreditsFailed)
		return
	}

	credits, err := a.services.Credits.PurchasedCredits(r.Context(), customerID)
	if err != nil {
		a.log(r).Errorf("%s: can't look up credits", err)
		writeError(w, http.StatusInternalServerError, MsgCreditsFailed)
		return
	}

	writeJSON(w, http.StatusOK, creditsResponse{CustomerID: customerID, Credits: credits})
}

type planView struct {
	model.SubscriptionPlan
	FormattedPrice string             `json:"formattedPrice"`
	VAT            model.VATBreakdown `json:"vat"`
}

type plansResponse struct {
	Plans []planView `json:"plans"`
}

func (a *API) handlePlans(w http.ResponseWriter, r *http.Request) {
	plans := lo.Map(a.services.Payments.Plans(), func(p model.SubscriptionPlan, _ int) planView {
		return planView{
			SubscriptionPlan: p,
			FormattedPrice:   payment.FormatNOK(float64(p.Price)),
			VAT:              payment.CalculateVAT(float64(p.Price)),
		}
	})
	writeJSON(w, http.StatusOK, plansResponse{Plans: plans})
}

func (a *API) handleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, MsgCustomerIDRequired)
		return
	}
	writeJSON(w, http.StatusOK, a.services.Payments.SubscriptionStatus(r.Context(), customerID))
}

func (a *API) writeSubscriptionResult(w http.ResponseWriter, r *http.Request, ok bool) {
	if !ok {
		a.log(r).Errorf("subscription %s: %s failed", mux.Vars(r)["id"], r.URL.Path)
		writeError(w, http.StatusInternalServerError, MsgSubscriptionFailed)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (a *API) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	a.writeSubscriptionResult(w, r, a.services.Payments.CancelSubscription(r.Context(), mux.Vars(r)["id"]))
}

func (a *API) handleReactivateSubscription(w http.ResponseWriter, r *http.Request) {
	a.writeSubscriptionResult(w, r, a.services.Payments.ReactivateSubscription(r.Context(), mux.Vars(r)["id"]))
}

type updatePlanRequest struct {
	PriceID string `json:"priceId"`
}

func (a *API) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req updatePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.log(r).Errorf("%s: plan update failed", err)
		writeError(w, http.StatusInternalServerError, MsgSubscriptionFailed)
		return
	}
	if req.PriceID == "" {
		writeError(w, http.StatusBadRequest, MsgPriceIDRequired)
		return
	}
	a.writeSubscriptionResult(w, r, a.services.Payments.UpdateSubscriptionPlan(r.Context(), mux.Vars(r)["id"], req.PriceID))
}

type paymentMethodsResponse struct {
	PaymentMethods []model.PaymentMethod `json:"paymentMethods"`
}

func (a *API) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		writeError(w, http.StatusBadRequest, MsgCustomerIDRequired)
		return
	}
	writeJSON(w, http.StatusOK, paymentMethodsResponse{
		PaymentMethods: a.services.Payments.PaymentMethods(r.Context(), customerID),
	})
}

type webhookResponse struct {
	Received bool `json:"received"`
}

// handleStripeWebhook reads the raw body, the signature covers its exact
// bytes.
func (a *API) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, _maxJSONBody))
	if err != nil {
		a.log(r).Errorf("%s: stripe webhook failed", err)
		writeError(w, http.StatusInternalServerError, MsgWebhookFailed)
		return
	}

	signature := r.Header.Get(StripeSignatureHeader)
	if signature == "" {
		writeError(w, http.StatusBadRequest, MsgMissingSignature)
		return
	}

	event, err := a.services.Payments.HandleWebhook(r.Context(), payload, signature)
	switch {
	case errors.Is(err, payment.ErrMissingSignature):
		writeError(w, http.StatusBadRequest, MsgMissingSignature)
		return
	case err != nil:
		a.log(r).Errorf("%s: stripe webhook %s rejected", err, event.ID)
		writeError(w, http.StatusBadRequest, MsgWebhookInvalid)
		return
	}

	writeJSON(w, http.StatusOK, webhookResponse{Received: true})
}
