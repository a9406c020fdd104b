// Package httpapi exposes the story, voice and payment services over HTTP.
// Every failure is answered with a Norwegian message in {"error": "..."}.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/deanmartian/livets-stemme/internal/voice"
	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v76"
)

type StoryAssistant interface {
	GeneratePrompts(ctx context.Context, category string, c model.ConversationContext) []model.StoryPrompt
	AnalyzeStory(ctx context.Context, title, content, transcript string) model.StoryAnalysis
	ConductInterview(ctx context.Context, topic string, responses []string, c model.ConversationContext) model.InterviewTurn
	SuggestTitles(ctx context.Context, content string) []string
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type VoiceService interface {
	CreateClone(ctx context.Context, samples [][]byte, name, description string) (model.VoiceCloneResult, error)
	GenerateSpeech(ctx context.Context, text, voiceID string, opts voice.SpeechOptions) (model.SpeechResult, error)
	VoiceStatus(ctx context.Context, voiceID string) (model.VoiceCloneResult, error)
	ListVoices(ctx context.Context) []model.VoiceCloneResult
	DeleteVoice(ctx context.Context, voiceID string) error
}

type PaymentService interface {
	Plans() []model.SubscriptionPlan
	CreateCustomer(ctx context.Context, info model.CustomerInfo) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) model.PaymentResult
	CreateVoiceCloningPayment(ctx context.Context, customerID string, credits int64, successURL, cancelURL string) model.PaymentResult
	SubscriptionStatus(ctx context.Context, customerID string) model.SubscriptionStatus
	CancelSubscription(ctx context.Context, subscriptionID string) bool
	ReactivateSubscription(ctx context.Context, subscriptionID string) bool
	UpdateSubscriptionPlan(ctx context.Context, subscriptionID, priceID string) bool
	PaymentMethods(ctx context.Context, customerID string) []model.PaymentMethod
	HandleWebhook(ctx context.Context, payload []byte, signature string) (stripe.Event, error)
}

// CreditLedger answers how many voice cloning credits a customer has bought.
type CreditLedger interface {
	PurchasedCredits(ctx context.Context, customerID string) (int64, error)
}

type Services struct {
	Story    StoryAssistant
	Voice    VoiceService
	Payments PaymentService
	Credits  CreditLedger // nil when the billing database is disabled
}

type API struct {
	services Services
	secrets  config.Secrets
	now      func() time.Time

	logger logger.Logger
}

func New(secrets config.Secrets, services Services, logger logger.Logger) *API {
	return &API{
		services: services,
		secrets:  secrets,
		now:      time.Now,
		logger:   logger,
	}
}

func (a *API) routes() *mux.Router {
	r := mux.NewRouter()

	ai := r.PathPrefix("/api/ai").Subrouter()
	ai.HandleFunc("/story-prompts", a.handleStoryPrompts).Methods(http.MethodPost)
	ai.HandleFunc("/story-prompts", a.handleStoryPromptsQuery).Methods(http.MethodGet)
	ai.HandleFunc("/analyze", a.handleAnalyze).Methods(http.MethodPost)
	ai.HandleFunc("/interview", a.handleInterview).Methods(http.MethodPost)
	ai.HandleFunc("/titles", a.handleTitles).Methods(http.MethodPost)
	ai.HandleFunc("/transcribe", a.handleTranscribe).Methods(http.MethodPost)

	r.HandleFunc("/api/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/health", a.handleHealthHead).Methods(http.MethodHead)

	pay := r.PathPrefix("/api/payments").Subrouter()
	pay.HandleFunc("/checkout", a.handleCheckout).Methods(http.MethodPost)
	pay.HandleFunc("/voice-credits", a.handleVoiceCredits).Methods(http.MethodPost)
	pay.HandleFunc("/credits", a.handleCredits).Methods(http.MethodGet)
	pay.HandleFunc("/plans", a.handlePlans).Methods(http.MethodGet)
	pay.HandleFunc("/subscription", a.handleSubscriptionStatus).Methods(http.MethodGet)
	pay.HandleFunc("/subscription/{id}/cancel", a.handleCancelSubscription).Methods(http.MethodPost)
	pay.HandleFunc("/subscription/{id}/reactivate", a.handleReactivateSubscription).Methods(http.MethodPost)
	pay.HandleFunc("/subscription/{id}/plan", a.handleUpdatePlan).Methods(http.MethodPost)
	pay.HandleFunc("/methods", a.handlePaymentMethods).Methods(http.MethodGet)

	// clone and speech first, {voiceId} would swallow them otherwise
	v := r.PathPrefix("/api/voice").Subrouter()
	v.HandleFunc("/clone", a.handleCloneVoice).Methods(http.MethodPost)
	v.HandleFunc("/clone", a.handleListVoices).Methods(http.MethodGet)
	v.HandleFunc("/speech", a.handleSpeech).Methods(http.MethodPost)
	v.HandleFunc("/{voiceId}", a.handleVoiceStatus).Methods(http.MethodGet)
	v.HandleFunc("/{voiceId}", a.handleDeleteVoice).Methods(http.MethodDelete)

	r.HandleFunc("/api/webhooks/stripe", a.handleStripeWebhook).Methods(http.MethodPost)

	r.HandleFunc("/admin/status", a.handleStatusPage).Methods(http.MethodGet)

	return r
}

// Handler wraps the routes in the middleware chain. CORS and rate limiting
// sit outside the router so preflight requests never reach route matching.
func (a *API) Handler(cfg config.ServerConfig) http.Handler {
	limiter := NewRateLimiter(cfg.RateLimit, a.logger)
	cors := NewCORS(cfg.AllowedOrigins)

	var h http.Handler = a.routes()
	h = limiter.Handler(h)
	h = cors.Handler(h)
	h = recoverer(a.logger)(h)
	h = accessLog(a.logger)(h)
	h = requestID(h)
	return h
}
