package httpapi

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"
	"time"

	"github.com/deanmartian/livets-stemme/internal/health"
	"github.com/deanmartian/livets-stemme/internal/model"
)

//go:embed templates/status.html
var _statusHTML string

var _statusPage = template.Must(template.New("status").Funcs(template.FuncMap{
	"badge": func(status string) string { return string(health.Badge(status)) },
	"label": statusLabel,
}).Parse(_statusHTML))

var _oslo = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Oslo")
	if err != nil {
		return time.UTC
	}
	return loc
}()

func statusLabel(status string) string {
	switch status {
	case model.StatusHealthy:
		return "Frisk"
	case model.StatusConfigured:
		return "Konfigurert"
	case model.StatusNotConfigured:
		return "Ikke konfigurert"
	case model.StatusUnhealthy:
		return "Problemer"
	default:
		return "Feil"
	}
}

type serviceCard struct {
	Name   string
	Vendor string
	Status string
	Hint   string
}

type statusView struct {
	Health    model.HealthStatus
	Updated   string
	Services  []serviceCard
	Variables []variableCheck
}

type variableCheck struct {
	Name     string
	Present  bool
	Required bool
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, health.Check(a.secrets, a.now()))
}

func (a *API) handleHealthHead(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (a *API) statusView() statusView {
	now := a.now()
	h := health.Check(a.secrets, now)
	return statusView{
		Health:  h,
		Updated: now.In(_oslo).Format("02.01.2006, 15:04:05"),
		Services: []serviceCard{
			{"Database", "Supabase PostgreSQL", h.Services.Database, "Sett NEXT_PUBLIC_SUPABASE_URL i environment variables"},
			{"AI Tjenester", "OpenAI + ElevenLabs", h.Services.AI, "Sett OPENAI_API_KEY og ELEVENLABS_API_KEY"},
			{"Betalinger", "Stripe", h.Services.Payments, "Sett STRIPE_SECRET_KEY i environment variables"},
		},
		Variables: []variableCheck{
			{"NEXT_PUBLIC_SUPABASE_URL", a.secrets.SupabaseURL != "", true},
			{"NEXT_PUBLIC_SUPABASE_ANON_KEY", a.secrets.SupabaseAnonKey != "", true},
			{"OPENAI_API_KEY", a.secrets.OpenAIAPIKey != "", false},
			{"ELEVENLABS_API_KEY", a.secrets.ElevenLabsAPIKey != "", false},
			{"STRIPE_SECRET_KEY", a.secrets.StripeSecretKey != "", false},
		},
	}
}

// handleStatusPage renders into a buffer so a template failure can still
// become a clean 500.
func (a *API) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := _statusPage.Execute(&buf, a.statusView()); err != nil {
		a.log(r).Errorf("%s: can't render status page", err)
		writeError(w, http.StatusInternalServerError, MsgInternal)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
