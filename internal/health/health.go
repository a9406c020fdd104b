package health

import (
	"cmp"
	"time"

	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/samber/lo"
)

const Version = "5.0.0"

type BadgeColor string

const (
	Green  BadgeColor = "green"
	Yellow BadgeColor = "yellow"
	Red    BadgeColor = "red"
	Gray   BadgeColor = "gray"
)

// Check reports which vendors are configured. It only looks at the
// presence of credentials and never calls out.
func Check(secrets config.Secrets, now time.Time) model.HealthStatus {
	configured := func(ok bool) string {
		return lo.Ternary(ok, model.StatusConfigured, model.StatusNotConfigured)
	}

	return model.HealthStatus{
		Status:      model.StatusHealthy,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Environment: secrets.Environment,
		Region:      cmp.Or(secrets.Region, "unknown"),
		Version:     Version,
		Services: model.ServiceStatuses{
			Database: configured(secrets.SupabaseURL != ""),
			AI:       configured(secrets.OpenAIAPIKey != "" && secrets.ElevenLabsAPIKey != ""),
			Payments: configured(secrets.StripeSecretKey != ""),
		},
	}
}

func Badge(status string) BadgeColor {
	switch status {
	case model.StatusHealthy, model.StatusConfigured:
		return Green
	case model.StatusNotConfigured:
		return Yellow
	case model.StatusError, model.StatusUnhealthy:
		return Red
	default:
		return Gray
	}
}
