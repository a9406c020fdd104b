package model

const (
	StatusHealthy       = "healthy"
	StatusUnhealthy     = "unhealthy"
	StatusConfigured    = "configured"
	StatusNotConfigured = "not configured"
	StatusError         = "error"
)

type ServiceStatuses struct {
	Database string `json:"database"`
	AI       string `json:"ai"`
	Payments string `json:"payments"`
}

type HealthStatus struct {
	Status      string          `json:"status"`
	Timestamp   string          `json:"timestamp"`
	Environment string          `json:"environment"`
	Region      string          `json:"region"`
	Version     string          `json:"version"`
	Services    ServiceStatuses `json:"services"`
}
