package health

import (
	"context"
	"fmt"
	"time"

	"pallet-backend/internal/cache"
	"pallet-backend/internal/dashboard"
)

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db      Pinger
	redis   func() bool
	system  func(ctx context.Context) (*dashboard.SystemStatus, error)
	started time.Time
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Redis    string         `json:"redis"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

// DetailedStatus adds host metrics and uptime
type DetailedStatus struct {
	HealthStatus
	System *dashboard.SystemStatus `json:"system,omitempty"`
	Uptime string                  `json:"uptime"`
}

func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{
		db:      db,
		redis:   cache.IsHealthy,
		system:  dashboard.SampleSystem,
		started: time.Now(),
	}
}

// CheckBasic reports unhealthy only when the database is down. Redis is
// optional and only reported.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	redis := "disabled"
	if h.redis != nil && h.redis() {
		redis = "healthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Redis:    redis,
	}
}

func (h *HealthChecker) CheckDetailed(ctx context.Context) DetailedStatus {
	out := DetailedStatus{
		HealthStatus: h.CheckBasic(),
		Uptime:       formatUptime(time.Since(h.started)),
	}
	if h.system != nil {
		if s, err := h.system(ctx); err == nil {
			out.System = s
		}
	}
	return out
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
