package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthChecker manages health checks for the service. The payin service
// depends on two databases; both must answer for the service to be healthy.
type HealthChecker struct {
	paymentPool *pgxpool.Pool
	mainPool    *pgxpool.Pool
}

// NewHealthChecker creates a new HealthChecker
func NewHealthChecker(paymentPool, mainPool *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{
		paymentPool: paymentPool,
		mainPool:    mainPool,
	}
}

// Check performs health checks and returns the status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	checks := make(map[string]string)
	overallStatus := "healthy"

	checkPool := func(name string, pool *pgxpool.Pool) {
		if pool == nil {
			checks[name] = "not configured"
			return
		}
		dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := pool.Ping(dbCtx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks[name] = "healthy"
		}
	}

	checkPool("payment_database", h.paymentPool)
	checkPool("main_database", h.mainPool)

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// HealthHandler returns an HTTP handler for health checks
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(status)
	}
}
