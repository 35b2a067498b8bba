package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// checkTimeout bounds each registered check.
const checkTimeout = 5 * time.Second

type HealthCheck func(ctx context.Context) error

type CheckResult struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration"`
}

type HealthChecker struct {
	mu     sync.RWMutex
	checks map[string]HealthCheck
}

var globalHealthChecker = &HealthChecker{checks: make(map[string]HealthCheck)}

// RegisterHealthCheck adds or replaces a named dependency check.
func RegisterHealthCheck(name string, check HealthCheck) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	globalHealthChecker.checks[name] = check
}

func UnregisterHealthCheck(name string) {
	globalHealthChecker.mu.Lock()
	defer globalHealthChecker.mu.Unlock()
	delete(globalHealthChecker.checks, name)
}

// RunHealthChecks runs every check concurrently.
func RunHealthChecks() map[string]CheckResult {
	return runHealthChecks(context.Background())
}

func runHealthChecks(ctx context.Context) map[string]CheckResult {
	globalHealthChecker.mu.RLock()
	checks := make(map[string]HealthCheck, len(globalHealthChecker.checks))
	for name, check := range globalHealthChecker.checks {
		checks[name] = check
	}
	globalHealthChecker.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checks))
	)

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check HealthCheck) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			start := time.Now()
			result := CheckResult{Name: name, Status: StatusHealthy}
			if err := check(ctx); err != nil {
				result.Status = StatusUnhealthy
				result.Message = err.Error()
			}
			result.Duration = time.Since(start).String()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	return results
}

func allHealthy(results map[string]CheckResult) bool {
	for _, r := range results {
		if r.Status != StatusHealthy {
			return false
		}
	}
	return true
}

func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results := runHealthChecks(c.Request.Context())

		status, code := StatusHealthy, http.StatusOK
		if !allHealthy(results) {
			status, code = StatusUnhealthy, http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"checks":    results,
			"timestamp": time.Now().UTC(),
		})
	}
}

func ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results := runHealthChecks(c.Request.Context())

		if !allHealthy(results) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "checks": results})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

// LivenessHandler never touches dependencies.
func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "alive",
			"uptime": GetSystemMetrics().Uptime.String(),
		})
	}
}
