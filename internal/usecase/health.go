package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"chat-client/internal/domain"
)

// HealthMonitor asks the backend whether it is ready. Its result is
// advisory: it never fails and never affects sending.
type HealthMonitor struct {
	checker  HealthChecker
	log      *slog.Logger
	onChange func(domain.HealthStatus)

	mu      sync.RWMutex
	last    domain.HealthStatus
	checked bool
}

func NewHealthMonitor(checker HealthChecker, log *slog.Logger, onChange func(domain.HealthStatus)) (*HealthMonitor, error) {
	if checker == nil {
		return nil, errors.New("usecase: health checker must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &HealthMonitor{checker: checker, log: log, onChange: onChange}, nil
}

// Check performs one readiness request. A transport failure degrades to an
// unreachable/unknown status and is only logged.
func (m *HealthMonitor) Check(ctx context.Context) domain.HealthStatus {
	status, err := m.checker.Health(ctx)
	if err != nil {
		m.log.Warn("health check failed", "err", newError(ErrorHealthCheckUnavailable, "health_request", err))
		status = domain.HealthStatus{Status: domain.StatusUnknown}
	}

	m.mu.Lock()
	m.last = status
	m.checked = true
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(status)
	}
	return status
}

// Last returns the most recent status and whether any check has completed.
func (m *HealthMonitor) Last() (domain.HealthStatus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.checked
}

// Watch re-checks every interval until ctx is done. A non-positive
// interval returns immediately.
func (m *HealthMonitor) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
