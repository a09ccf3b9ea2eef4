package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-client/internal/domain"
)

func TestNewHealthMonitor_NilChecker(t *testing.T) {
	_, err := NewHealthMonitor(nil, nil, nil)
	require.Error(t, err)
}

func TestHealthMonitor_CheckReportsBackendStatus(t *testing.T) {
	checker := &fakeHealth{status: domain.HealthStatus{Reachable: true, Configured: true, Status: "healthy"}}
	var got []domain.HealthStatus
	m, err := NewHealthMonitor(checker, nil, func(s domain.HealthStatus) { got = append(got, s) })
	require.NoError(t, err)

	_, ok := m.Last()
	require.False(t, ok)

	status := m.Check(context.Background())

	require.True(t, status.Configured)
	last, ok := m.Last()
	require.True(t, ok)
	require.Equal(t, status, last)
	require.Equal(t, []domain.HealthStatus{status}, got)
}

func TestHealthMonitor_TransportFailureDegrades(t *testing.T) {
	checker := &fakeHealth{err: errors.New("dial tcp: refused")}
	m, err := NewHealthMonitor(checker, nil, nil)
	require.NoError(t, err)

	status := m.Check(context.Background())

	require.False(t, status.Reachable)
	require.False(t, status.Configured)
	require.Equal(t, domain.StatusUnknown, status.Status)
}

func TestHealthMonitor_WatchPollsUntilCancelled(t *testing.T) {
	checker := &fakeHealth{status: domain.HealthStatus{Reachable: true, Configured: true, Status: "healthy"}}
	m, err := NewHealthMonitor(checker, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Watch(ctx, 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return checker.callCount() >= 2 }, time.Second, time.Millisecond)
	cancel()
	wg.Wait()
}

func TestHealthMonitor_WatchDisabled(t *testing.T) {
	checker := &fakeHealth{}
	m, err := NewHealthMonitor(checker, nil, nil)
	require.NoError(t, err)

	m.Watch(context.Background(), 0)

	require.Equal(t, 0, checker.callCount())
}
