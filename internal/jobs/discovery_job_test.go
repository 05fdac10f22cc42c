package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
	"github.com/yabalash/driver-tracker/internal/core/service"
	"github.com/yabalash/driver-tracker/internal/infrastructure/sessions"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubDirectory struct {
	orders []domain.Order
	err    error
}

func (s *stubDirectory) FindOrder(_ context.Context, orderNumber string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.Number == orderNumber {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubDirectory) TrackedOrders(context.Context) ([]domain.Order, error) {
	return s.orders, s.err
}

type stubStarter struct {
	mu       sync.Mutex
	tracked  map[string]bool
	settled  map[string]bool
	failures map[string]error
	calls    []string
}

func newStubStarter(tracked ...string) *stubStarter {
	s := &stubStarter{tracked: map[string]bool{}, settled: map[string]bool{}, failures: map[string]error{}}
	for _, o := range tracked {
		s.tracked[o] = true
	}
	return s
}

func (s *stubStarter) Has(orderNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracked[orderNumber]
}

func (s *stubStarter) Settled(orderNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settled[orderNumber]
}

func (s *stubStarter) StartOrder(order domain.Order) (*ports.SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderNumber := order.Number
	s.calls = append(s.calls, orderNumber)
	if err := s.failures[orderNumber]; err != nil {
		return nil, err
	}
	s.tracked[orderNumber] = true
	return &ports.SessionInfo{ID: "sess-" + orderNumber, OrderNumber: orderNumber}, nil
}

// blockingTracker polls until cancelled.
type blockingTracker struct {
	opened atomic.Int32
}

func (b *blockingTracker) Open(context.Context, string) (*service.TrackingSession, *domain.Order, error) {
	return nil, nil, errors.New("discovery must not look orders up again")
}

func (b *blockingTracker) OpenOrder(order domain.Order) (*service.TrackingSession, error) {
	b.opened.Add(1)
	return service.NewTrackingSession(order.Number, domain.TrackingAPIURL(order.TrackingURL)), nil
}

func (b *blockingTracker) Run(ctx context.Context, _ *service.TrackingSession) error {
	<-ctx.Done()
	return nil
}

// ---------------------------------------------------------------------------
// RunOnce
// ---------------------------------------------------------------------------

func TestDiscoveryJob_StartsUntrackedOrders(t *testing.T) {
	dir := &stubDirectory{orders: []domain.Order{
		{Number: "1001", TrackingURL: "https://d/order/tracking/a/b"},
		{Number: "1002", TrackingURL: "https://d/order/tracking/c/d"},
		{Number: "1003", TrackingURL: "https://d/order/tracking/e/f"},
	}}
	starter := newStubStarter("1002")
	job := NewDiscoveryJob(dir, starter, 0, zerolog.Nop())

	started, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1001", "1003"}, started)
	assert.Equal(t, []string{"1001", "1003"}, starter.calls)
}

func TestDiscoveryJob_SecondRunIsIdempotent(t *testing.T) {
	dir := &stubDirectory{orders: []domain.Order{{Number: "1001", TrackingURL: "u"}}}
	starter := newStubStarter()
	job := NewDiscoveryJob(dir, starter, 0, zerolog.Nop())

	_, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	started, err := job.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Empty(t, started)
	assert.Len(t, starter.calls, 1)
}

func TestDiscoveryJob_StartFailureDoesNotAbort(t *testing.T) {
	dir := &stubDirectory{orders: []domain.Order{
		{Number: "1001", TrackingURL: "u1"},
		{Number: "1002", TrackingURL: "u2"},
		{Number: "1003", TrackingURL: "u3"},
	}}
	starter := newStubStarter()
	starter.failures["1001"] = &domain.NetworkError{URL: "u1", Cause: errors.New("refused")}
	starter.failures["1002"] = domain.ErrSessionExists
	job := NewDiscoveryJob(dir, starter, 0, zerolog.Nop())

	started, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1003"}, started)
	assert.Len(t, starter.calls, 3)
}

func TestDiscoveryJob_SkipsSettledOrders(t *testing.T) {
	dir := &stubDirectory{orders: []domain.Order{
		{Number: "1001", TrackingURL: "u1"},
		{Number: "1002", TrackingURL: "u2"},
	}}
	starter := newStubStarter()
	starter.settled["1001"] = true
	job := NewDiscoveryJob(dir, starter, 0, zerolog.Nop())

	started, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1002"}, started)
	assert.Equal(t, []string{"1002"}, starter.calls)
}

func TestDiscoveryJob_StoppedSessionIsNotRestarted(t *testing.T) {
	dir := &stubDirectory{orders: []domain.Order{{Number: "1001", TrackingURL: "https://d/order/tracking/a/b"}}}
	st := &blockingTracker{}
	manager := sessions.NewManager(context.Background(), st, zerolog.Nop())
	defer manager.Shutdown()
	job := NewDiscoveryJob(dir, manager, 0, zerolog.Nop())

	started, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"1001"}, started)

	require.NoError(t, manager.Stop("1001"))

	started, err = job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, started)
	assert.False(t, manager.Has("1001"))
	assert.Equal(t, int32(1), st.opened.Load(), "the listed order must be opened without a second lookup")
}

func TestDiscoveryJob_DirectoryError(t *testing.T) {
	dir := &stubDirectory{err: domain.ErrNotAuthenticated}
	starter := newStubStarter()
	job := NewDiscoveryJob(dir, starter, 0, zerolog.Nop())

	_, err := job.RunOnce(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Empty(t, starter.calls)
}

// ---------------------------------------------------------------------------
// Scheduling
// ---------------------------------------------------------------------------

func TestDiscoveryJob_StartRejectsBadSchedule(t *testing.T) {
	job := NewDiscoveryJob(&stubDirectory{}, newStubStarter(), 0, zerolog.Nop())

	assert.Error(t, job.Start("every minute please"))
}

func TestDiscoveryJob_StartAndStop(t *testing.T) {
	job := NewDiscoveryJob(&stubDirectory{}, newStubStarter(), 0, zerolog.Nop())

	require.NoError(t, job.Start(""))
	job.Stop()
}
