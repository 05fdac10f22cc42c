package sessions

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
	"github.com/yabalash/driver-tracker/internal/core/service"
	"github.com/yabalash/driver-tracker/internal/infrastructure/metrics"
)

var ErrManagerClosed = errors.New("session manager is shut down")

// Tracker opens and runs tracking sessions; *service.Tracker satisfies it.
type Tracker interface {
	Open(ctx context.Context, orderNumber string) (*service.TrackingSession, *domain.Order, error)
	OpenOrder(order domain.Order) (*service.TrackingSession, error)
	Run(ctx context.Context, session *service.TrackingSession) error
}

type running struct {
	info   ports.SessionInfo
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager runs one polling goroutine per tracked order. Sessions are
// independent; the manager only guards the order → session map and the set of
// settled orders, those stopped by an operator or finished on their own.
type Manager struct {
	parent  context.Context
	tracker Tracker
	log     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*running
	settled  map[string]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewManager derives every session context from parent, so cancelling parent
// stops all sessions.
func NewManager(parent context.Context, tracker Tracker, log zerolog.Logger) *Manager {
	return &Manager{
		parent:   parent,
		tracker:  tracker,
		log:      log,
		sessions: make(map[string]*running),
		settled:  make(map[string]struct{}),
	}
}

// Start resolves orderNumber and launches its poller. Resolution happens on
// the caller's ctx; polling runs until Stop, Shutdown, parent cancellation or
// the order finishing. An explicit Start also clears a settled order.
func (m *Manager) Start(ctx context.Context, orderNumber string) (*ports.SessionInfo, error) {
	if err := m.checkStartable(orderNumber); err != nil {
		return nil, err
	}

	session, _, err := m.tracker.Open(ctx, orderNumber)
	if err != nil {
		recordOpenFailure(err)
		return nil, err
	}
	return m.launch(session)
}

// StartOrder launches a poller for an order the caller already listed, so no
// further directory lookup is made.
func (m *Manager) StartOrder(order domain.Order) (*ports.SessionInfo, error) {
	if err := m.checkStartable(order.Number); err != nil {
		return nil, err
	}

	session, err := m.tracker.OpenOrder(order)
	if err != nil {
		recordOpenFailure(err)
		return nil, err
	}
	return m.launch(session)
}

func recordOpenFailure(err error) {
	if errors.Is(err, domain.ErrNotFound) {
		metrics.SessionsStartedTotal.WithLabelValues("not_found").Inc()
	} else {
		metrics.SessionsStartedTotal.WithLabelValues("error").Inc()
	}
}

func (m *Manager) launch(session *service.TrackingSession) (*ports.SessionInfo, error) {
	orderNumber := session.OrderNumber

	m.mu.Lock()
	// re-check: another Start may have won while we were resolving
	if m.closed {
		m.mu.Unlock()
		return nil, ErrManagerClosed
	}
	if _, ok := m.sessions[orderNumber]; ok {
		m.mu.Unlock()
		metrics.SessionsStartedTotal.WithLabelValues("exists").Inc()
		return nil, domain.ErrSessionExists
	}

	runCtx, cancel := context.WithCancel(m.parent)
	r := &running{
		info: ports.SessionInfo{
			ID:          session.ID,
			OrderNumber: session.OrderNumber,
			Endpoint:    session.Endpoint,
			StartedAt:   session.StartedAt,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.sessions[orderNumber] = r
	delete(m.settled, orderNumber)
	m.wg.Add(1)
	m.mu.Unlock()

	metrics.SessionsStartedTotal.WithLabelValues("started").Inc()
	metrics.SessionsActive.Inc()
	go m.run(runCtx, session, r)

	info := r.info
	return &info, nil
}

func (m *Manager) checkStartable(orderNumber string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	if _, ok := m.sessions[orderNumber]; ok {
		metrics.SessionsStartedTotal.WithLabelValues("exists").Inc()
		return domain.ErrSessionExists
	}
	return nil
}

func (m *Manager) run(ctx context.Context, session *service.TrackingSession, r *running) {
	defer m.wg.Done()
	defer close(r.done)
	defer metrics.SessionsActive.Dec()
	defer r.cancel()

	if err := m.tracker.Run(ctx, session); err != nil {
		m.log.Error().Err(err).Str("order", session.OrderNumber).Msg("tracking session ended with error")
	}

	m.mu.Lock()
	if m.sessions[session.OrderNumber] == r {
		delete(m.sessions, session.OrderNumber)
		if m.parent.Err() == nil {
			m.settled[session.OrderNumber] = struct{}{}
		}
	}
	m.mu.Unlock()
}

// Stop cancels the session of orderNumber and waits for its loop to exit.
func (m *Manager) Stop(orderNumber string) error {
	m.mu.Lock()
	r, ok := m.sessions[orderNumber]
	if ok {
		delete(m.sessions, orderNumber)
		m.settled[orderNumber] = struct{}{}
	}
	m.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	r.cancel()
	<-r.done
	m.log.Info().Str("order", orderNumber).Str("session_id", r.info.ID).Msg("tracking session stopped")
	return nil
}

// Has reports whether orderNumber is currently tracked.
func (m *Manager) Has(orderNumber string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[orderNumber]
	return ok
}

// Settled reports whether orderNumber was stopped by an operator or finished
// on its own. Settled orders are only tracked again by an explicit Start.
func (m *Manager) Settled(orderNumber string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.settled[orderNumber]
	return ok
}

// List returns the running sessions ordered by start time.
func (m *Manager) List() []ports.SessionInfo {
	m.mu.Lock()
	out := make([]ports.SessionInfo, 0, len(m.sessions))
	for _, r := range m.sessions {
		out = append(out, r.info)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].OrderNumber < out[j].OrderNumber
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Shutdown stops all sessions, rejects new ones and waits for every loop to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	for order, r := range m.sessions {
		r.cancel()
		delete(m.sessions, order)
	}
	m.mu.Unlock()

	m.wg.Wait()
}
