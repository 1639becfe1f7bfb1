package lavalink

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Conn is the connection surface the manager drives. *Client satisfies it
// via the adapter below.
type Conn interface {
	Probe(ctx context.Context) error
	Reconnect(ctx context.Context) error
}

// clientConn adapts *Client: a probe is a stats call, a reconnect drops the
// websocket and redials.
type clientConn struct{ c *Client }

func (a clientConn) Probe(ctx context.Context) error {
	_, err := a.c.Stats(ctx)
	return err
}

func (a clientConn) Reconnect(ctx context.Context) error {
	_ = a.c.Close()
	return a.c.Connect(ctx)
}

type ManagerConfig struct {
	EnsureAttempts    int           // bounded lazy reconnect, default 3
	ForceAttempts     int           // unconditional reconnect, default 5
	InitialBackoff    time.Duration // default 500ms
	BackoffMultiplier float64       // default 1.7
	HeartbeatInterval time.Duration // default 30s
}

func (cfg *ManagerConfig) defaults() {
	if cfg.EnsureAttempts <= 0 {
		cfg.EnsureAttempts = 3
	}
	if cfg.ForceAttempts <= 0 {
		cfg.ForceAttempts = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = 1.7
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}
}

// Manager owns reconnect policy for the shared backend connection. All
// reconnect cycles in the process are serialized by one lock.
type Manager struct {
	conn Conn
	cfg  ManagerConfig

	reconnectMu sync.Mutex

	mu          sync.RWMutex
	lastHealthy time.Time

	// injectable for tests
	sleep func(time.Duration)
	now   func() time.Time
}

func NewManager(client *Client, cfg ManagerConfig) *Manager {
	return newManager(clientConn{client}, cfg)
}

func newManager(conn Conn, cfg ManagerConfig) *Manager {
	cfg.defaults()
	return &Manager{
		conn:  conn,
		cfg:   cfg,
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// Healthy reports known-good status without touching the network: true while
// the last successful probe is younger than the heartbeat interval.
func (m *Manager) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.lastHealthy.IsZero() && m.now().Sub(m.lastHealthy) < m.cfg.HeartbeatInterval
}

// EnsureConnected is the cheap pre-playback check: returns immediately when
// known-good, otherwise runs a bounded reconnect cycle.
func (m *Manager) EnsureConnected(ctx context.Context) bool {
	if m.Healthy() {
		return true
	}
	return m.reconnectCycle(ctx, m.cfg.EnsureAttempts, false)
}

// ForceReconnect drops and rebuilds the connection unconditionally.
func (m *Manager) ForceReconnect(ctx context.Context) bool {
	return m.reconnectCycle(ctx, m.cfg.ForceAttempts, true)
}

// reconnectCycle probes, rebuilds on failure, and backs off between attempts.
// When force is set the first attempt skips the probe and rebuilds outright.
func (m *Manager) reconnectCycle(ctx context.Context, attempts int, force bool) bool {
	m.reconnectMu.Lock()
	defer m.reconnectMu.Unlock()

	backoff := m.cfg.InitialBackoff
	for attempt := 1; attempt <= attempts; attempt++ {
		if m.attempt(ctx, force && attempt == 1) {
			m.markHealthy()
			return true
		}
		if attempt < attempts {
			m.sleep(backoff)
			backoff = time.Duration(float64(backoff) * m.cfg.BackoffMultiplier)
		}
	}

	m.mu.Lock()
	m.lastHealthy = time.Time{}
	m.mu.Unlock()
	log.Error().Int("attempts", attempts).Msg("backend reconnect cycle exhausted")
	return false
}

func (m *Manager) attempt(ctx context.Context, skipProbe bool) bool {
	if !skipProbe {
		if err := m.conn.Probe(ctx); err == nil {
			return true
		}
	}
	if err := m.conn.Reconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("backend rebuild failed")
		return false
	}
	if err := m.conn.Probe(ctx); err != nil {
		log.Warn().Err(err).Msg("rebuilt backend failed probe")
		return false
	}
	return true
}

func (m *Manager) markHealthy() {
	m.mu.Lock()
	m.lastHealthy = m.now()
	m.mu.Unlock()
}

// Heartbeat probes the backend on a fixed interval until ctx is cancelled.
// Failures trigger the bounded lazy reconnect and are logged, never raised.
func (m *Manager) Heartbeat(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.conn.Probe(ctx); err == nil {
				m.markHealthy()
				continue
			}
			log.Warn().Msg("heartbeat probe failed, reconnecting")
			if !m.reconnectCycle(ctx, m.cfg.EnsureAttempts, false) {
				log.Error().Msg("heartbeat reconnect failed, backend unhealthy")
			}
		}
	}
}
