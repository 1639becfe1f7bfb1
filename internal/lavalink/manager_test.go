package lavalink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	probeErrs     []error // consumed per probe call, nil slice means always ok
	reconnectErrs []error
	probes        int
	reconnects    int
}

func (f *fakeConn) Probe(context.Context) error {
	f.probes++
	if len(f.probeErrs) == 0 {
		return nil
	}
	err := f.probeErrs[0]
	f.probeErrs = f.probeErrs[1:]
	return err
}

func (f *fakeConn) Reconnect(context.Context) error {
	f.reconnects++
	if len(f.reconnectErrs) == 0 {
		return nil
	}
	err := f.reconnectErrs[0]
	f.reconnectErrs = f.reconnectErrs[1:]
	return err
}

var errDown = errors.New("connection refused")

func newTestManager(conn Conn, cfg ManagerConfig) (*Manager, *[]time.Duration) {
	m := newManager(conn, cfg)
	var slept []time.Duration
	m.sleep = func(d time.Duration) { slept = append(slept, d) }
	return m, &slept
}

func TestEnsureConnectedProbeSucceedsFirstTry(t *testing.T) {
	conn := &fakeConn{}
	m, slept := newTestManager(conn, ManagerConfig{})

	assert.True(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, 1, conn.probes)
	assert.Equal(t, 0, conn.reconnects)
	assert.Empty(t, *slept)
}

func TestEnsureConnectedSkipsNetworkWhenHealthy(t *testing.T) {
	conn := &fakeConn{}
	m, _ := newTestManager(conn, ManagerConfig{HeartbeatInterval: 30 * time.Second})

	assert.True(t, m.EnsureConnected(context.Background()))
	probes := conn.probes

	assert.True(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, probes, conn.probes, "known-good within the heartbeat window must not probe")
}

func TestEnsureConnectedExhaustsAttempts(t *testing.T) {
	conn := &fakeConn{
		// Each attempt probes, rebuilds, probes again: all fail.
		probeErrs:     []error{errDown, errDown, errDown, errDown, errDown, errDown},
		reconnectErrs: []error{errDown, errDown, errDown},
	}
	m, slept := newTestManager(conn, ManagerConfig{
		EnsureAttempts:    3,
		InitialBackoff:    100 * time.Millisecond,
		BackoffMultiplier: 1.7,
	})

	assert.False(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, 3, conn.reconnects)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 170 * time.Millisecond}, *slept)
	assert.False(t, m.Healthy())
}

func TestEnsureConnectedRecoversAfterRebuild(t *testing.T) {
	conn := &fakeConn{
		// First probe fails, rebuild succeeds, second probe passes.
		probeErrs: []error{errDown, nil},
	}
	m, slept := newTestManager(conn, ManagerConfig{})

	assert.True(t, m.EnsureConnected(context.Background()))
	assert.Equal(t, 1, conn.reconnects)
	assert.Empty(t, *slept)
	assert.True(t, m.Healthy())
}

func TestForceReconnectDropsBeforeProbing(t *testing.T) {
	conn := &fakeConn{}
	m, _ := newTestManager(conn, ManagerConfig{})

	assert.True(t, m.ForceReconnect(context.Background()))
	assert.Equal(t, 1, conn.reconnects, "forced cycle must rebuild even when the probe would pass")
	assert.Equal(t, 1, conn.probes)
}

func TestForceReconnectAttemptCap(t *testing.T) {
	conn := &fakeConn{
		probeErrs: []error{
			// Attempt 1 skips the pre-probe; each failed rebuild skips the
			// post-probe, so probes happen only after successful rebuilds.
			errDown, errDown, errDown, errDown, errDown,
			errDown, errDown, errDown, errDown,
		},
		reconnectErrs: []error{nil, nil, nil, nil, nil},
	}
	m, slept := newTestManager(conn, ManagerConfig{
		ForceAttempts:     5,
		InitialBackoff:    50 * time.Millisecond,
		BackoffMultiplier: 2,
	})

	assert.False(t, m.ForceReconnect(context.Background()))
	assert.Equal(t, 5, conn.reconnects)
	assert.Len(t, *slept, 4, "sleeps only between attempts")
}

func TestHealthyExpiresAfterHeartbeatInterval(t *testing.T) {
	conn := &fakeConn{}
	m, _ := newTestManager(conn, ManagerConfig{HeartbeatInterval: 30 * time.Second})

	now := time.Now()
	m.now = func() time.Time { return now }
	assert.True(t, m.EnsureConnected(context.Background()))
	assert.True(t, m.Healthy())

	m.now = func() time.Time { return now.Add(31 * time.Second) }
	assert.False(t, m.Healthy())
}
