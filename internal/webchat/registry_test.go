package webchat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/appointment-ai-site/internal/chat"
	"github.com/wolfman30/appointment-ai-site/internal/observability/metrics"
	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

func newTestRegistry(a chat.Assistant, opts ...RegistryOption) *Registry {
	factory := func(key string) *chat.Session {
		return chat.NewSession(key, a, chat.WithLogger(logging.New("error")))
	}
	opts = append([]RegistryOption{WithRegistryLogger(logging.New("error"))}, opts...)
	return NewRegistry(factory, opts...)
}

func TestGenerateSessionID(t *testing.T) {
	s1 := generateSessionID()
	s2 := generateSessionID()
	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2)
	assert.Len(t, s1, 32) // 16 bytes = 32 hex chars
}

func TestRegistry_CreateAndGet(t *testing.T) {
	reg := newTestRegistry(&gatedAssistant{})

	k1, s1 := reg.Create()
	k2, s2 := reg.Create()
	assert.NotEqual(t, k1, k2)
	assert.NotSame(t, s1, s2)
	assert.Equal(t, 2, reg.Len())

	got, err := reg.Get(k1)
	require.NoError(t, err)
	assert.Same(t, s1, got)
	assert.Equal(t, k1, got.ID())
	assert.Equal(t, 1, got.Len(), "new session is seeded with the greeting")

	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_SweepEvictsIdleSessions(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	promReg := prometheus.NewRegistry()
	reg := newTestRegistry(&gatedAssistant{},
		WithIdleTTL(10*time.Minute),
		WithRegistryMetrics(metrics.NewWebchatMetrics(promReg)),
	)
	reg.now = func() time.Time { return clock }

	stale, _ := reg.Create()
	clock = clock.Add(8 * time.Minute)
	fresh, _ := reg.Create()
	clock = clock.Add(5 * time.Minute)

	assert.Equal(t, 1, reg.Sweep())
	_, err := reg.Get(stale)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = reg.Get(fresh)
	assert.NoError(t, err)

	expected := `
# HELP appointment_demo_webchat_sessions_active Demo sessions currently held in memory
# TYPE appointment_demo_webchat_sessions_active gauge
appointment_demo_webchat_sessions_active 1
# HELP appointment_demo_webchat_sessions_evicted_total Idle demo sessions evicted from memory
# TYPE appointment_demo_webchat_sessions_evicted_total counter
appointment_demo_webchat_sessions_evicted_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(promReg, strings.NewReader(expected),
		"appointment_demo_webchat_sessions_active",
		"appointment_demo_webchat_sessions_evicted_total",
	))
}

func TestRegistry_TouchKeepsSessionAlive(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg := newTestRegistry(&gatedAssistant{}, WithIdleTTL(time.Minute))
	reg.now = func() time.Time { return clock }

	key, _ := reg.Create()
	clock = clock.Add(50 * time.Second)
	reg.Touch(key)
	clock = clock.Add(50 * time.Second)

	assert.Zero(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_SweepKeepsInflightSessions(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg := newTestRegistry(&gatedAssistant{}, WithIdleTTL(time.Minute))
	reg.now = func() time.Time { return clock }

	key, sess := reg.Create()
	_, err := sess.Begin("still waiting")
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	assert.Zero(t, reg.Sweep())
	_, err = reg.Get(key)
	assert.NoError(t, err)
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	reg := newTestRegistry(&gatedAssistant{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
