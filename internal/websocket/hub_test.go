package websocket

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgarcia1/FinalProject/internal/shared/testutil"
)

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Start()
	defer hub.Stop()

	first := newTestClient(t, hub, NewMockConnection(), 0)
	second := newTestClient(t, hub, NewMockConnection(), 0)

	hub.Register(first)
	hub.Register(second)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, hub.ActiveSessions())

	hub.Unregister(first)
	hub.Unregister(first)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, HubStats{ActiveClients: 1, TotalConnections: 2}, hub.Stats())
}

func TestHub_StopClosesSessions(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()

	conn := NewMockConnection()
	hub.Register(newTestClient(t, hub, conn, 0))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Stop()
	hub.Stop()

	require.Eventually(t, conn.IsClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
	require.Eventually(t, func() bool {
		return logs.ContainsMessage("Hub shutting down")
	}, time.Second, 5*time.Millisecond)
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Closed open sessions")

	// A stopped hub ignores late registrations instead of blocking.
	late := newTestClient(t, hub, NewMockConnection(), 0)
	hub.Register(late)
	hub.Unregister(late)
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, int64(1), hub.Stats().TotalConnections)
}
