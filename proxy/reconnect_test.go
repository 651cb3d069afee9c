package proxy

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConnector(t *testing.T, url string, attempts int, delay time.Duration) (*Connector, *State) {
	t.Helper()
	config := &Config{URL: url, Token: "test-token", RetryAttempts: attempts, RetryDelay: delay}
	state := NewState()
	logger := zap.NewNop()
	transcoder := NewTranscoder(context.Background(), config, state, logger)
	return NewConnector(transcoder, state, config, logger), state
}

func TestConnector_ConnectSucceeds(t *testing.T) {
	stub := newRemoteStub(t)
	connector, state := newTestConnector(t, stub.server.URL, 3, time.Millisecond)

	require.NoError(t, connector.Connect(context.Background()))
	assert.True(t, state.Connected())
	assert.Equal(t, []string{"ping"}, stub.methods())
}

func TestConnector_ConnectRetriesExhausted(t *testing.T) {
	stub := newRemoteStub(t)
	stub.setRespond(func(_ string, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
	})
	delay := 20 * time.Millisecond
	connector, state := newTestConnector(t, stub.server.URL, 3, delay)

	started := time.Now()
	err := connector.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
	assert.Equal(t, 4, stub.callCount(), "initial attempt plus the configured retries")
	assert.GreaterOrEqual(t, time.Since(started), 3*delay, "retries are spaced by the fixed delay")
	assert.False(t, state.Connected())
}

func TestConnector_ConnectRecovers(t *testing.T) {
	var failures int32 = 2
	stub := newRemoteStub(t)
	stub.setRespond(func(_ string, w http.ResponseWriter) {
		if atomic.AddInt32(&failures, -1) >= 0 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeResult(w, "{}")
	})
	connector, state := newTestConnector(t, stub.server.URL, 3, time.Millisecond)

	require.NoError(t, connector.Connect(context.Background()))
	assert.True(t, state.Connected())
	assert.Equal(t, 3, stub.callCount())
}

func TestConnector_EnsureLive(t *testing.T) {
	stub := newRemoteStub(t)
	connector, state := newTestConnector(t, stub.server.URL, 0, time.Millisecond)

	state.MarkConnected()
	require.NoError(t, connector.EnsureLive(context.Background()))
	assert.Equal(t, 0, stub.callCount(), "no probe while the connection is live")

	state.MarkDisconnected()
	require.NoError(t, connector.EnsureLive(context.Background()))
	assert.True(t, state.Connected())
	assert.Equal(t, 1, stub.callCount(), "exactly one probe re-validates a suspect connection")
}

func TestConnector_EnsureLiveFailure(t *testing.T) {
	stub := newRemoteStub(t)
	url := stub.server.URL
	stub.server.Close()
	connector, state := newTestConnector(t, url, 5, time.Millisecond)

	err := connector.EnsureLive(context.Background())
	require.Error(t, err)
	var callError *CallError
	require.ErrorAs(t, err, &callError)
	assert.Equal(t, KindConnectionUnavailable, callError.Kind)
	assert.False(t, state.Connected())
	assert.Equal(t, 0, stub.callCount(), "per-call liveness checks never retry")
}

func TestConnector_EnsureLiveSingleFlight(t *testing.T) {
	stub := newRemoteStub(t)
	stub.setRespond(func(_ string, w http.ResponseWriter) {
		time.Sleep(50 * time.Millisecond)
		writeResult(w, "{}")
	})
	connector, _ := newTestConnector(t, stub.server.URL, 0, time.Millisecond)

	var group sync.WaitGroup
	for i := 0; i < 4; i++ {
		group.Add(1)
		go func() {
			defer group.Done()
			assert.NoError(t, connector.EnsureLive(context.Background()))
		}()
	}
	group.Wait()
	assert.Equal(t, 1, stub.callCount(), "concurrent callers share a single probe")
}
