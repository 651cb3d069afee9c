package proxy

import (
	"sync"
	"time"
)

// State tracks liveness of the Cellium connection together with diagnostic
// counters. It is owned by the bridge service; other components mutate it
// only through its methods.
type State struct {
	mux            sync.RWMutex
	connected      bool
	lastActivityAt time.Time
	requestCount   uint64
	errorCount     uint64
}

// Snapshot is a point-in-time copy of the connection state for diagnostics.
type Snapshot struct {
	Connected      bool
	LastActivityAt time.Time
	RequestCount   uint64
	ErrorCount     uint64
}

// Connected reports whether the last interaction with the endpoint succeeded.
func (s *State) Connected() bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.connected
}

// MarkConnected flips the liveness flag after a successful liveness check.
func (s *State) MarkConnected() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.connected = true
	s.lastActivityAt = time.Now()
}

// MarkDisconnected pessimistically invalidates the connection: a single
// failed call marks the whole connection suspect until the next liveness
// check passes.
func (s *State) MarkDisconnected() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.connected = false
	s.lastActivityAt = time.Now()
}

// RecordRequest bumps the request counter. Counters feed diagnostics only,
// never control flow.
func (s *State) RecordRequest() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.requestCount++
	s.lastActivityAt = time.Now()
}

// RecordError bumps the error counter.
func (s *State) RecordError() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.errorCount++
	s.lastActivityAt = time.Now()
}

// MarkActivity updates the activity timestamp without touching counters.
func (s *State) MarkActivity() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.lastActivityAt = time.Now()
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return Snapshot{
		Connected:      s.connected,
		LastActivityAt: s.lastActivityAt,
		RequestCount:   s.requestCount,
		ErrorCount:     s.errorCount,
	}
}

// NewState creates a new connection state record.
func NewState() *State {
	return &State{}
}
