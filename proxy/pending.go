package proxy

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/izan-l/cellium-mcp-client/internal/collection"
)

// PendingRequest records a single in-flight local call.
type PendingRequest struct {
	ID        string
	Method    string
	StartedAt time.Time
}

// Registry tracks in-flight local calls keyed by an opaque request id.
// Invariant: its size equals the number of handler invocations currently
// awaiting completion.
type Registry struct {
	entries *collection.SyncMap[string, *PendingRequest]
	logger  *zap.Logger
}

// Begin registers a new in-flight call and returns its record.
func (r *Registry) Begin(method string) *PendingRequest {
	pending := &PendingRequest{
		ID:        uuid.New().String(),
		Method:    method,
		StartedAt: time.Now(),
	}
	r.entries.Put(pending.ID, pending)
	return pending
}

// End removes an in-flight call on completion, successful or not.
func (r *Registry) End(pending *PendingRequest) {
	r.entries.Delete(pending.ID)
}

// Len returns the number of in-flight calls.
func (r *Registry) Len() int {
	return r.entries.Len()
}

// Overdue returns in-flight calls older than the supplied age. Used for
// diagnostics only; overdue calls are never cancelled automatically.
func (r *Registry) Overdue(age time.Duration) []*PendingRequest {
	cutoff := time.Now().Add(-age)
	var overdue []*PendingRequest
	for _, pending := range r.entries.Values() {
		if pending.StartedAt.Before(cutoff) {
			overdue = append(overdue, pending)
		}
	}
	return overdue
}

// CancelAll drops every in-flight entry, logging one failed completion per
// entry, and returns the number of cancelled calls. Outstanding upstream
// HTTP calls are not aborted; their eventual completion is discarded.
func (r *Registry) CancelAll(reason string) int {
	cancelled := r.entries.Drain()
	for _, pending := range cancelled {
		r.logger.Warn("request cancelled",
			zap.String("method", pending.Method),
			zap.String("requestId", pending.ID),
			zap.Duration("elapsed", time.Since(pending.StartedAt)),
			zap.String("reason", reason))
	}
	return len(cancelled)
}

// NewRegistry creates an empty pending request registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		entries: collection.NewSyncMap[string, *PendingRequest](),
		logger:  logger,
	}
}
