package proxy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/viant/mcp-protocol/schema"
	"go.uber.org/zap"
)

// Connector establishes and re-validates connectivity to the Cellium
// endpoint. Connectivity is lazy: the endpoint is probed opportunistically
// when a call needs it, plus once in the background right after startup.
type Connector struct {
	transcoder *Transcoder
	state      *State
	attempts   int
	delay      time.Duration
	logger     *zap.Logger
	// mux serializes probes: a caller that needs liveness while another
	// probe is in flight waits for that probe instead of stacking its own.
	mux sync.Mutex
}

// EnsureLive validates connectivity before a forwarded call proceeds. When
// the connection is marked suspect it issues a single ping probe; failure
// surfaces as a connection unavailable error without retries (per-call
// degradation is the error boundary's job).
func (c *Connector) EnsureLive(ctx context.Context) error {
	if c.state.Connected() {
		return nil
	}
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.state.Connected() {
		// another caller re-established the connection while we waited
		return nil
	}
	return c.probe(ctx)
}

// probe issues the lightweight liveness call. Callers must hold mux.
func (c *Connector) probe(ctx context.Context) error {
	if _, err := c.transcoder.Forward(ctx, schema.MethodPing, &schema.PingRequestParams{}); err != nil {
		return NewConnectionUnavailable(err)
	}
	c.state.MarkConnected()
	c.logger.Info("cellium endpoint live", zap.String("endpoint", c.transcoder.Endpoint()))
	return nil
}

// Connect performs the startup liveness probe, retrying with a fixed delay
// up to the configured attempt cap. Exhausting the cap is fatal to the
// process; a success from any path stops the loop.
func (c *Connector) Connect(ctx context.Context) error {
	operation := func() (struct{}, error) {
		c.mux.Lock()
		defer c.mux.Unlock()
		if c.state.Connected() {
			return struct{}{}, nil
		}
		return struct{}{}, c.probe(ctx)
	}
	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(c.delay)),
		backoff.WithMaxTries(uint(c.attempts)+1), // +1 for the initial attempt
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("cellium endpoint unreachable, retrying",
				zap.Error(err),
				zap.Duration("retryIn", next))
		}))
	if err != nil {
		return fmt.Errorf("connection retries exhausted after %d attempts: %w", c.attempts, err)
	}
	return nil
}

// NewConnector creates a connector governed by the configured retry policy.
func NewConnector(transcoder *Transcoder, state *State, config *Config, logger *zap.Logger) *Connector {
	return &Connector{
		transcoder: transcoder,
		state:      state,
		attempts:   config.RetryAttempts,
		delay:      config.RetryDelay,
		logger:     logger,
	}
}
