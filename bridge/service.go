package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/viant/jsonrpc/transport"
	"github.com/viant/jsonrpc/transport/server/stdio"
	"go.uber.org/zap"

	"github.com/izan-l/cellium-mcp-client/proxy"
)

const (
	// keepAliveInterval drives the no-op timer that keeps the process alive
	// while stdin is idle. The tick carries no protocol work.
	keepAliveInterval = 30 * time.Second
	// staleRequestAge is the diagnostics threshold for in-flight calls;
	// overdue calls are reported, never cancelled.
	staleRequestAge = 30 * time.Second
)

// Service orchestrates the bridge lifecycle: the background connection
// probe, the local stdio server and disconnect cleanup. It owns the
// connection state and the pending request registry.
type Service struct {
	logger    *zap.Logger
	state     *proxy.State
	registry  *proxy.Registry
	proxy     *proxy.Proxy
	connector *proxy.Connector
	boundary  *proxy.Boundary
	stop      chan struct{}
	stopOnce  sync.Once
}

// Connect probes the Cellium endpoint, retrying with the configured fixed
// delay. Exhausting the attempt cap returns an error that must terminate
// the process with a non-zero status.
func (s *Service) Connect(ctx context.Context) error {
	return s.connector.Connect(ctx)
}

// Serve runs the stdio JSON-RPC server until the local transport closes.
func (s *Service) Serve(ctx context.Context) error {
	go s.keepAlive(ctx)
	server := stdio.New(ctx, s.newHandler)
	return server.ListenAndServe()
}

// Disconnect cancels every pending request and stops the keep-alive timer.
// It is idempotent with respect to resource cleanup.
func (s *Service) Disconnect() {
	s.stopOnce.Do(func() {
		close(s.stop)
		cancelled := s.registry.CancelAll("cancelled due to disconnect")
		if cancelled > 0 {
			s.logger.Warn("pending requests cancelled on disconnect", zap.Int("count", cancelled))
		}
		s.state.MarkDisconnected()
	})
}

// Run starts the background connection probe and the stdio server. The
// probe does not block the local transport from becoming ready; a probe
// failure after retry exhaustion is fatal, whereas the local transport
// closing ends the session normally.
func (s *Service) Run(ctx context.Context) error {
	defer s.Disconnect()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	connectErr := make(chan error, 1)
	go func() {
		connectErr <- s.Connect(ctx)
	}()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(ctx)
	}()

	select {
	case err := <-serveErr:
		return err
	case err := <-connectErr:
		if err != nil {
			return err
		}
		return <-serveErr
	}
}

func (s *Service) newHandler(_ context.Context, aTransport transport.Transport) transport.Handler {
	return proxy.NewHandler(aTransport, s.proxy, s.boundary, s.state, s.logger)
}

// keepAlive ticks for the session lifetime so the hosting process does not
// exit while stdin is idle. Each tick also reports requests pending for
// longer than the diagnostics threshold.
func (s *Service) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			snapshot := s.state.Snapshot()
			s.logger.Debug("keepalive",
				zap.Bool("connected", snapshot.Connected),
				zap.Uint64("requests", snapshot.RequestCount),
				zap.Uint64("errors", snapshot.ErrorCount),
				zap.Int("pending", s.registry.Len()))
			for _, pending := range s.registry.Overdue(staleRequestAge) {
				s.logger.Warn("request still pending",
					zap.String("method", pending.Method),
					zap.String("requestId", pending.ID),
					zap.Duration("elapsed", time.Since(pending.StartedAt)))
			}
		}
	}
}

// New constructs a bridge service from a validated configuration.
func New(ctx context.Context, config *proxy.Config, logger *zap.Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	state := proxy.NewState()
	registry := proxy.NewRegistry(logger)
	transcoder := proxy.NewTranscoder(ctx, config, state, logger)
	connector := proxy.NewConnector(transcoder, state, config, logger)
	return &Service{
		logger:    logger,
		state:     state,
		registry:  registry,
		connector: connector,
		proxy:     proxy.New(transcoder, connector, state, logger),
		boundary:  proxy.NewBoundary(registry, state, logger),
		stop:      make(chan struct{}),
	}, nil
}
