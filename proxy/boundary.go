package proxy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/viant/mcp-protocol/schema"
	"go.uber.org/zap"
)

// HandlerFunc is a core method handler before wrapping.
type HandlerFunc func(ctx context.Context, params json.RawMessage) (interface{}, error)

// SafeFunc never fails: any handler error has already been converted into a
// method-specific fallback payload.
type SafeFunc func(ctx context.Context, params json.RawMessage) interface{}

// Boundary wraps method handlers so a failing backend never surfaces an
// error to the local transport; an error escaping a handler would tear down
// the stdio channel and end the session.
type Boundary struct {
	registry *Registry
	state    *State
	logger   *zap.Logger
}

// Guard wraps a core handler at registration time. The returned handler
// registers a pending request on entry, removes it on exit and substitutes
// the method's fallback payload on failure.
func (b *Boundary) Guard(method string, handler HandlerFunc) SafeFunc {
	return func(ctx context.Context, params json.RawMessage) interface{} {
		pending := b.registry.Begin(method)
		defer b.registry.End(pending)
		result, err := handler(ctx, params)
		if err == nil {
			return result
		}
		b.state.RecordError()
		b.logger.Error("handler failed, returning fallback",
			zap.String("method", method),
			zap.String("requestId", pending.ID),
			zap.Duration("elapsed", time.Since(pending.StartedAt)),
			zap.Error(err))
		return fallback(method, params, err)
	}
}

// fallback builds the schema-valid substitute response for a failed method.
func fallback(method string, params json.RawMessage, err error) interface{} {
	switch method {
	case schema.MethodToolsList:
		return &schema.ListToolsResult{Tools: []schema.Tool{}}
	case schema.MethodResourcesList:
		return &schema.ListResourcesResult{Resources: []schema.Resource{}}
	case schema.MethodToolsCall:
		isError := true
		return &schema.CallToolResult{
			Content: []schema.CallToolResultContentElem{
				schema.TextContent{Type: "text", Text: "Error calling tool: " + err.Error()},
			},
			IsError: &isError,
		}
	case schema.MethodResourcesRead:
		var request schema.ReadResourceRequestParams
		// uri stays empty when the params themselves were unusable
		_ = json.Unmarshal(params, &request)
		return &schema.ReadResourceResult{
			Contents: []schema.ReadResourceResultContentsElem{
				{Uri: request.Uri, Text: "Error reading resource: " + err.Error()},
			},
		}
	case schema.MethodPing:
		// liveness probes never report failure upward
		return &schema.PingResult{}
	default:
		return map[string]string{"error": err.Error()}
	}
}

// NewBoundary creates an error boundary over the pending request registry.
func NewBoundary(registry *Registry, state *State, logger *zap.Logger) *Boundary {
	return &Boundary{
		registry: registry,
		state:    state,
		logger:   logger,
	}
}
