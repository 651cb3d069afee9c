// Package proxy implements the core of the Cellium MCP bridge: the remote
// transcoder, connection state tracking, the retry controller, the error
// boundary and the local protocol adapter.
package proxy

import (
	"context"
	"encoding/json"

	"github.com/viant/mcp-protocol/schema"
	"go.uber.org/zap"
)

// Proxy forwards local MCP calls to the Cellium endpoint, one core handler
// per supported method. Params are parsed early into their typed shape and
// results are decoded back into the method's result type.
type Proxy struct {
	transcoder *Transcoder
	connector  *Connector
	state      *State
	logger     *zap.Logger
}

// forward runs the shared per-call pipeline: counters, lazy liveness check,
// dispatch and typed result decoding.
func (p *Proxy) forward(ctx context.Context, method string, params interface{}, result interface{}) error {
	p.state.RecordRequest()
	if err := p.connector.EnsureLive(ctx); err != nil {
		return err
	}
	raw, err := p.transcoder.Forward(ctx, method, params)
	if err != nil {
		return err
	}
	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		p.state.MarkDisconnected()
		return NewMalformedResponseError(err)
	}
	return nil
}

// Ping forwards a liveness call. The first ping on a suspect connection
// triggers a probe before the call itself proceeds.
func (p *Proxy) Ping(ctx context.Context, params json.RawMessage) (interface{}, error) {
	request := schema.PingRequest{Method: schema.MethodPing}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &request.Params); err != nil {
			return nil, err
		}
	}
	result := &schema.PingResult{}
	if err := p.forward(ctx, schema.MethodPing, &request.Params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListTools forwards the tools/list request.
func (p *Proxy) ListTools(ctx context.Context, params json.RawMessage) (interface{}, error) {
	request := schema.ListToolsRequest{Method: schema.MethodToolsList}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &request.Params); err != nil {
			return nil, err
		}
	}
	result := &schema.ListToolsResult{}
	if err := p.forward(ctx, schema.MethodToolsList, &request.Params, result); err != nil {
		return nil, err
	}
	if result.Tools == nil {
		result.Tools = []schema.Tool{}
	}
	return result, nil
}

// CallTool forwards the tools/call request.
func (p *Proxy) CallTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	request := schema.CallToolRequest{Method: schema.MethodToolsCall}
	if err := json.Unmarshal(params, &request.Params); err != nil {
		return nil, err
	}
	result := &schema.CallToolResult{}
	if err := p.forward(ctx, schema.MethodToolsCall, &request.Params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListResources forwards the resources/list request.
func (p *Proxy) ListResources(ctx context.Context, params json.RawMessage) (interface{}, error) {
	request := schema.ListResourcesRequest{Method: schema.MethodResourcesList}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &request.Params); err != nil {
			return nil, err
		}
	}
	result := &schema.ListResourcesResult{}
	if err := p.forward(ctx, schema.MethodResourcesList, &request.Params, result); err != nil {
		return nil, err
	}
	if result.Resources == nil {
		result.Resources = []schema.Resource{}
	}
	return result, nil
}

// ReadResource forwards the resources/read request.
func (p *Proxy) ReadResource(ctx context.Context, params json.RawMessage) (interface{}, error) {
	request := schema.ReadResourceRequest{Method: schema.MethodResourcesRead}
	if err := json.Unmarshal(params, &request.Params); err != nil {
		return nil, err
	}
	result := &schema.ReadResourceResult{}
	if err := p.forward(ctx, schema.MethodResourcesRead, &request.Params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// New creates a proxy over the supplied transcoder and connector.
func New(transcoder *Transcoder, connector *Connector, state *State, logger *zap.Logger) *Proxy {
	return &Proxy{
		transcoder: transcoder,
		connector:  connector,
		state:      state,
		logger:     logger,
	}
}
