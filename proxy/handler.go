package proxy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	"github.com/viant/jsonrpc/transport"
	"github.com/viant/mcp-protocol/schema"
	"go.uber.org/zap"
)

// protocolVersion is the fixed protocol version this server advertises.
const protocolVersion = schema.LatestProtocolVersion

// Handler adapts the stdio JSON-RPC server to the Cellium proxy: one
// guarded handler per supported method, registered at construction time.
type Handler struct {
	transport.Notifier
	handlers map[string]SafeFunc
	state    *State
	logger   *zap.Logger
}

// Serve handles a single inbound JSON-RPC request.
func (h *Handler) Serve(ctx context.Context, request *jsonrpc.Request, response *jsonrpc.Response) {
	if request.Jsonrpc != jsonrpc.Version {
		response.Error = jsonrpc.NewInvalidRequest("invalid JSON-RPC version", nil)
		return
	}
	if request.Method == schema.MethodInitialize {
		result, jErr := h.initialize(request)
		if jErr != nil {
			response.Error = jErr
			return
		}
		h.setResponse(response, result)
		return
	}
	safe, ok := h.handlers[request.Method]
	if !ok {
		response.Error = jsonrpc.NewMethodNotFound(fmt.Sprintf("method: %v not found", request.Method), request.Params)
		return
	}
	h.setResponse(response, safe(ctx, request.Params))
}

// initialize is handled locally and never forwarded: the bridge advertises
// its own fixed version and capabilities regardless of remote state.
func (h *Handler) initialize(request *jsonrpc.Request) (*schema.InitializeResult, *jsonrpc.Error) {
	initRequest := schema.InitializeRequest{Method: schema.MethodInitialize}
	if len(request.Params) > 0 {
		if err := json.Unmarshal(request.Params, &initRequest.Params); err != nil {
			return nil, jsonrpc.NewInvalidParamsError(fmt.Sprintf("failed to parse %v", err), request.Params)
		}
	}
	// lenient negotiation: a version mismatch is logged but does not block
	// the handshake
	if v := initRequest.Params.ProtocolVersion; v != "" && v != protocolVersion {
		h.logger.Warn("client protocol version differs",
			zap.String("client", v),
			zap.String("server", protocolVersion))
	}
	h.state.MarkActivity()
	return &schema.InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: schema.ServerCapabilities{
			Tools:     &schema.ServerCapabilitiesTools{},
			Resources: &schema.ServerCapabilitiesResources{},
		},
		ServerInfo: schema.Implementation{Name: clientName, Version: clientVersion},
	}, nil
}

func (h *Handler) setResponse(response *jsonrpc.Response, result interface{}) {
	data, err := json.Marshal(result)
	if err != nil {
		response.Error = jsonrpc.NewInternalError(err.Error(), []byte{})
		return
	}
	response.Result = data
}

// OnNotification handles one-way messages; notifications have no response
// channel and must not be forwarded.
func (h *Handler) OnNotification(ctx context.Context, notification *jsonrpc.Notification) {
	switch notification.Method {
	case schema.MethodNotificationInitialized:
		h.state.MarkActivity()
		h.logger.Debug("client initialized")
	case schema.MethodNotificationCancel:
		// in-flight upstream calls are not aborted; their eventual
		// completion is discarded with the pending entry
		h.logger.Debug("cancellation notification ignored")
	default:
		h.logger.Debug("notification ignored", zap.String("method", notification.Method))
	}
}

// NewHandler creates the local protocol adapter, wrapping every supported
// method handler with the error boundary at registration time.
func NewHandler(notifier transport.Notifier, proxy *Proxy, boundary *Boundary, state *State, logger *zap.Logger) *Handler {
	return &Handler{
		Notifier: notifier,
		state:    state,
		logger:   logger,
		handlers: map[string]SafeFunc{
			schema.MethodPing:          boundary.Guard(schema.MethodPing, proxy.Ping),
			schema.MethodToolsList:     boundary.Guard(schema.MethodToolsList, proxy.ListTools),
			schema.MethodToolsCall:     boundary.Guard(schema.MethodToolsCall, proxy.CallTool),
			schema.MethodResourcesList: boundary.Guard(schema.MethodResourcesList, proxy.ListResources),
			schema.MethodResourcesRead: boundary.Guard(schema.MethodResourcesRead, proxy.ReadResource),
		},
	}
}
