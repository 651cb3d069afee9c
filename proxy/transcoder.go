package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/viant/jsonrpc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	clientName    = "cellium-mcp-client"
	clientVersion = "0.1.0"
	userAgent     = clientName + "/" + clientVersion

	ssePathSuffix = "/sse"
	rpcPathSuffix = "/mcp"
)

// envelope is the outbound JSON-RPC request body.
type envelope struct {
	Jsonrpc string      `json:"jsonrpc"`
	Id      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// reply is the JSON-RPC response body returned by the Cellium endpoint.
// Exactly one of Result and Error is present.
type reply struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *replyError     `json:"error"`
}

type replyError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Transcoder builds JSON-RPC envelopes, posts them to the Cellium endpoint
// and parses the response. Any failure pessimistically invalidates the
// connection state so the next call re-validates via a liveness check.
type Transcoder struct {
	endpoint string
	client   *http.Client
	state    *State
	logger   *zap.Logger
}

// Endpoint returns the rewritten dispatch URL.
func (t *Transcoder) Endpoint() string {
	return t.endpoint
}

// Forward posts a single JSON-RPC call and returns the raw result value.
func (t *Transcoder) Forward(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(&envelope{
		Jsonrpc: jsonrpc.Version,
		Id:      uuid.New().String(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", userAgent)

	response, err := t.client.Do(request)
	if err != nil {
		t.state.MarkDisconnected()
		return nil, NewConnectionUnavailable(err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		t.state.MarkDisconnected()
		return nil, NewHTTPStatusError(response.StatusCode)
	}
	data, err := io.ReadAll(response.Body)
	if err != nil {
		t.state.MarkDisconnected()
		return nil, NewMalformedResponseError(err)
	}
	var parsed reply
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.state.MarkDisconnected()
		return nil, NewMalformedResponseError(err)
	}
	if parsed.Error != nil {
		t.state.MarkDisconnected()
		return nil, NewProtocolError(parsed.Error.Code, parsed.Error.Message)
	}
	t.logger.Debug("forwarded call",
		zap.String("method", method),
		zap.Int("resultBytes", len(parsed.Result)))
	return parsed.Result, nil
}

// rewriteEndpoint substitutes a trailing event-stream path with the plain
// JSON-RPC path. This is a documented URL-suffix substitution, not a
// protocol upgrade.
func rewriteEndpoint(endpoint string) string {
	trimmed := strings.TrimSuffix(endpoint, "/")
	if strings.HasSuffix(trimmed, ssePathSuffix) {
		return strings.TrimSuffix(trimmed, ssePathSuffix) + rpcPathSuffix
	}
	return trimmed
}

// NewTranscoder creates a transcoder for the configured endpoint. The bearer
// token is carried by the HTTP client's token source on every request.
func NewTranscoder(ctx context.Context, config *Config, state *State, logger *zap.Logger) *Transcoder {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token, TokenType: "Bearer"})
	return &Transcoder{
		endpoint: rewriteEndpoint(config.URL),
		client:   oauth2.NewClient(ctx, source),
		state:    state,
		logger:   logger,
	}
}
