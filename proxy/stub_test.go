package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// remoteCall captures one inbound request on the remote stub.
type remoteCall struct {
	method        string
	id            string
	path          string
	authorization string
	contentType   string
	userAgent     string
	params        json.RawMessage
}

// remoteStub is a minimal Cellium endpoint for tests. The respond hook, when
// set, decides the response per method; otherwise every call succeeds with
// an empty result.
type remoteStub struct {
	mux     sync.Mutex
	calls   []remoteCall
	respond func(method string, w http.ResponseWriter)
	server  *httptest.Server
}

func (s *remoteStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var request struct {
		Jsonrpc string          `json:"jsonrpc"`
		Id      string          `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params"`
	}
	_ = json.Unmarshal(body, &request)

	s.mux.Lock()
	s.calls = append(s.calls, remoteCall{
		method:        request.Method,
		id:            request.Id,
		path:          r.URL.Path,
		authorization: r.Header.Get("Authorization"),
		contentType:   r.Header.Get("Content-Type"),
		userAgent:     r.Header.Get("User-Agent"),
		params:        request.Params,
	})
	respond := s.respond
	s.mux.Unlock()

	if respond != nil {
		respond(request.Method, w)
		return
	}
	writeResult(w, "{}")
}

func (s *remoteStub) methods() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	methods := make([]string, 0, len(s.calls))
	for _, call := range s.calls {
		methods = append(methods, call.method)
	}
	return methods
}

func (s *remoteStub) callCount() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.calls)
}

func (s *remoteStub) call(i int) remoteCall {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.calls[i]
}

func (s *remoteStub) setRespond(respond func(method string, w http.ResponseWriter)) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.respond = respond
}

func newRemoteStub(t *testing.T) *remoteStub {
	t.Helper()
	stub := &remoteStub{}
	stub.server = httptest.NewServer(stub)
	t.Cleanup(stub.server.Close)
	return stub
}

func writeResult(w http.ResponseWriter, result string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"jsonrpc":"2.0","id":"1","result":%s}`, result)
}

func writeRPCError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"jsonrpc":"2.0","id":"1","error":{"code":%d,"message":%q}}`, code, message)
}
