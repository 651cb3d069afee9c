// Package bridge wires the Cellium MCP bridge together: it runs a local
// stdio MCP server and proxies every supported call to a remote Cellium
// JSON-RPC endpoint over HTTP. The local side always receives a schema
// valid response, even while the remote backend is down.
package bridge
