package bridge

import (
	"time"

	"github.com/izan-l/cellium-mcp-client/proxy"
)

// Options configures the bridge binary. Flags fall back to environment
// variables so the binary can be registered in MCP host configs without
// arguments.
type Options struct {
	URL           string `short:"u" long:"url" description:"cellium api endpoint" env:"CELLIUM_API_URL" required:"true"`
	Token         string `short:"t" long:"token" description:"cellium api token" env:"CELLIUM_API_TOKEN" required:"true"`
	RetryAttempts int    `short:"r" long:"retries" description:"connection retry attempts" env:"CELLIUM_RETRY_ATTEMPTS" default:"3"`
	RetryDelayMs  int    `short:"d" long:"retry-delay" description:"delay between connection retries in milliseconds" env:"CELLIUM_RETRY_DELAY_MS" default:"1000"`
	Debug         bool   `long:"debug" description:"enable debug logging" env:"CELLIUM_DEBUG"`
}

// Config converts parsed options into the immutable proxy configuration.
func (o *Options) Config() *proxy.Config {
	return &proxy.Config{
		URL:           o.URL,
		Token:         o.Token,
		RetryAttempts: o.RetryAttempts,
		RetryDelay:    time.Duration(o.RetryDelayMs) * time.Millisecond,
	}
}
