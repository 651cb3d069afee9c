package proxy

import (
	"errors"
	"time"
)

// Config is the validated runtime configuration of the proxy. It is built
// once at startup and never mutated afterwards.
type Config struct {
	// URL is the Cellium API endpoint. A trailing "/sse" suffix is rewritten
	// to "/mcp" before dispatch.
	URL string
	// Token is the bearer token attached to every outbound call.
	Token string
	// RetryAttempts caps the number of connection retries after the initial
	// startup probe fails.
	RetryAttempts int
	// RetryDelay is the fixed delay between connection retries.
	RetryDelay time.Duration
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("endpoint url was empty")
	}
	if c.Token == "" {
		return errors.New("api token was empty")
	}
	if c.RetryAttempts < 0 {
		return errors.New("retry attempts was negative")
	}
	if c.RetryDelay < 0 {
		return errors.New("retry delay was negative")
	}
	return nil
}
