package bridge

import (
	"context"

	"github.com/jessevdk/go-flags"

	"github.com/izan-l/cellium-mcp-client/logging"
)

// Run parses options, builds the service and serves until the local
// transport closes or connection retries are exhausted.
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	logger, err := logging.New(options.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	service, err := New(ctx, options.Config(), logger)
	if err != nil {
		return err
	}
	return service.Run(ctx)
}
