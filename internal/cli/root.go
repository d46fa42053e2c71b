package cli

import (
	"context"
	"os"
)

// Execute runs the hiergraph CLI with the process arguments and returns an
// error if any command fails.
//
// Logging goes to stderr at info level; --verbose (-v) switches to debug.
// The logger is attached to the command context and available to every
// command via loggerFromContext.
//
//	func main() {
//	    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	    defer stop()
//	    if err := cli.Execute(ctx); err != nil {
//	        os.Exit(1)
//	    }
//	}
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}
