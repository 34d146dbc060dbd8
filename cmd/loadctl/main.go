// Command loadctl loads CSV objects from blob storage into a warehouse,
// verifies destination row counts against the sources and writes cleaned
// copies of the sources.
//
//	loadctl run --config settings.yaml
//	loadctl verify --mapping config/table_mapping.json
//	loadctl truncate --yes
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"loadctl/internal/errs"

	// register every blob store and warehouse backend with their factories.
	// Settings choose one of each, so support for all of them is built in.
	_ "loadctl/internal/blob/all"
	_ "loadctl/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "loadctl: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration problems to 2 and every other failure to 1.
func exitCode(err error) int {
	if errs.KindOf(err) == errs.ConfigError {
		return 2
	}
	return 1
}
