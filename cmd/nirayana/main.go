// Command nirayana computes sidereal nakshatra, tithi and raasi positions of
// the Moon and Sun, sweeps their joint states and traces their orbits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "nirayana:", err)
		os.Exit(1)
	}
}
