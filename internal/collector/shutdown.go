package collector

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// SetupSignalHandler creates a context that is cancelled on SIGTERM or SIGINT.
// It also calls the provided shutdown function before cancelling.
func SetupSignalHandler(shutdownFunc func(context.Context)) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		logrus.Infof("[Signal] Received %v, finishing current batch...", sig)

		// Call shutdown function if provided
		if shutdownFunc != nil {
			shutdownFunc(ctx)
		}

		// Cancel context
		cancel()

		// Handle second signal - force exit
		sig = <-sigCh
		logrus.Warnf("[Signal] Received second %v, forcing exit", sig)
		os.Exit(1)
	}()

	return ctx
}
