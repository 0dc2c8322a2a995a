package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// shutdownContext derives a context that is canceled by SIGINT or SIGTERM so
// in-flight transfers can drain. A second interrupt skips the drain and exits
// with status 1.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(parent)

	interrupts := make(chan os.Signal, 2)
	signal.Notify(interrupts, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(interrupts)

		for seen := 0; ; {
			select {
			case sig := <-interrupts:
				seen++
				if seen > 1 {
					logger.Warn("interrupted again, exiting now",
						slog.String("signal", sig.String()),
					)
					os.Exit(1)
				}
				logger.Info("interrupted, draining transfers; interrupt again to force quit",
					slog.String("signal", sig.String()),
				)
				cancel()
			case <-parent.Done():
				return
			}
		}
	}()

	return ctx
}
