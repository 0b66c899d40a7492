// Command flowdesk-mock serves a fake workflow GraphQL endpoint built from a
// fixture file, for running flowdesk without a workflow server.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jask/flowdesk/internal/fixtures"
	"github.com/jask/flowdesk/internal/logging"
	"github.com/jask/flowdesk/internal/mockserver"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8765", "listen address")
	fixturePath := flag.String("fixtures", "", "fixture file (default: built-in demo workflow)")
	mode := flag.String("mode", string(mockserver.ModeSucceed), "answer mode: succeed, reject, error or http")
	delay := flag.Duration("delay", 0, "delay before answering each mutation")
	flag.Parse()

	logger, closer, err := logging.New("flowdesk-mock", logging.ProfileRuntime, logging.Config{Level: "info", File: logging.Stderr})
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closer.Close()

	fx := fixtures.Default()
	if *fixturePath != "" {
		if fx, err = fixtures.Load(*fixturePath); err != nil {
			log.Fatalf("fixtures: %v", err)
		}
	}
	if !mockserver.ValidMode(mockserver.Mode(*mode)) {
		log.Fatalf("unknown mode %q", *mode)
	}

	srv := mockserver.New(fx.Definitions, mockserver.Mode(*mode), *delay, logging.Component(logger, "mock"))
	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", *addr).Int("mutations", len(fx.Definitions)).Str("mode", *mode).Msg("mock server listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("serve: %v", err)
	}
}
