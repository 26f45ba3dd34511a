package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	httptransport "github.com/example/crew-scheduler/internal/http"
	"github.com/example/crew-scheduler/internal/metrics"
)

func newID() string {
	return uuid.NewString()
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return a.serve(ctx)
			})
		},
	}
}

// handler assembles the router with request logging, status metrics and,
// when configured, per-client rate limiting. The returned stop func releases
// the limiter's cleanup goroutine.
func (a *app) handler() (http.Handler, func()) {
	mws := []func(http.Handler) http.Handler{
		httptransport.RequestLogger(a.logger, a.metrics),
	}

	stop := func() {}
	if a.cfg.HTTP.RateLimit > 0 {
		limiterCfg := httptransport.DefaultRateLimiterConfig()
		limiterCfg.Rate = rate.Limit(a.cfg.HTTP.RateLimit)
		limiterCfg.Burst = a.cfg.HTTP.RateBurst
		limiter := httptransport.NewRateLimiter(limiterCfg, a.logger)
		mws = append(mws, limiter.Middleware())
		stop = limiter.Stop
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Assignments: httptransport.NewAssignmentHandler(a.queries, a.guard, a.assignments, a.logger),
		Members:     httptransport.NewMemberHandler(a.queries, a.availability, a.logger),
		Activities:  httptransport.NewActivityHandler(a.activities, a.logger),
		Audit:       httptransport.NewAuditHandler(a.audit, a.logger),
		Metrics:     metrics.Handler(a.registry),
		Logger:      a.logger,
		Middleware:  mws,
	})
	return router, stop
}

func (a *app) serve(ctx context.Context) error {
	handler, stopLimiter := a.handler()
	defer stopLimiter()

	httpCfg := a.cfg.HTTP
	server := &http.Server{
		Addr:              httpCfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: httpCfg.ReadTimeout,
		ReadTimeout:       httpCfg.ReadTimeout,
		WriteTimeout:      httpCfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("scheduler API listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down", "timeout", httpCfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
