package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"winrec/internal/platform"
	"winrec/internal/types"
)

const metricsShutdownTimeout = 3 * time.Second

// RunAgent runs the capture loop, the sync scheduler and, when configured,
// the metrics listener until ctx is done. The capture loop never waits on
// the network; a journal failure in either loop stops the agent.
func (a *App) RunAgent(ctx context.Context, windowAPI platform.WindowAPI) error {
	tracker, err := a.NewTracker(windowAPI)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tracker.Run(ctx)
	})
	g.Go(func() error {
		return a.scheduler.Run(ctx)
	})
	if addr := a.config.Metrics.Address; addr != "" {
		g.Go(func() error {
			return a.serveMetrics(ctx, addr)
		})
	}

	err = g.Wait()
	for _, total := range tracker.SessionTotals(5) {
		a.logger.Info("Session total", "category", total.Category, "duration", types.FormatSeconds(total.TotalDuration))
	}
	return err
}

func (a *App) serveMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Metrics listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics listener: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
