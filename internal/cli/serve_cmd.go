package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/alexanderramin/timekeep/internal/httpapi"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", ln.Addr())
			return serve(cmd.Context(), a, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", a.Server.ListenAddr, "Listen address")
	return cmd
}

// serve runs the API on ln until ctx is cancelled, retrying pending time
// logs every FlushInterval.
func serve(ctx context.Context, a *App, ln net.Listener) error {
	logger := a.logger()
	srv := &http.Server{
		Handler: httpapi.NewServer(httpapi.Deps{
			Timer:     a.Timer,
			Activity:  a.Activity,
			Aggregate: a.Aggregate,
			Export:    a.Export,
			Clock:     a.Clock,
			Logger:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go flushLoop(ctx, a, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	flushPending(context.Background(), a, logger)
	return nil
}

func flushLoop(ctx context.Context, a *App, logger *slog.Logger) {
	flushPending(ctx, a, logger)
	if a.Server.FlushInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.Server.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flushPending(ctx, a, logger)
		}
	}
}

func flushPending(ctx context.Context, a *App, logger *slog.Logger) {
	res, err := a.Timer.FlushPending(ctx)
	if res.Attempted == 0 && err == nil {
		return
	}
	attrs := []any{
		slog.Int("attempted", res.Attempted),
		slog.Int("flushed", res.Flushed),
		slog.Int("remaining", res.Remaining),
	}
	if err != nil {
		logger.WarnContext(ctx, "pending time logs not flushed", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	logger.InfoContext(ctx, "pending time logs flushed", attrs...)
}
