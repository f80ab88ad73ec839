package hostsim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"streamdash/internal/channel"
	"streamdash/pkg/logging"
)

// WebSocketPath is where the simulator accepts dashboards.
const WebSocketPath = "/ws"

// Handler returns an http.Handler that starts a simulated session for
// every dashboard connecting from origin.
func Handler(ctx context.Context, origin string, opts Options) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(WebSocketPath, channel.WebSocketHandler(origin, func(t channel.Transport) {
		h := New(t, origin, opts)
		h.Start()
		go func() {
			defer h.Stop()
			defer t.Close()
			if err := h.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn("HostSim", "Session ended: %v", err)
			}
			logging.Info("HostSim", "Session closed")
		}()
	}))
	return mux
}

// ListenAndServe runs the simulator on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr, origin string, opts Options) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(ctx, origin, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("HostSim", "Listening on ws://%s%s (origin %s)", addr, WebSocketPath, origin)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("host simulator: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
