package terminal

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/antibyte/zen/pkg/auth"
	"github.com/antibyte/zen/pkg/logger"
)

// NewMux routes /ws to h and exposes token validation. With requireToken
// the websocket only accepts clients presenting a valid JWT.
func NewMux(h *Handler, requireToken bool) *http.ServeMux {
	var ws http.Handler = h
	if requireToken {
		ws = auth.RequireToken(h)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.HandleFunc("/api/token/validate", auth.HandleTokenValidation)
	return mux
}

// ListenAndServe serves handler on addr until ctx is cancelled. A
// non-nil tlsConfig makes it serve HTTPS.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, tlsConfig *tls.Config) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if tlsConfig != nil {
			logger.Info(logger.AreaServer, "Listening on %s (TLS)", addr)
			errCh <- srv.ListenAndServeTLS("", "")
			return
		}
		logger.Info(logger.AreaServer, "Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info(logger.AreaServer, "Shutting down server on %s", addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
