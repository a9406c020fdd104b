package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/logger"
)

type HTTPServer struct {
	s               *http.Server
	shutdownTimeout time.Duration

	logger logger.Logger
}

func NewHTTPServer(ctx context.Context, cfg config.ServerConfig, handler http.Handler, logger logger.Logger) *HTTPServer {
	return &HTTPServer{
		s: &http.Server{
			Handler:           handler,
			Addr:              ":" + cfg.Port,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			BaseContext: func(listener net.Listener) context.Context {
				return ctx
			},
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

func (s *HTTPServer) Addr() string {
	return s.s.Addr
}

func (s *HTTPServer) Start() error {
	return s.s.ListenAndServe()
}

// Shutdown drains in-flight requests. The caller's context is usually
// already cancelled, so draining gets its own deadline.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	if err := s.s.Shutdown(ctx); err != nil {
		return fmt.Errorf("%w: can't shutdown http server", err)
	}
	return nil
}

func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("http server listening on %s", s.s.Addr)
		errCh <- s.Start()
	}()
	select {
	case <-ctx.Done():
		s.logger.Infof("shutting down http server")
		return s.Shutdown(ctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
