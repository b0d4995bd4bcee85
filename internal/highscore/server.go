package highscore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vovakirdan/dude-platformer/internal/config"
	"github.com/vovakirdan/dude-platformer/internal/storage"
)

// Server owns the store and the HTTP listener of a running service.
type Server struct {
	cfg    config.HighScoreConfig
	server *http.Server
	store  *storage.Store
	logger *log.Logger
}

// NewServer opens the database and wires the service. The caller must
// run ListenAndServe or Shutdown to release the store.
func NewServer(cfg config.HighScoreConfig, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	svc := NewService(store, cfg, logger)
	handler := NewHandler(svc, cfg, logger)

	return &Server{
		cfg:   cfg,
		store: store,
		server: &http.Server{
			Addr:              cfg.Listen,
			Handler:           handler.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
			ErrorLog:          logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
		},
		logger: logger,
	}, nil
}

// ListenAndServe serves until SIGINT or SIGTERM, then shuts down.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		s.store.Close()
		return fmt.Errorf("highscore: cannot listen on %s: %w", s.cfg.Listen, err)
	}
	s.logger.Info("starting high-score server",
		"address", ln.Addr().String(),
		"db", s.cfg.DBPath,
		"origins", s.cfg.AllowedOrigins,
	)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	serveErr := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-done:
		s.logger.Info("shutting down...")
	case err := <-serveErr:
		if err != nil {
			s.logger.Error("server error", "error", err)
			s.store.Close()
			return err
		}
	}
	return s.Shutdown()
}

// Shutdown gracefully stops the server and closes the store.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}
