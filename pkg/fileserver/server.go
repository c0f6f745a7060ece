// Package fileserver serves a directory over plain HTTP on an ephemeral port so a
// network-booting guest can fetch its kernel, initrd and kickstart.
package fileserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"
)

// DefaultAddress binds all interfaces on an OS-chosen port.
const DefaultAddress = "0.0.0.0:0"

type Server struct {
	server   *http.Server
	listener net.Listener
	port     int
	logger   *slog.Logger

	done     chan struct{}
	serveErr error
	once     sync.Once
}

// Serve starts serving dir on DefaultAddress. It returns once the socket is bound.
func Serve(dir string, logger *slog.Logger) (*Server, error) {
	return ServeAddress(DefaultAddress, dir, logger)
}

func ServeAddress(address, dir string, logger *slog.Logger) (*Server, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("root directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root directory %s is not a directory", dir)
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	log := logger.With(slog.String("component", "fileserver"))

	s := &Server{
		server: &http.Server{
			Handler:           requestLogger(log, readOnly(http.FileServer(http.Dir(dir)))),
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		listener: listener,
		port:     listener.Addr().(*net.TCPAddr).Port,
		logger:   log,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("file server stopped", slog.String("error", err.Error()))
			s.serveErr = err
		}
	}()

	s.logger.Info("serving directory",
		slog.String("dir", dir),
		slog.String("address", listener.Addr().String()),
	)

	return s, nil
}

func (s *Server) Port() int {
	return s.port
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx is
// done. Calling it more than once is safe.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		s.logger.Debug("shutting down file server")
		if shutdownErr := s.server.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("file server shutdown: %w", shutdownErr)
			return
		}
		<-s.done
		err = s.serveErr
	})
	return err
}

func readOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		client, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			client = r.RemoteAddr
		}

		logger.Debug("served request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.String("client", client),
		)
	})
}
