package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/emrgen/knuth/internal/jobs"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

// Server is the background worker: it runs the scheduled jobs and serves
// /metrics and /healthz.
type Server struct {
	id       string
	addr     string
	executor *jobs.TaskExecutor
	checks   map[string]HealthCheck
}

// NewServer creates a new server
func NewServer(addr string, executor *jobs.TaskExecutor, checks map[string]HealthCheck) *Server {
	return &Server{
		id:       uuid.NewString(),
		addr:     addr,
		executor: executor,
		checks:   checks,
	}
}

// Start runs the worker until SIGTERM, SIGINT or SIGTSTP.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, unix.SIGTERM, unix.SIGINT, unix.SIGTSTP)
		<-sigs
		// clean Ctrl+C output
		fmt.Println()
		cancel()
	}()

	if err := s.Run(ctx); err != nil {
		logrus.Fatalf("error running worker: %v", err)
	}
}

// Run serves and schedules jobs until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// make sure to wait for the server to stop before exiting
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logrus.Infof("worker %s serving metrics on %s", s.id, l.Addr())
		if err := httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("error serving metrics: %v", err)
		}
		logrus.Infof("metrics server stopped")
	}()

	if err := s.executor.Start(ctx); err != nil {
		_ = httpServer.Close()
		wg.Wait()
		return err
	}
	logrus.Infof("Press Ctrl+C to stop the worker")

	<-ctx.Done()

	s.executor.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error stopping metrics server: %v", err)
	}

	wg.Wait()

	return nil
}

// Handler serves the worker endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.health)

	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	report := map[string]string{"worker": s.id}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
