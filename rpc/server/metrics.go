package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
	"io"
	"net"
	"net/http"
	"time"
)

// serverMetrics holds the exported counters of one server. Every server has
// its own set so several servers can live in one process (tests).
type serverMetrics struct {
	set *metrics.Set

	accepted *metrics.Counter
	matches  *metrics.Counter
	relayed  *metrics.Counter
	rejected *metrics.Counter
	fatal    *metrics.Counter

	httpServer *http.Server
}

func newServerMetrics(s *Server) *serverMetrics {
	set := metrics.NewSet()
	m := &serverMetrics{
		set:      set,
		accepted: set.NewCounter("dtetris_sessions_accepted_total"),
		matches:  set.NewCounter("dtetris_matches_formed_total"),
		relayed:  set.NewCounter("dtetris_snapshots_relayed_total"),
		rejected: set.NewCounter("dtetris_frames_rejected_total"),
		fatal:    set.NewCounter("dtetris_sessions_failed_total"),
	}

	set.NewGauge("dtetris_sessions_active", func() float64 {
		return float64(s.sessions.Size())
	})
	set.NewGauge("dtetris_sessions_waiting", func() float64 {
		return float64(s.matchmaker.Waiting())
	})
	set.NewGauge("dtetris_games_active", func() float64 {
		return float64(s.matchmaker.Games())
	})
	set.NewGauge("dtetris_reactor_pending_handlers", func() float64 {
		return float64(s.reactor.Pending())
	})
	set.NewGauge("dtetris_executor_workers", func() float64 {
		return float64(s.executor.Size())
	})

	// bridge the reactor's internal timer
	registry := s.reactor.Metrics()
	set.NewGauge("dtetris_handler_latency_p99_seconds", func() float64 {
		if t, ok := registry.Get("handler.latency").(gometrics.Timer); ok {
			return t.Percentile(0.99) / float64(time.Second)
		}
		return 0
	})
	set.NewGauge("dtetris_handler_faults_total", func() float64 {
		if c, ok := registry.Get("handler.faults").(gometrics.Counter); ok {
			return float64(c.Count())
		}
		return 0
	})
	return m
}

// WritePrometheus writes the server metrics and the process metrics
func (m *serverMetrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
	metrics.WriteProcessMetrics(w)
}

// start serves /metrics on endpoint, an empty endpoint disables it
func (m *serverMetrics) start(endpoint string) error {
	if endpoint == "" {
		return nil
	}

	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		return fmt.Errorf("failed to listen on metrics endpoint %s: %w", endpoint, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		m.WritePrometheus(w)
	})
	m.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()
	Logger.Infof("serving metrics on http://%s/metrics", listener.Addr())
	return nil
}

func (m *serverMetrics) stop() {
	if m.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = m.httpServer.Shutdown(ctx)
}
