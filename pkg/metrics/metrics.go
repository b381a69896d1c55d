// Package metrics exposes session counters via Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Set bundles the session's collectors.
type Set struct {
	ReconnectAttempts prometheus.Counter
	SnapshotsApplied  prometheus.Counter
	HeartbeatsSent    prometheus.Counter
	MessagesReceived  prometheus.Counter
	// Commands counts HTTP command submissions by command name and outcome.
	Commands *prometheus.CounterVec
}

func newSet() *Set {
	return &Set{
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leitstand_reconnect_attempts_total",
			Help: "Reconnect attempts after a lost session connection",
		}),
		SnapshotsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leitstand_snapshots_applied_total",
			Help: "Authoritative snapshots received and merged",
		}),
		HeartbeatsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leitstand_heartbeats_sent_total",
			Help: "Application-level heartbeats sent",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leitstand_messages_received_total",
			Help: "Free-text messages received over the session channel",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leitstand_commands_total",
			Help: "Command submissions by command and outcome",
		}, []string{"command", "outcome"}),
	}
}

// NewSet creates the collectors and registers them. A nil registerer uses
// the default one; collectors registered earlier are reused.
func NewSet(reg prometheus.Registerer) (*Set, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := newSet()
	collectors := []prometheus.Collector{
		s.ReconnectAttempts, s.SnapshotsApplied, s.HeartbeatsSent,
		s.MessagesReceived, s.Commands,
	}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			switch i {
			case 0:
				s.ReconnectAttempts = are.ExistingCollector.(prometheus.Counter)
			case 1:
				s.SnapshotsApplied = are.ExistingCollector.(prometheus.Counter)
			case 2:
				s.HeartbeatsSent = are.ExistingCollector.(prometheus.Counter)
			case 3:
				s.MessagesReceived = are.ExistingCollector.(prometheus.Counter)
			case 4:
				s.Commands = are.ExistingCollector.(*prometheus.CounterVec)
			}
		}
	}
	return s, nil
}

// NewNop returns unregistered collectors, for tests and for sessions that
// run without a metrics listener.
func NewNop() *Set { return newSet() }

// CommandResult records one command submission outcome.
func (s *Set) CommandResult(command string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.Commands.WithLabelValues(command, outcome).Inc()
}

// Serve exposes /metrics on addr until ctx is canceled. A dedicated mux
// keeps the listener clear of other handlers.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
