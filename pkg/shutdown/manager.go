// Package shutdown coordinates graceful teardown of the service's
// components.
package shutdown

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shutdown_duration_seconds",
		Help:    "Total time taken to shutdown gracefully",
		Buckets: []float64{1, 5, 10, 15, 20, 30},
	})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutdown_errors_total",
		Help: "Total number of shutdown errors by component",
	}, []string{"component"})
)

// ShutdownFunc shuts down one component
type ShutdownFunc func(context.Context) error

type component struct {
	name string
	fn   ShutdownFunc
}

// Manager runs registered shutdown functions in reverse registration
// order, so a component always outlives the ones registered after it.
// Register the database first and the servers feeding it last.
type Manager struct {
	logger     *zap.Logger
	mu         sync.Mutex
	components []component
	timeout    time.Duration
}

// NewManager creates a shutdown manager. timeout bounds the whole
// teardown, not each component.
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{
		logger:  logger,
		timeout: timeout,
	}
}

// Register adds a shutdown function
func (m *Manager) Register(name string, fn ShutdownFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, component{name: name, fn: fn})
}

// RegisterServer registers anything with a context-aware Shutdown method,
// such as *http.Server
func (m *Manager) RegisterServer(name string, server interface {
	Shutdown(context.Context) error
}) {
	m.Register(name, server.Shutdown)
}

// RegisterCloser registers anything with a Close method, such as a
// connection pool
func (m *Manager) RegisterCloser(name string, closer interface{ Close() }) {
	m.Register(name, func(context.Context) error {
		closer.Close()
		return nil
	})
}

// Shutdown tears everything down in reverse registration order
func (m *Manager) Shutdown() {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.mu.Lock()
	components := make([]component, len(m.components))
	copy(components, m.components)
	m.mu.Unlock()

	m.logger.Info("Starting graceful shutdown",
		zap.Int("components", len(components)),
		zap.Duration("timeout", m.timeout),
	)

	failed := 0
	for i := len(components) - 1; i >= 0; i-- {
		comp := components[i]
		compStart := time.Now()
		if err := comp.fn(ctx); err != nil {
			failed++
			shutdownErrors.WithLabelValues(comp.name).Inc()
			m.logger.Error("Component shutdown failed",
				zap.String("component", comp.name),
				zap.Error(err),
			)
			continue
		}
		m.logger.Debug("Component shut down",
			zap.String("component", comp.name),
			zap.Duration("elapsed", time.Since(compStart)),
		)
	}

	elapsed := time.Since(start)
	shutdownDuration.Observe(elapsed.Seconds())
	if failed > 0 {
		m.logger.Error("Graceful shutdown completed with errors",
			zap.Int("failed", failed),
			zap.Duration("elapsed", elapsed),
		)
		return
	}
	m.logger.Info("Graceful shutdown complete", zap.Duration("elapsed", elapsed))
}
