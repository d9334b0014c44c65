package shutdown

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// BackgroundWorker runs one long-lived goroutine with a cancellable
// context and waits for it on shutdown
type BackgroundWorker struct {
	name   string
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBackgroundWorker creates a worker scoped under parent
func NewBackgroundWorker(parent context.Context, name string, logger *zap.Logger) *BackgroundWorker {
	ctx, cancel := context.WithCancel(parent)
	return &BackgroundWorker{
		name:   name,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the work function. It must return when its context is
// cancelled.
func (w *BackgroundWorker) Start(work func(ctx context.Context)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.logger.Info("Background worker started", zap.String("worker", w.name))
		work(w.ctx)
		w.logger.Info("Background worker stopped", zap.String("worker", w.name))
	}()
}

// Shutdown cancels the worker and waits for it, bounded by ctx
func (w *BackgroundWorker) Shutdown(ctx context.Context) error {
	w.cancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("Background worker shutdown timeout", zap.String("worker", w.name))
		return ctx.Err()
	}
}
