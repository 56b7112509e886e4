// Package dispatcher fans the task queue out over a fixed worker pool.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/simmerhq/simmer/internal/worker"
)

// Dispatcher runs a pool of identical workers against one queue.
type Dispatcher struct {
	worker *worker.Worker
	size   int
	logger *zap.Logger
}

// New builds a Dispatcher with the given pool size.
func New(w *worker.Worker, size int, logger *zap.Logger) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{worker: w, size: size, logger: logger}
}

// Run starts the pool and blocks until every worker has returned, which
// happens when the context ends or the queue closes.
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("starting workers", zap.Int("count", d.size))
	var wg sync.WaitGroup
	wg.Add(d.size)
	for i := 0; i < d.size; i++ {
		go func() {
			defer wg.Done()
			d.worker.Run(ctx)
		}()
	}
	wg.Wait()
	d.logger.Info("workers stopped")
}
