package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Background runs detached side effects with their own bounded context, so
// they survive the request that scheduled them. Wait drains them at shutdown.
type Background struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

func NewBackground(timeout time.Duration, logger *slog.Logger) *Background {
	if logger == nil {
		logger = slog.Default()
	}
	return &Background{timeout: timeout, logger: logger}
}

func (b *Background) Go(name string, f func(ctx context.Context) error) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		start := time.Now()
		if err := f(ctx); err != nil {
			b.logger.Warn("side effect failed", "task", name, "elapsed", time.Since(start), "error", err)
			return
		}
		b.logger.Info("side effect completed", "task", name, "elapsed", time.Since(start))
	}()
}

// Wait blocks until every scheduled task finished or ctx is done.
func (b *Background) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
