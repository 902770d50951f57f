package catalog

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/marquee/internal/domain"
)

const defaultPrefetchWorkers = 4

// Dispatcher fires best-effort asset prefetches for newly added items.
// Dispatch never blocks the caller; failures are logged and dropped.
type Dispatcher struct {
	prefetcher domain.AssetPrefetcher
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	// Feeds hold gate for reading while they call group.Go; Wait holds it
	// for writing so no Go overlaps group.Wait.
	gate sync.RWMutex

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher bound to parent. A nil prefetcher
// turns Dispatch into a no-op.
func NewDispatcher(parent context.Context, prefetcher domain.AssetPrefetcher, workers int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = defaultPrefetchWorkers
	}
	ctx, cancel := context.WithCancel(parent)
	d := &Dispatcher{
		prefetcher: prefetcher,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	d.group.SetLimit(workers)
	return d
}

// Dispatch schedules one prefetch per item. Items dispatched while Wait is
// running are fed once it returns.
func (d *Dispatcher) Dispatch(items []*domain.Movie) {
	if d.prefetcher == nil || len(items) == 0 {
		return
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return
	}

	if d.gate.TryRLock() {
		go d.feed(items)
		return
	}
	go func() {
		d.gate.RLock()
		d.feed(items)
	}()
}

// feed hands items to the worker group. The caller holds gate for reading.
func (d *Dispatcher) feed(items []*domain.Movie) {
	defer d.gate.RUnlock()
	for _, item := range items {
		if d.ctx.Err() != nil {
			return
		}
		// Go blocks while all workers are busy
		d.group.Go(func() error {
			d.fetch(item)
			return nil
		})
	}
}

func (d *Dispatcher) fetch(item *domain.Movie) {
	if d.ctx.Err() != nil {
		return
	}
	if err := d.prefetcher.Prefetch(d.ctx, item); err != nil {
		if d.ctx.Err() != nil {
			return
		}
		d.logger.Warn("asset prefetch failed", "id", item.ID, "error", err)
		return
	}
	d.logger.Debug("asset prefetched", "id", item.ID)
}

// Wait blocks until every prefetch dispatched before the call has finished
func (d *Dispatcher) Wait() {
	d.gate.Lock()
	defer d.gate.Unlock()
	_ = d.group.Wait()
}

// Close cancels outstanding prefetches and waits for them to return.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.Wait()
}
