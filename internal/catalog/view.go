package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/mmcdole/marquee/internal/domain"
)

// View is one browsing context: an ordered, id-unique collection kept in sync
// with its Source.
//
// All state is guarded by mu. Fetches run without the lock; their results are
// applied only if the session that issued them is still current, checked under
// the same lock that session changes take.
type View struct {
	id          domain.ViewID
	title       string
	source      Source
	keys        []domain.FilterKey
	historyKind domain.HistoryKind // Non-empty for history-sourced views
	crossref    *CrossRef
	prefetch    *Dispatcher
	notify      func(domain.ViewUpdate)
	logger      *slog.Logger

	ctx    context.Context // View lifetime; parent of background sessions
	cancel context.CancelFunc
	bg     sync.WaitGroup

	sessions Coordinator

	mu       sync.Mutex
	items    []*domain.Movie
	cursor   Cursor
	loading  bool
	hasError bool
	lastErr  error
	criteria domain.Criteria
	unsubs   []func()
	closed   bool
}

// viewOptions configures a new view
type viewOptions struct {
	ID          domain.ViewID
	Title       string
	Source      Source
	Keys        []domain.FilterKey
	HistoryKind domain.HistoryKind
	Criteria    domain.Criteria
	PageSize    int
	CrossRef    *CrossRef
	Prefetch    *Dispatcher
	Notify      func(domain.ViewUpdate)
	Logger      *slog.Logger
}

func newView(parent context.Context, opts viewOptions) *View {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(domain.ViewUpdate) {}
	}
	ctx, cancel := context.WithCancel(parent)
	return &View{
		id:          opts.ID,
		title:       opts.Title,
		source:      opts.Source,
		keys:        slices.Clone(opts.Keys),
		historyKind: opts.HistoryKind,
		crossref:    opts.CrossRef,
		prefetch:    opts.Prefetch,
		notify:      notify,
		logger:      logger.With("view", string(opts.ID)),
		ctx:         ctx,
		cancel:      cancel,
		cursor:      NewCursor(opts.PageSize),
		criteria:    opts.Criteria.Restrict(opts.Keys),
	}
}

// ID returns the view identifier
func (v *View) ID() domain.ViewID { return v.id }

// Title returns the display name
func (v *View) Title() string { return v.title }

// HistoryKind returns the history flag this view is sourced from, or "" for catalog views
func (v *View) HistoryKind() domain.HistoryKind { return v.historyKind }

// Keys returns the filter criteria this view reacts to
func (v *View) Keys() []domain.FilterKey { return slices.Clone(v.keys) }

// LoadNextPage fetches the next page and merges it into the collection.
// It fails with ErrInvalidState while a load is already running and is a
// no-op once the server's total has been reached.
func (v *View) LoadNextPage(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return fmt.Errorf("%w: view %s is closed", domain.ErrInvalidState, v.id)
	}
	if v.loading {
		v.mu.Unlock()
		v.logger.Error("next page requested while loading", "page", v.cursor.Page)
		return fmt.Errorf("%w: view %s is already loading", domain.ErrInvalidState, v.id)
	}
	if v.cursor.Exhausted() {
		v.mu.Unlock()
		return nil
	}
	job := v.beginLocked(ctx)
	v.mu.Unlock()

	v.publish(domain.ViewUpdate{State: job.state})
	return v.run(job)
}

// Reload supersedes any running load. Paginated views start over from the
// first page with an empty collection; history-sourced views resync in place
// so only the real difference is applied.
func (v *View) Reload(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return fmt.Errorf("%w: view %s is closed", domain.ErrInvalidState, v.id)
	}
	v.stopLocked()
	if v.source.Paged() {
		v.clearLocked()
	}
	job := v.beginLocked(ctx)
	v.mu.Unlock()

	v.publish(domain.ViewUpdate{State: job.state})
	return v.run(job)
}

// Reset cancels the running load, empties the collection and adopts criteria.
// Nothing is fetched until the next LoadNextPage.
func (v *View) Reset(criteria domain.Criteria) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.resetLocked(criteria)
	state := v.stateLocked()
	v.mu.Unlock()

	v.publish(domain.ViewUpdate{State: state})
}

// ResyncAsync reloads in the background. Used when the view's source changed
// underneath it.
func (v *View) ResyncAsync() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.stopLocked()
	if v.source.Paged() {
		v.clearLocked()
	}
	job := v.beginLocked(v.ctx)
	v.bg.Add(1)
	v.mu.Unlock()

	v.publish(domain.ViewUpdate{State: job.state})
	v.background(job)
}

// Stop cancels the running load, if any, without starting another.
func (v *View) Stop() {
	v.mu.Lock()
	stopped := v.stopLocked()
	state := v.stateLocked()
	v.mu.Unlock()

	if stopped {
		v.logger.Debug("loading stopped")
		v.publish(domain.ViewUpdate{State: state})
	}
}

// Annotate sets one history flag on the item with the given id, replacing the
// item with a clone. Membership and order are untouched.
func (v *View) Annotate(kind domain.HistoryKind, id string, flagged bool) {
	v.mu.Lock()
	idx := slices.IndexFunc(v.items, func(m *domain.Movie) bool { return MovieIdentity(m) == id })
	if idx < 0 || v.items[idx].Flagged(kind) == flagged {
		v.mu.Unlock()
		return
	}
	v.items[idx] = v.items[idx].WithFlag(kind, flagged)
	state := v.stateLocked()
	v.mu.Unlock()

	v.publish(domain.ViewUpdate{State: state})
}

// Snapshot returns the current observable state
func (v *View) Snapshot() domain.ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

// Wait blocks until background loads and prefetches have finished
func (v *View) Wait() {
	v.bg.Wait()
	if v.prefetch != nil {
		v.prefetch.Wait()
	}
}

// Close tears the view down: the session is cancelled, subscriptions are
// dropped and outstanding prefetches are drained.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.stopLocked()
	unsubs := v.unsubs
	v.unsubs = nil
	v.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	v.cancel()
	v.bg.Wait()
	if v.prefetch != nil {
		v.prefetch.Close()
	}
	v.logger.Debug("view closed")
}

// addSubscription records an unsubscribe func to run on Close
func (v *View) addSubscription(unsub func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		unsub()
		return
	}
	v.unsubs = append(v.unsubs, unsub)
}

// loadJob carries what a fetch needs once the lock is released
type loadJob struct {
	session  *Session
	page     int
	pageSize int
	criteria domain.Criteria
	state    domain.ViewState
}

// beginLocked starts a session and advances the cursor. Caller holds mu.
func (v *View) beginLocked(parent context.Context) loadJob {
	session := v.sessions.Begin(parent)
	if !v.source.Paged() {
		v.cursor.Page = 0
	}
	page := v.cursor.Advance()
	v.loading = true
	v.hasError = false
	v.lastErr = nil
	return loadJob{
		session:  session,
		page:     page,
		pageSize: v.cursor.PageSize,
		criteria: v.criteria,
		state:    v.stateLocked(),
	}
}

// stopLocked cancels the live session and undoes its page advance.
// Caller holds mu.
func (v *View) stopLocked() bool {
	stopped := v.sessions.Stop()
	if v.loading {
		v.cursor.Rollback()
		v.loading = false
	}
	return stopped
}

// resetLocked stops, clears and adopts criteria. Caller holds mu.
func (v *View) resetLocked(criteria domain.Criteria) {
	v.stopLocked()
	v.clearLocked()
	v.criteria = criteria.Restrict(v.keys)
}

// clearLocked empties the collection and resets the cursor. Caller holds mu.
func (v *View) clearLocked() {
	clear(v.items)
	v.items = v.items[:0]
	v.cursor.Reset()
	v.hasError = false
	v.lastErr = nil
}

// background runs job on its own goroutine. The caller has already added it
// to v.bg while holding mu, so Close cannot miss it.
func (v *View) background(job loadJob) {
	go func() {
		defer v.bg.Done()
		if err := v.run(job); err != nil {
			v.logger.Warn("background load failed", "page", job.page, "error", err)
		}
	}()
}

// run performs the fetch for job and applies the result if the session is
// still current. Stale and cancelled results are dropped without error.
func (v *View) run(job loadJob) error {
	start := time.Now()
	session := job.session
	log := v.logger.With("session", session.ID(), "page", job.page)
	log.Debug("loading page", "pageSize", job.pageSize)

	page, err := v.source.Fetch(session.Context(), job.page, job.pageSize, job.criteria)

	v.mu.Lock()
	if !session.Current() {
		v.mu.Unlock()
		log.Debug("discarding superseded result", "error", err)
		return nil
	}
	defer v.sessions.Finish(session)

	if err != nil {
		v.cursor.Rollback()
		v.loading = false
		if isCancellation(err) {
			state := v.stateLocked()
			v.mu.Unlock()
			log.Debug("load cancelled")
			v.publish(domain.ViewUpdate{State: state})
			return nil
		}
		v.hasError = true
		v.lastErr = err
		state := v.stateLocked()
		v.mu.Unlock()

		log.Error("failed to load page", "error", err, "elapsed", time.Since(start))
		v.publish(domain.ViewUpdate{State: state})
		return fmt.Errorf("load %s page %d: %w", v.id, job.page, err)
	}

	// Flags are read under mu: a history change applied after this point
	// finds the items in place and re-annotates them.
	incoming := page.Items
	if v.crossref != nil {
		incoming = v.crossref.Annotate(page.Items)
	}
	merged, diff := Reconcile(v.items, incoming, MovieIdentity, v.source.Mode())
	v.items = merged
	total := page.Total
	if len(page.Items) == 0 {
		// An empty page means the server has nothing further to give
		total = len(v.items)
	}
	v.cursor.Record(total, len(v.items))
	v.loading = false
	state := v.stateLocked()
	v.mu.Unlock()

	log.Info("loaded page",
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"count", state.CurrentCount,
		"total", state.TotalCount,
		"elapsed", time.Since(start),
	)
	v.publish(domain.ViewUpdate{State: state, Added: diff.Added, Removed: diff.Removed})

	if v.prefetch != nil {
		v.prefetch.Dispatch(diff.Added)
	}
	return nil
}

// stateLocked builds a snapshot. Caller holds mu.
func (v *View) stateLocked() domain.ViewState {
	return domain.ViewState{
		ID:           v.id,
		Title:        v.title,
		Items:        slices.Clone(v.items),
		IsLoading:    v.loading,
		HasError:     v.hasError,
		Err:          v.lastErr,
		CurrentCount: v.cursor.LoadedCount,
		TotalCount:   v.cursor.ReportedTotal,
		Page:         v.cursor.Page,
		Criteria:     v.criteria,
	}
}

func (v *View) publish(update domain.ViewUpdate) {
	v.notify(update)
}

func isCancellation(err error) bool {
	return errors.Is(err, domain.ErrCancelled) || errors.Is(err, context.Canceled)
}
