package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/events"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func movie(id string) *domain.Movie {
	return &domain.Movie{ID: id, Title: "Movie " + id}
}

func movies(prefix string, from, to int) []*domain.Movie {
	out := make([]*domain.Movie, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, movie(fmt.Sprintf("%s%d", prefix, i)))
	}
	return out
}

func ids(items []*domain.Movie) []string {
	out := make([]string, len(items))
	for i, m := range items {
		out[i] = m.ID
	}
	return out
}

// catalogServer serves a fixed list of movies page by page.
type catalogServer struct {
	mu       sync.Mutex
	items    []*domain.Movie
	requests []domain.PageRequest
	err      error
}

func (c *catalogServer) FetchPage(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return domain.Page{}, c.err
	}
	start := min((req.Page-1)*req.PageSize, len(c.items))
	end := min(start+req.PageSize, len(c.items))
	return domain.Page{Items: slices.Clone(c.items[start:end]), Total: len(c.items)}, nil
}

func (c *catalogServer) calls() []domain.PageRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.requests)
}

// pendingFetch is one blocked FetchPage call waiting for the test to answer.
type pendingFetch struct {
	req   domain.PageRequest
	ctx   context.Context
	reply chan fetchResult
}

type fetchResult struct {
	page domain.Page
	err  error
}

func (p *pendingFetch) respond(page domain.Page, err error) {
	p.reply <- fetchResult{page: page, err: err}
}

// scriptedClient blocks every fetch until the test responds, ignoring
// cancellation so stale results can arrive late.
type scriptedClient struct {
	calls chan *pendingFetch
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{calls: make(chan *pendingFetch, 16)}
}

func (c *scriptedClient) FetchPage(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	p := &pendingFetch{req: req, ctx: ctx, reply: make(chan fetchResult, 1)}
	c.calls <- p
	r := <-p.reply
	return r.page, r.err
}

func (c *scriptedClient) next(t *testing.T) *pendingFetch {
	t.Helper()
	select {
	case p := <-c.calls:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fetch")
		return nil
	}
}

// memHistory is an in-memory history store.
type memHistory struct {
	mu      sync.Mutex
	records map[domain.HistoryKind][]*domain.Movie
	orphans map[domain.HistoryKind][]string
	bus     *events.Bus[domain.HistoryKind, domain.HistoryChange]
}

func newMemHistory() *memHistory {
	return &memHistory{
		records: make(map[domain.HistoryKind][]*domain.Movie),
		orphans: make(map[domain.HistoryKind][]string),
		bus:     events.NewBus[domain.HistoryKind, domain.HistoryChange](),
	}
}

func (h *memHistory) IDs(_ context.Context, kind domain.HistoryKind) (map[string]struct{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]struct{})
	for _, m := range h.records[kind] {
		out[m.ID] = struct{}{}
	}
	return out, nil
}

func (h *memHistory) Items(_ context.Context, kind domain.HistoryKind) ([]*domain.Movie, []string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	items := make([]*domain.Movie, 0, len(h.records[kind]))
	for _, m := range h.records[kind] {
		items = append(items, m.WithFlag(kind, true))
	}
	return items, slices.Clone(h.orphans[kind]), nil
}

func (h *memHistory) Subscribe(kind domain.HistoryKind, fn func(domain.HistoryChange)) func() {
	return h.bus.Subscribe(kind, fn)
}

// set flags or unflags m and publishes the change like the real service.
func (h *memHistory) set(kind domain.HistoryKind, m *domain.Movie, flagged bool) {
	h.mu.Lock()
	h.records[kind] = slices.DeleteFunc(h.records[kind], func(o *domain.Movie) bool { return o.ID == m.ID })
	if flagged {
		h.records[kind] = append(h.records[kind], m)
	}
	h.mu.Unlock()

	change := domain.HistoryChange{Kind: kind, ID: m.ID, Flagged: flagged}
	if flagged {
		change.Movie = m
	}
	h.bus.Publish(kind, change)
}

// memFilters is a filter source backed by the event bus.
type memFilters struct {
	mu      sync.Mutex
	current domain.Criteria
	bus     *events.Bus[domain.FilterKey, domain.FilterChange]
}

func newMemFilters() *memFilters {
	return &memFilters{bus: events.NewBus[domain.FilterKey, domain.FilterChange]()}
}

func (f *memFilters) Current() domain.Criteria {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *memFilters) Subscribe(key domain.FilterKey, fn func(domain.FilterChange)) func() {
	return f.bus.Subscribe(key, fn)
}

func (f *memFilters) set(key domain.FilterKey, next domain.Criteria) {
	f.mu.Lock()
	old := f.current
	f.current = f.current.With(key, next)
	change := domain.FilterChange{Key: key, Old: old, New: f.current}
	f.mu.Unlock()
	f.bus.Publish(key, change)
}

// recordingPrefetcher counts prefetch calls per id.
type recordingPrefetcher struct {
	mu    sync.Mutex
	seen  []string
	err   error
	block chan struct{}
}

func (p *recordingPrefetcher) Prefetch(ctx context.Context, m *domain.Movie) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, m.ID)
	return p.err
}

func (p *recordingPrefetcher) fetched() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := slices.Clone(p.seen)
	slices.Sort(out)
	return out
}

// updateLog collects view updates.
type updateLog struct {
	mu      sync.Mutex
	updates []domain.ViewUpdate
}

func (l *updateLog) OnViewUpdate(u domain.ViewUpdate) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, u)
}

func (l *updateLog) all() []domain.ViewUpdate {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.updates)
}

// removedIDs returns every id reported as removed, in order.
func (l *updateLog) removedIDs() []string {
	var out []string
	for _, u := range l.all() {
		out = append(out, ids(u.Removed)...)
	}
	return out
}

type viewFixture struct {
	view     *View
	crossref *CrossRef
	updates  *updateLog
}

func newCatalogView(t *testing.T, client domain.CatalogClient, pageSize int, prefetcher domain.AssetPrefetcher) viewFixture {
	t.Helper()
	history := newMemHistory()
	crossref := NewCrossRef(history, quietLogger())
	require.NoError(t, crossref.Load(context.Background()))

	updates := &updateLog{}
	v := newView(context.Background(), viewOptions{
		ID:       domain.ViewRecent,
		Title:    "Recent",
		Source:   NewCatalogSource(client, domain.SortDateAdded),
		Keys:     domain.AllFilterKeys,
		PageSize: pageSize,
		CrossRef: crossref,
		Prefetch: NewDispatcher(context.Background(), prefetcher, 2, quietLogger()),
		Notify:   updates.OnViewUpdate,
		Logger:   quietLogger(),
	})
	t.Cleanup(v.Close)
	return viewFixture{view: v, crossref: crossref, updates: updates}
}

func newHistoryView(t *testing.T, history *memHistory, kind domain.HistoryKind) viewFixture {
	t.Helper()
	crossref := NewCrossRef(history, quietLogger())
	require.NoError(t, crossref.Load(context.Background()))

	updates := &updateLog{}
	v := newView(context.Background(), viewOptions{
		ID:          domain.ViewFavorites,
		Title:       "Favorites",
		Source:      NewHistorySource(history, kind, quietLogger()),
		HistoryKind: kind,
		PageSize:    20,
		CrossRef:    crossref,
		Notify:      updates.OnViewUpdate,
		Logger:      quietLogger(),
	})
	t.Cleanup(v.Close)
	return viewFixture{view: v, crossref: crossref, updates: updates}
}

// async runs fn on a goroutine and returns its error on a channel.
func async(fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	return done
}

func await(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for load")
		return nil
	}
}

// waitFor polls until cond holds.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}
