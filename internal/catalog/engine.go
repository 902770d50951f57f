package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/mmcdole/marquee/internal/domain"
)

const defaultPageSize = 20

// Deps are the collaborators an Engine is built from.
type Deps struct {
	Client          domain.CatalogClient
	History         domain.HistoryStore
	Prefetcher      domain.AssetPrefetcher // Optional
	Filters         domain.FilterSource    // Optional
	Logger          *slog.Logger
	PageSize        int
	PrefetchWorkers int
}

// ViewDef describes a view to register. Catalog views set Sort; history
// views set HistoryKind.
type ViewDef struct {
	ID          domain.ViewID
	Title       string
	Sort        domain.SortOrder
	HistoryKind domain.HistoryKind
	Keys        []domain.FilterKey
}

// DefaultViews are the tabs of the browser in display order.
func DefaultViews() []ViewDef {
	return []ViewDef{
		{ID: domain.ViewRecent, Title: "Recent", Sort: domain.SortDateAdded, Keys: domain.AllFilterKeys},
		{ID: domain.ViewGreatest, Title: "Greatest", Sort: domain.SortRating, Keys: domain.AllFilterKeys},
		{ID: domain.ViewPopular, Title: "Popular", Sort: domain.SortDownloadCount, Keys: domain.AllFilterKeys},
		{ID: domain.ViewFavorites, Title: "Favorites", HistoryKind: domain.HistoryFavorite},
		{ID: domain.ViewSeen, Title: "Seen", HistoryKind: domain.HistoryWatched},
	}
}

type observer struct {
	id  uint64
	obs domain.ViewObserver
}

// Engine owns the views and routes filter and history changes to them.
type Engine struct {
	deps     Deps
	logger   *slog.Logger
	crossref *CrossRef

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	views     map[domain.ViewID]*View
	order     []domain.ViewID
	observers []observer
	nextObs   uint64
	unsubs    []func()
	closed    bool
}

// New creates an engine. Call Open before use.
func New(deps Deps) (*Engine, error) {
	if deps.Client == nil {
		return nil, errors.New("catalog client is required")
	}
	if deps.History == nil {
		return nil, errors.New("history store is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.PageSize <= 0 {
		deps.PageSize = defaultPageSize
	}
	return &Engine{
		deps:     deps,
		logger:   deps.Logger,
		crossref: NewCrossRef(deps.History, deps.Logger),
		views:    make(map[domain.ViewID]*View),
	}, nil
}

// Open primes the history cross-reference, subscribes to history changes and
// registers the default views. ctx bounds the lifetime of background work.
func (e *Engine) Open(ctx context.Context) error {
	return e.OpenWith(ctx, DefaultViews())
}

// OpenWith is Open with an explicit set of views.
func (e *Engine) OpenWith(ctx context.Context, defs []ViewDef) error {
	if err := e.crossref.Load(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	if e.ctx != nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: engine already open", domain.ErrInvalidState)
	}
	e.ctx, e.cancel = context.WithCancel(context.WithoutCancel(ctx))
	e.mu.Unlock()

	for _, kind := range trackedKinds {
		unsub := e.deps.History.Subscribe(kind, e.onHistoryChange)
		e.mu.Lock()
		e.unsubs = append(e.unsubs, unsub)
		e.mu.Unlock()
	}

	for _, def := range defs {
		if _, err := e.Register(def); err != nil {
			return err
		}
	}
	e.logger.Info("catalog engine opened", "views", len(defs), "pageSize", e.deps.PageSize)
	return nil
}

// Register adds a view. It fails if the id is taken or the engine is closed.
func (e *Engine) Register(def ViewDef) (*View, error) {
	var source Source
	var keys []domain.FilterKey
	if def.HistoryKind != "" {
		source = NewHistorySource(e.deps.History, def.HistoryKind, e.logger)
	} else {
		source = NewCatalogSource(e.deps.Client, def.Sort)
		keys = def.Keys
	}

	var criteria domain.Criteria
	if e.deps.Filters != nil {
		criteria = e.deps.Filters.Current()
	}

	e.mu.Lock()
	if e.closed || e.ctx == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: engine is not open", domain.ErrInvalidState)
	}
	if _, ok := e.views[def.ID]; ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: view %s already registered", domain.ErrInvalidState, def.ID)
	}
	title := def.Title
	if title == "" {
		title = string(def.ID)
	}
	v := newView(e.ctx, viewOptions{
		ID:          def.ID,
		Title:       title,
		Source:      source,
		Keys:        keys,
		HistoryKind: def.HistoryKind,
		Criteria:    criteria,
		PageSize:    e.deps.PageSize,
		CrossRef:    e.crossref,
		Prefetch:    NewDispatcher(e.ctx, e.deps.Prefetcher, e.deps.PrefetchWorkers, e.logger.With("view", string(def.ID))),
		Notify:      e.broadcast,
		Logger:      e.logger,
	})
	e.views[def.ID] = v
	e.order = append(e.order, def.ID)
	e.mu.Unlock()

	v.watchFilters(e.deps.Filters)
	e.logger.Debug("view registered", "view", string(def.ID), "keys", len(keys))
	return v, nil
}

// LoadNextPage loads the next page of the view
func (e *Engine) LoadNextPage(ctx context.Context, id domain.ViewID) error {
	v, err := e.view(id)
	if err != nil {
		return err
	}
	return v.LoadNextPage(ctx)
}

// Reload restarts the view
func (e *Engine) Reload(ctx context.Context, id domain.ViewID) error {
	v, err := e.view(id)
	if err != nil {
		return err
	}
	return v.Reload(ctx)
}

// Stop cancels the view's running load
func (e *Engine) Stop(id domain.ViewID) error {
	v, err := e.view(id)
	if err != nil {
		return err
	}
	v.Stop()
	return nil
}

// State returns a snapshot of the view
func (e *Engine) State(id domain.ViewID) (domain.ViewState, error) {
	v, err := e.view(id)
	if err != nil {
		return domain.ViewState{}, err
	}
	return v.Snapshot(), nil
}

// View returns the registered view with the given id
func (e *Engine) View(id domain.ViewID) (*View, error) {
	return e.view(id)
}

// Views returns the registered view ids in registration order
func (e *Engine) Views() []domain.ViewID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.order)
}

// Observe registers obs for every view update. The returned func unregisters it.
func (e *Engine) Observe(obs domain.ViewObserver) func() {
	e.mu.Lock()
	e.nextObs++
	id := e.nextObs
	e.observers = append(e.observers, observer{id: id, obs: obs})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.observers = slices.DeleteFunc(e.observers, func(o observer) bool { return o.id == id })
		})
	}
}

// Discard closes a view and forgets it
func (e *Engine) Discard(id domain.ViewID) error {
	e.mu.Lock()
	v, ok := e.views[id]
	if ok {
		delete(e.views, id)
		e.order = slices.DeleteFunc(e.order, func(other domain.ViewID) bool { return other == id })
	}
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: view %s", domain.ErrItemNotFound, id)
	}
	v.Close()
	e.logger.Debug("view discarded", "view", string(id))
	return nil
}

// Wait blocks until every view's background work has finished
func (e *Engine) Wait() {
	for _, v := range e.snapshotViews() {
		v.Wait()
	}
}

// Close tears down every view and drops the history subscriptions.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	unsubs := e.unsubs
	e.unsubs = nil
	views := make([]*View, 0, len(e.order))
	for _, id := range e.order {
		views = append(views, e.views[id])
	}
	cancel := e.cancel
	e.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	for _, v := range views {
		v.Close()
	}
	if cancel != nil {
		cancel()
	}
	e.logger.Info("catalog engine closed")
}

func (e *Engine) view(id domain.ViewID) (*View, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: view %s", domain.ErrItemNotFound, id)
	}
	return v, nil
}

func (e *Engine) snapshotViews() []*View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	views := make([]*View, 0, len(e.order))
	for _, id := range e.order {
		views = append(views, e.views[id])
	}
	return views
}

func (e *Engine) onHistoryChange(change domain.HistoryChange) {
	e.logger.Debug("history changed",
		"kind", string(change.Kind),
		"id", change.ID,
		"flagged", change.Flagged,
	)
	e.crossref.Handle(change, e.snapshotViews())
}

func (e *Engine) broadcast(update domain.ViewUpdate) {
	e.mu.RLock()
	observers := slices.Clone(e.observers)
	e.mu.RUnlock()

	for _, o := range observers {
		o.obs.OnViewUpdate(update)
	}
}
