package tui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/marquee/internal/domain"
)

type fakeEngine struct {
	mu      sync.Mutex
	views   []domain.ViewID
	states  map[domain.ViewID]domain.ViewState
	loads   []domain.ViewID
	reloads []domain.ViewID
	stops   []domain.ViewID
	err     error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		views: []domain.ViewID{domain.ViewRecent, domain.ViewFavorites},
		states: map[domain.ViewID]domain.ViewState{
			domain.ViewRecent:    {ID: domain.ViewRecent, Title: "Recent"},
			domain.ViewFavorites: {ID: domain.ViewFavorites, Title: "Favorites"},
		},
	}
}

func (e *fakeEngine) Views() []domain.ViewID { return e.views }

func (e *fakeEngine) State(id domain.ViewID) (domain.ViewState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.states[id]
	if !ok {
		return domain.ViewState{}, domain.ErrItemNotFound
	}
	return s, nil
}

func (e *fakeEngine) LoadNextPage(_ context.Context, id domain.ViewID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads = append(e.loads, id)
	return e.err
}

func (e *fakeEngine) Reload(_ context.Context, id domain.ViewID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reloads = append(e.reloads, id)
	return e.err
}

func (e *fakeEngine) Stop(id domain.ViewID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stops = append(e.stops, id)
	return nil
}

type fakeHistory struct {
	favorites []string
	watched   []string
}

func (h *fakeHistory) ToggleFavorite(_ context.Context, m *domain.Movie) (bool, error) {
	h.favorites = append(h.favorites, m.ID)
	return true, nil
}

func (h *fakeHistory) ToggleWatched(_ context.Context, m *domain.Movie) (bool, error) {
	h.watched = append(h.watched, m.ID)
	return false, nil
}

type fakeFilters struct {
	current domain.Criteria
	genres  int
	langs   int
}

func (f *fakeFilters) Current() domain.Criteria { return f.current }

func (f *fakeFilters) CycleGenre(step int) string {
	f.genres += step
	f.current.Genre = "Horror"
	return f.current.Genre
}

func (f *fakeFilters) CycleLanguage(step int) string {
	f.langs += step
	f.current.Language = "fr"
	return f.current.Language
}

func (f *fakeFilters) SetMinRating(r float64) { f.current.MinRating = r }

func movieList(n int) []*domain.Movie {
	out := make([]*domain.Movie, n)
	for i := range out {
		out[i] = &domain.Movie{ID: fmt.Sprint(i + 1), Title: fmt.Sprintf("Movie %d", i+1)}
	}
	return out
}

type harness struct {
	engine  *fakeEngine
	history *fakeHistory
	filters *fakeFilters
	model   Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{engine: newFakeEngine(), history: &fakeHistory{}, filters: &fakeFilters{}}
	h.model = NewModel(h.engine, h.history, h.filters, make(chan domain.ViewUpdate))
	h.send(tea.WindowSizeMsg{Width: 80, Height: 30})
	return h
}

// send feeds msg to the model and returns the resulting command.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) press(keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		cmd = h.send(msg)
	}
	return cmd
}

// run executes cmd, flattening batches, and returns the messages it produced.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func (h *harness) update(state domain.ViewState) {
	h.engine.mu.Lock()
	h.engine.states[state.ID] = state
	h.engine.mu.Unlock()
	h.send(ViewUpdateMsg{Update: domain.ViewUpdate{State: state}})
}

func TestViewUpdateRefreshesActiveList(t *testing.T) {
	h := newHarness(t)

	h.update(domain.ViewState{ID: domain.ViewRecent, Title: "Recent", Items: movieList(3), CurrentCount: 3, TotalCount: 10, Page: 1})

	assert.Equal(t, 3, h.model.List.ItemCount())
	assert.Contains(t, h.model.View(), "3/10")
}

func TestUpdateForHiddenViewLeavesListAlone(t *testing.T) {
	h := newHarness(t)

	h.update(domain.ViewState{ID: domain.ViewFavorites, Title: "Favorites", Items: movieList(2), CurrentCount: 2, TotalCount: 2, Page: 1})

	assert.Equal(t, 0, h.model.List.ItemCount())
	assert.Equal(t, 2, h.model.States[domain.ViewFavorites].CurrentCount)
}

func TestReachingBottomLoadsNextPage(t *testing.T) {
	h := newHarness(t)
	h.update(domain.ViewState{ID: domain.ViewRecent, Items: movieList(3), CurrentCount: 3, TotalCount: 10, Page: 1})

	assert.Empty(t, run(h.press("j")))
	msgs := run(h.press("j"))

	require.Len(t, msgs, 1)
	assert.Equal(t, LoadFinishedMsg{View: domain.ViewRecent}, msgs[0])
	assert.Equal(t, []domain.ViewID{domain.ViewRecent}, h.engine.loads)
}

func TestNoLoadWhileLoading(t *testing.T) {
	h := newHarness(t)
	h.update(domain.ViewState{ID: domain.ViewRecent, Items: movieList(2), CurrentCount: 2, TotalCount: 10, Page: 1, IsLoading: true})

	run(h.press("j"))

	assert.Empty(t, h.engine.loads)
}

func TestNoLoadWhenEverythingIsLoaded(t *testing.T) {
	h := newHarness(t)
	h.update(domain.ViewState{ID: domain.ViewRecent, Items: movieList(2), CurrentCount: 2, TotalCount: 2, Page: 1})

	run(h.press("j"))

	assert.Empty(t, h.engine.loads)
}

func TestSwitchingTabLoadsUntouchedView(t *testing.T) {
	h := newHarness(t)
	h.update(domain.ViewState{ID: domain.ViewRecent, Items: movieList(2), CurrentCount: 2, Page: 1})

	msgs := run(h.press("tab"))

	assert.Equal(t, domain.ViewFavorites, h.model.activeID())
	require.Len(t, msgs, 1)
	assert.Equal(t, []domain.ViewID{domain.ViewFavorites}, h.engine.loads)

	// Wraps around backwards to a view that already has a page
	assert.Empty(t, run(h.press("shift+tab")))
	assert.Equal(t, domain.ViewRecent, h.model.activeID())
	assert.Equal(t, 2, h.model.List.ItemCount())
}

func TestReloadAndStop(t *testing.T) {
	h := newHarness(t)

	run(h.press("r"))
	run(h.press("x"))

	assert.Equal(t, []domain.ViewID{domain.ViewRecent}, h.engine.reloads)
	assert.Equal(t, []domain.ViewID{domain.ViewRecent}, h.engine.stops)
}

func TestToggleHistoryFlags(t *testing.T) {
	h := newHarness(t)
	h.update(domain.ViewState{ID: domain.ViewRecent, Items: movieList(2), CurrentCount: 2, Page: 1})

	msgs := run(h.press("f"))
	require.Len(t, msgs, 1)
	h.send(msgs[0])
	assert.Contains(t, h.model.StatusMsg, `Added "Movie 1" to favorites`)

	run(h.press("j", "w"))
	assert.Equal(t, []string{"1"}, h.history.favorites)
	assert.Equal(t, []string{"2"}, h.history.watched)
}

func TestToggleWithoutSelectionDoesNothing(t *testing.T) {
	h := newHarness(t)

	assert.Nil(t, h.press("f"))
	assert.Empty(t, h.history.favorites)
}

func TestCriteriaKeys(t *testing.T) {
	h := newHarness(t)

	run(h.press("g"))
	run(h.press("L"))
	run(h.press("+"))
	run(h.press("+"))
	msgs := run(h.press("-"))

	assert.Equal(t, 1, h.filters.genres)
	assert.Equal(t, 1, h.filters.langs)
	assert.InDelta(t, 1.0, h.filters.current.MinRating, 0.001)
	require.Len(t, msgs, 1)
	assert.Equal(t, CriteriaChangedMsg{Key: domain.FilterMinRating, Value: "1"}, msgs[0])
}

func TestFilterTypingSwallowsActionKeys(t *testing.T) {
	h := newHarness(t)
	movies := []*domain.Movie{{ID: "1", Title: "Alien"}, {ID: "2", Title: "Fargo"}}
	h.update(domain.ViewState{ID: domain.ViewRecent, Items: movies, CurrentCount: 2, Page: 1})

	h.press("/")
	h.press("f")

	assert.True(t, h.model.List.IsFilterTyping())
	assert.Empty(t, h.history.favorites)
	assert.Equal(t, 1, h.model.List.ItemCount())
	assert.Equal(t, "2", h.model.List.Selected().ID)

	h.press("esc")
	assert.False(t, h.model.List.IsFiltering())
	assert.Equal(t, 2, h.model.List.ItemCount())
}

func TestLoadErrorsReachTheStatusLine(t *testing.T) {
	h := newHarness(t)

	h.send(LoadFinishedMsg{View: domain.ViewRecent, Err: fmt.Errorf("%w: boom", domain.ErrInvalidState)})
	assert.Empty(t, h.model.StatusMsg)

	h.send(LoadFinishedMsg{View: domain.ViewRecent, Err: errors.New("load recent page 1: transport failure")})
	assert.True(t, h.model.StatusIsErr)
	assert.Contains(t, h.model.StatusMsg, "transport failure")

	h.send(ClearStatusMsg{})
	assert.Empty(t, h.model.StatusMsg)
}

func TestLoadFinishedResyncsFromEngine(t *testing.T) {
	h := newHarness(t)
	h.engine.states[domain.ViewRecent] = domain.ViewState{ID: domain.ViewRecent, Items: movieList(4), CurrentCount: 4, Page: 1}

	h.send(LoadFinishedMsg{View: domain.ViewRecent})

	assert.Equal(t, 4, h.model.List.ItemCount())
}

func TestErrorBanner(t *testing.T) {
	h := newHarness(t)

	h.update(domain.ViewState{ID: domain.ViewRecent, HasError: true, Err: domain.ErrTransport})
	assert.Contains(t, h.model.View(), "Press r to retry")

	h.update(domain.ViewState{ID: domain.ViewRecent, HasError: true, Err: domain.ErrRateLimited})
	assert.Contains(t, h.model.View(), "rate limiting")
}

func TestErroredViewIsNotAutoLoaded(t *testing.T) {
	h := newHarness(t)
	h.engine.states[domain.ViewFavorites] = domain.ViewState{ID: domain.ViewFavorites, HasError: true}
	h.model.States[domain.ViewFavorites] = h.engine.states[domain.ViewFavorites]

	assert.Nil(t, h.press("tab"))
}

func TestHelpScreen(t *testing.T) {
	h := newHarness(t)

	h.press("?")
	assert.True(t, h.model.ShowHelp)
	assert.Contains(t, h.model.View(), "next view")

	// Keys other than close are ignored on the help screen
	h.press("r")
	assert.Empty(t, h.engine.reloads)

	h.press("?")
	assert.False(t, h.model.ShowHelp)
}

func TestListenCmdDeliversUpdates(t *testing.T) {
	ch := make(chan domain.ViewUpdate, 1)
	ch <- domain.ViewUpdate{State: domain.ViewState{ID: domain.ViewSeen}}

	msg := ListenCmd(ch)()
	assert.Equal(t, domain.ViewSeen, msg.(ViewUpdateMsg).Update.State.ID)

	close(ch)
	assert.Nil(t, ListenCmd(ch)())
}

func TestChannelObserverNeverBlocks(t *testing.T) {
	ch := make(chan domain.ViewUpdate, 1)
	obs := NewChannelObserver(ch)

	obs.OnViewUpdate(domain.ViewUpdate{State: domain.ViewState{ID: domain.ViewRecent}})
	obs.OnViewUpdate(domain.ViewUpdate{State: domain.ViewState{ID: domain.ViewGreatest}})

	require.Len(t, ch, 1)
	assert.Equal(t, domain.ViewRecent, (<-ch).State.ID)
}

func TestSelectView(t *testing.T) {
	h := newHarness(t)

	h.model = h.model.SelectView(domain.ViewFavorites)
	assert.Equal(t, domain.ViewFavorites, h.model.activeID())

	h.model = h.model.SelectView("nope")
	assert.Equal(t, domain.ViewFavorites, h.model.activeID())
}
