package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/tui/components"
	"github.com/mmcdole/marquee/internal/tui/styles"
)

// Engine is the part of the catalog engine the UI drives
type Engine interface {
	Views() []domain.ViewID
	State(id domain.ViewID) (domain.ViewState, error)
	LoadNextPage(ctx context.Context, id domain.ViewID) error
	Reload(ctx context.Context, id domain.ViewID) error
	Stop(id domain.ViewID) error
}

// History flips favorite and seen flags
type History interface {
	ToggleFavorite(ctx context.Context, movie *domain.Movie) (bool, error)
	ToggleWatched(ctx context.Context, movie *domain.Movie) (bool, error)
}

// Filters is the shared catalog criteria
type Filters interface {
	Current() domain.Criteria
	CycleGenre(step int) string
	CycleLanguage(step int) string
	SetMinRating(rating float64)
}

// ratingStep is how far +/- move the minimum rating
const ratingStep = 1

// ChromeHeight is the tabs line, the banner line and the status line
const ChromeHeight = 3

// Model is the main Bubble Tea model for the application
type Model struct {
	Ready bool

	// Services
	Engine  Engine
	History History
	Filters Filters

	updates <-chan domain.ViewUpdate

	// Views in tab order and their latest state
	Views  []domain.ViewID
	States map[domain.ViewID]domain.ViewState
	Active int

	List    *components.MovieList
	Spinner spinner.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	ShowHelp    bool
}

// NewModel creates a new application model. updates is the channel fed by a
// ChannelObserver registered on the engine.
func NewModel(engine Engine, history History, filters Filters, updates <-chan domain.ViewUpdate) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.SpinnerStyle

	m := Model{
		Engine:  engine,
		History: history,
		Filters: filters,
		updates: updates,
		Views:   engine.Views(),
		States:  make(map[domain.ViewID]domain.ViewState),
		List:    components.NewMovieList(),
		Spinner: sp,
	}
	for _, id := range m.Views {
		if state, err := engine.State(id); err == nil {
			m.States[id] = state
		}
	}
	m.syncList()
	return m
}

// SelectView makes id the active tab. Unknown ids are ignored.
func (m Model) SelectView(id domain.ViewID) Model {
	for i, v := range m.Views {
		if v == id {
			m.Active = i
			m.syncList()
			break
		}
	}
	return m
}

// Init starts listening for updates and loads the first view
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenCmd(m.updates),
		m.Spinner.Tick,
		m.ensureLoaded(),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.List.SetSize(m.Width, max(m.Height-ChromeHeight, 1))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		m.List.SetLoading(m.activeState().IsLoading, m.Spinner.View())
		return m, cmd

	case ViewUpdateMsg:
		m.States[msg.Update.State.ID] = msg.Update.State
		if msg.Update.State.ID == m.activeID() {
			m.syncList()
		}
		return m, ListenCmd(m.updates)

	case LoadFinishedMsg:
		// Updates may have been dropped by the observer; resync from the engine
		if state, err := m.Engine.State(msg.View); err == nil {
			m.States[msg.View] = state
			if msg.View == m.activeID() {
				m.syncList()
			}
		}
		if msg.Err != nil && !errors.Is(msg.Err, domain.ErrInvalidState) {
			return m.setStatus(msg.Err.Error(), true)
		}
		return m, nil

	case HistoryToggledMsg:
		return m.setStatus(historyStatus(msg), false)

	case CriteriaChangedMsg:
		return m.setStatus(criteriaStatus(msg), false)

	case ErrMsg:
		return m.setStatus(msg.Error(), true)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.ShowHelp {
		return m.renderHelp()
	}

	state := m.activeState()
	title := state.Title
	if state.TotalCount > 0 {
		title = fmt.Sprintf("%s (%d)", state.Title, state.TotalCount)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		m.renderBanner(state),
		m.List.View(title),
		m.renderStatus(state),
	)
}

func (m Model) activeID() domain.ViewID {
	if len(m.Views) == 0 {
		return ""
	}
	return m.Views[m.Active]
}

func (m Model) activeState() domain.ViewState {
	return m.States[m.activeID()]
}

// syncList pushes the active view's items into the list
func (m Model) syncList() {
	state := m.activeState()
	m.List.SetItems(state.Items)
	m.List.SetLoading(state.IsLoading, m.Spinner.View())
}

// ensureLoaded requests the first page of the active view if it has none yet
func (m Model) ensureLoaded() tea.Cmd {
	state, ok := m.States[m.activeID()]
	if !ok || state.IsLoading || state.HasError || state.Page > 0 {
		return nil
	}
	return LoadNextPageCmd(m.Engine, m.activeID())
}

// switchView moves to another tab, wrapping around
func (m Model) switchView(step int) (Model, tea.Cmd) {
	n := len(m.Views)
	if n == 0 {
		return m, nil
	}
	m.Active = ((m.Active+step)%n + n) % n
	m.List.ClearFilter()
	m.syncList()
	return m, m.ensureLoaded()
}

// loadMoreIfAtBottom asks for the next page once the cursor reaches the last
// loaded movie. Nothing is requested while the view is loading.
func (m Model) loadMoreIfAtBottom() tea.Cmd {
	if !m.List.AtBottom() {
		return nil
	}
	state := m.activeState()
	if state.IsLoading || (state.TotalCount > 0 && state.CurrentCount >= state.TotalCount) {
		return nil
	}
	return LoadNextPageCmd(m.Engine, m.activeID())
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(3 * time.Second)
}

func historyStatus(msg HistoryToggledMsg) string {
	var list string
	switch msg.Kind {
	case domain.HistoryFavorite:
		list = "favorites"
	case domain.HistoryWatched:
		list = "seen"
	default:
		list = string(msg.Kind)
	}
	if msg.Flagged {
		return fmt.Sprintf("Added %q to %s", msg.Title, list)
	}
	return fmt.Sprintf("Removed %q from %s", msg.Title, list)
}

func criteriaStatus(msg CriteriaChangedMsg) string {
	value := msg.Value
	if value == "" || value == "0" {
		value = "any"
	}
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(string(msg.Key), "_", " "), value)
}

// Rendering

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(m.Views))
	for i, id := range m.Views {
		title := m.States[id].Title
		if title == "" {
			title = string(id)
		}
		if i == m.Active {
			tabs = append(tabs, styles.ActiveTabStyle.Render(title))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(title))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	var right string
	if m.Filters != nil {
		right = styles.DimStyle.Render(describeCriteria(m.Filters.Current()))
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func describeCriteria(c domain.Criteria) string {
	genre := c.Genre
	if genre == "" {
		genre = "all genres"
	}
	lang := c.Language
	if lang == "" {
		lang = "any language"
	}
	parts := []string{genre, fmt.Sprintf("★ %s+", c.Value(domain.FilterMinRating)), lang}
	if c.Query != "" {
		parts = append(parts, fmt.Sprintf("%q", c.Query))
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderBanner(state domain.ViewState) string {
	if !state.HasError {
		return ""
	}
	text := "Could not reach the catalog. Press r to retry."
	if errors.Is(state.Err, domain.ErrRateLimited) {
		text = "The catalog is rate limiting requests. Press r to retry."
	}
	return styles.ErrorBannerStyle.Width(m.Width).Render(styles.Truncate(text, max(m.Width-2, 1)))
}

func (m Model) renderStatus(state domain.ViewState) string {
	var left string
	if state.IsLoading {
		left = m.Spinner.View() + " "
	}
	if state.TotalCount > 0 {
		left += fmt.Sprintf("%d/%d", state.CurrentCount, state.TotalCount)
	} else {
		left += fmt.Sprintf("%d", state.CurrentCount)
	}

	if m.StatusMsg != "" {
		style := styles.SuccessStyle
		if m.StatusIsErr {
			style = styles.ErrorStyle
		}
		left += "  " + style.Render(m.StatusMsg)
	}

	help := styles.HelpKeyStyle.Render("?") + styles.HelpDescStyle.Render(" help")
	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(help), 1)
	return styles.StatusBarStyle.Render(left + strings.Repeat(" ", gap) + help)
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range Keys.HelpBindings() {
		h := binding.Help()
		fmt.Fprintf(&b, "  %s  %s\n",
			styles.HelpKeyStyle.Render(fmt.Sprintf("%-6s", h.Key)),
			styles.HelpDescStyle.Render(h.Desc),
		)
	}
	return b.String()
}
