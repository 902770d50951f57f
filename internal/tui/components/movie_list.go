package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/marquee/internal/domain"
	"github.com/mmcdole/marquee/internal/search"
	"github.com/mmcdole/marquee/internal/tui/styles"
)

// Layout constants for the list frame
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// MovieList is a scrollable list of movies with a local fuzzy filter.
type MovieList struct {
	movies []*domain.Movie

	// Selection
	cursor     int
	offset     int
	maxVisible int

	width  int
	height int

	loading bool
	spinner string // Current spinner frame, rendered while loading

	// Filter state. matches is nil when no query is applied.
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	matches      []search.Match
}

// NewMovieList creates an empty list
func NewMovieList() *MovieList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &MovieList{filterInput: ti}
}

// SetItems replaces the movies, keeping the selection on the same movie when
// it is still present.
func (l *MovieList) SetItems(movies []*domain.Movie) {
	var selectedID string
	if m := l.Selected(); m != nil {
		selectedID = m.ID
	}

	l.movies = movies
	if l.filterQuery != "" {
		l.matches = search.NewIndex(movies).Filter(l.filterQuery)
	}

	l.cursor = 0
	if selectedID != "" {
		for i := range l.ItemCount() {
			if l.movieAt(i).ID == selectedID {
				l.cursor = i
				break
			}
		}
	}
	l.clampCursor()
	l.ensureVisible()
}

// Update handles navigation and filter typing
func (l *MovieList) Update(msg tea.Msg) tea.Cmd {
	if l.IsFilterTyping() {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				l.ClearFilter()
				return nil
			case "enter":
				// Accept filter, blur input to allow navigation
				l.filterInput.Blur()
				return nil
			case "backspace":
				if l.filterInput.Value() == "" {
					l.ClearFilter()
					return nil
				}
			}
		}

		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter()
		return cmd
	}

	count := l.ItemCount()
	if count == 0 {
		return nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "j", "down":
			if l.cursor < count-1 {
				l.cursor++
			}
		case "k", "up":
			if l.cursor > 0 {
				l.cursor--
			}
		case "home":
			l.cursor = 0
		case "G", "end":
			l.cursor = count - 1
		case "ctrl+d":
			l.cursor = min(l.cursor+max(l.maxVisible/2, 1), count-1)
		case "ctrl+u":
			l.cursor = max(l.cursor-max(l.maxVisible/2, 1), 0)
		}
		l.ensureVisible()
	}
	return nil
}

// View renders the framed list
func (l *MovieList) View(title string) string {
	style := styles.ActiveBorder
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(l.renderContent(title))
}

// SetSize sets the outer size of the list
func (l *MovieList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

// SetLoading toggles the loading line. spinner is the frame to show.
func (l *MovieList) SetLoading(loading bool, spinner string) {
	l.loading = loading
	l.spinner = spinner
}

// Selected returns the movie under the cursor, or nil
func (l *MovieList) Selected() *domain.Movie {
	if l.cursor < 0 || l.cursor >= l.ItemCount() {
		return nil
	}
	return l.movieAt(l.cursor)
}

// SelectedIndex returns the cursor position
func (l *MovieList) SelectedIndex() int {
	return l.cursor
}

// ItemCount returns the number of visible rows (after filtering)
func (l *MovieList) ItemCount() int {
	if l.filterQuery != "" {
		return len(l.matches)
	}
	return len(l.movies)
}

// AtBottom reports whether the cursor sits on the last movie of an unfiltered
// list. Filtered results never ask for more pages.
func (l *MovieList) AtBottom() bool {
	if l.filterQuery != "" {
		return false
	}
	return len(l.movies) > 0 && l.cursor == len(l.movies)-1
}

// ToggleFilter activates the filter input
func (l *MovieList) ToggleFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (l *MovieList) IsFiltering() bool {
	return l.filterActive
}

// IsFilterTyping returns true if the filter input has focus
func (l *MovieList) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all movies
func (l *MovieList) ClearFilter() {
	l.filterActive = false
	l.filterQuery = ""
	l.matches = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()
	l.clampCursor()
	l.ensureVisible()
}

func (l *MovieList) applyFilter() {
	l.filterQuery = strings.TrimSpace(l.filterInput.Value())
	if l.filterQuery == "" {
		l.matches = nil
	} else {
		l.matches = search.NewIndex(l.movies).Filter(l.filterQuery)
	}
	l.cursor = 0
	l.offset = 0
}

func (l *MovieList) movieAt(i int) *domain.Movie {
	if l.filterQuery != "" {
		return l.matches[i].Movie
	}
	return l.movies[i]
}

func (l *MovieList) clampCursor() {
	l.cursor = max(min(l.cursor, l.ItemCount()-1), 0)
}

func (l *MovieList) recalcMaxVisible() {
	// Title line plus both scroll indicators
	l.maxVisible = l.height - BorderHeight - ScrollIndicatorLines - 1
	if l.filterActive {
		l.maxVisible--
	}
	l.maxVisible = max(l.maxVisible, 1)
}

func (l *MovieList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

// Rendering

func (l *MovieList) renderContent(title string) string {
	itemWidth := max(l.width-BorderWidth, 10)
	titleLine := styles.AccentStyle.Render(styles.Truncate(title, itemWidth))

	count := l.ItemCount()
	if count == 0 {
		msg := "No movies"
		switch {
		case l.loading:
			msg = l.spinner + " Loading..."
		case l.filterQuery != "":
			msg = "No matches"
		}
		content := titleLine + "\n \n" + styles.DimStyle.Render(msg) + "\n "
		if l.filterActive {
			content += "\n" + l.renderFilterBar()
		}
		return content
	}

	end := min(l.offset+l.maxVisible, count)
	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		var matched []int
		if l.filterQuery != "" {
			matched = l.matches[i].MatchedIndexes
		}
		lines = append(lines, l.renderMovie(l.movieAt(i), matched, i == l.cursor, itemWidth))
	}

	// Always reserve the indicator lines so the layout doesn't shift
	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	switch {
	case end < count:
		footer = styles.DimStyle.Render("↓ more")
	case l.loading:
		footer = styles.DimStyle.Render(l.spinner + " loading more...")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if l.filterActive {
		content += "\n" + l.renderFilterBar()
	}
	return content
}

func (l *MovieList) renderMovie(m *domain.Movie, matched []int, selected bool, width int) string {
	favChar, favFg := styles.BlankChar, styles.DimGray
	if m.IsFavorite {
		favChar, favFg = styles.FavoriteChar, styles.Pink
	}
	seenChar, seenFg := styles.BlankChar, styles.DimGray
	if m.HasBeenSeen {
		seenChar, seenFg = styles.SeenChar, styles.Green
	}

	desc := m.GetDescription()
	// markers(4) + margins(2) + gap(2)
	available := max(width-lipgloss.Width(desc)-8, 5)
	title := styles.Truncate(m.Title, available)

	parts := []styles.RowPart{
		{Text: favChar, Foreground: &favFg},
		{Text: seenChar + " ", Foreground: &seenFg},
	}
	parts = append(parts, highlight(title, matched)...)

	gap := max(width-lipgloss.Width(title)-lipgloss.Width(desc)-5, 1)
	dim := styles.DimGray
	parts = append(parts, styles.RowPart{Text: " " + strings.Repeat(" ", gap-1) + desc, Foreground: &dim})

	return styles.RenderListRow(parts, selected, width)
}

// highlight splits title into parts, coloring the bytes listed in matched.
func highlight(title string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: title}}
	}

	set := make(map[int]struct{}, len(matched))
	for _, i := range matched {
		set[i] = struct{}{}
	}

	gold := styles.MarqueeGold
	var parts []styles.RowPart
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			part.Foreground = &gold
		}
		parts = append(parts, part)
		run.Reset()
	}

	for i, r := range title {
		_, hit := set[i]
		if hit != runHit {
			flush()
			runHit = hit
		}
		run.WriteRune(r)
	}
	flush()
	return parts
}

func (l *MovieList) renderFilterBar() string {
	bar := l.filterInput.View()
	if l.filterQuery != "" {
		bar += styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", l.ItemCount(), len(l.movies)))
	}
	return bar
}
