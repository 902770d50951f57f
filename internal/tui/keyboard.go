package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ShowHelp {
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.ShowHelp = false
		}
		return m, nil
	}

	// Typing into the filter swallows every key but ctrl+c
	if m.List.IsFilterTyping() {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, m.List.Update(msg)
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.ShowHelp = true
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.List.IsFiltering() {
			m.List.ClearFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.List.ToggleFilter()
		return m, textinput.Blink

	case key.Matches(msg, Keys.NextView):
		return m.switchView(1)

	case key.Matches(msg, Keys.PrevView):
		return m.switchView(-1)

	case key.Matches(msg, Keys.Reload):
		return m, ReloadCmd(m.Engine, m.activeID())

	case key.Matches(msg, Keys.Stop):
		if err := m.Engine.Stop(m.activeID()); err != nil {
			return m.setStatus(err.Error(), true)
		}
		return m, nil

	case key.Matches(msg, Keys.ToggleFavorite):
		if movie := m.List.Selected(); movie != nil && m.History != nil {
			return m, ToggleFavoriteCmd(m.History, movie)
		}
		return m, nil

	case key.Matches(msg, Keys.ToggleWatched):
		if movie := m.List.Selected(); movie != nil && m.History != nil {
			return m, ToggleWatchedCmd(m.History, movie)
		}
		return m, nil
	}

	if m.Filters != nil {
		switch {
		case key.Matches(msg, Keys.NextGenre):
			return m, CycleGenreCmd(m.Filters, 1)
		case key.Matches(msg, Keys.RaiseRating):
			return m, AdjustRatingCmd(m.Filters, ratingStep)
		case key.Matches(msg, Keys.LowerRating):
			return m, AdjustRatingCmd(m.Filters, -ratingStep)
		case key.Matches(msg, Keys.NextLanguage):
			return m, CycleLanguageCmd(m.Filters, 1)
		}
	}

	// Everything else is list navigation
	cmd := m.List.Update(msg)
	if key.Matches(msg, Keys.Down, Keys.HalfDown, Keys.End) {
		return m, tea.Batch(cmd, m.loadMoreIfAtBottom())
	}
	return m, cmd
}
