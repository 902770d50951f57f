package tui

import (
	"github.com/mmcdole/marquee/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ViewUpdateMsg carries an engine update into the program
type ViewUpdateMsg struct {
	Update domain.ViewUpdate
}

// LoadFinishedMsg signals that a page load command returned
type LoadFinishedMsg struct {
	View domain.ViewID
	Err  error
}

// HistoryToggledMsg signals that a favorite or seen flag was flipped
type HistoryToggledMsg struct {
	Kind    domain.HistoryKind
	Title   string
	Flagged bool
}

// CriteriaChangedMsg signals that a catalog filter was changed from the keyboard
type CriteriaChangedMsg struct {
	Key   domain.FilterKey
	Value string
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
