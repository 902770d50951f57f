package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/marquee/internal/domain"
)

// Command factories for async operations

// pageTimeout bounds one page load, retries included
const pageTimeout = 60 * time.Second

// ListenCmd waits for the next engine update. Update re-arms it after every
// ViewUpdateMsg so the program keeps draining the channel.
func ListenCmd(updates <-chan domain.ViewUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return nil
		}
		return ViewUpdateMsg{Update: update}
	}
}

// LoadNextPageCmd loads the next page of a view
func LoadNextPageCmd(engine Engine, id domain.ViewID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pageTimeout)
		defer cancel()

		return LoadFinishedMsg{View: id, Err: engine.LoadNextPage(ctx, id)}
	}
}

// ReloadCmd restarts a view from its first page
func ReloadCmd(engine Engine, id domain.ViewID) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pageTimeout)
		defer cancel()

		return LoadFinishedMsg{View: id, Err: engine.Reload(ctx, id)}
	}
}

// ToggleFavoriteCmd flips the favorite flag of a movie
func ToggleFavoriteCmd(history History, movie *domain.Movie) tea.Cmd {
	return toggleCmd(domain.HistoryFavorite, movie, history.ToggleFavorite)
}

// ToggleWatchedCmd flips the seen flag of a movie
func ToggleWatchedCmd(history History, movie *domain.Movie) tea.Cmd {
	return toggleCmd(domain.HistoryWatched, movie, history.ToggleWatched)
}

func toggleCmd(kind domain.HistoryKind, movie *domain.Movie, toggle func(context.Context, *domain.Movie) (bool, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		flagged, err := toggle(ctx, movie)
		if err != nil {
			return ErrMsg{Err: err, Context: "updating " + string(kind)}
		}
		return HistoryToggledMsg{Kind: kind, Title: movie.Title, Flagged: flagged}
	}
}

// CycleGenreCmd moves the genre criterion one step
func CycleGenreCmd(filters Filters, step int) tea.Cmd {
	return func() tea.Msg {
		return CriteriaChangedMsg{Key: domain.FilterGenre, Value: filters.CycleGenre(step)}
	}
}

// CycleLanguageCmd moves the language criterion one step
func CycleLanguageCmd(filters Filters, step int) tea.Cmd {
	return func() tea.Msg {
		return CriteriaChangedMsg{Key: domain.FilterLanguage, Value: filters.CycleLanguage(step)}
	}
}

// AdjustRatingCmd moves the minimum rating by delta
func AdjustRatingCmd(filters Filters, delta float64) tea.Cmd {
	return func() tea.Msg {
		filters.SetMinRating(filters.Current().MinRating + delta)
		return CriteriaChangedMsg{
			Key:   domain.FilterMinRating,
			Value: filters.Current().Value(domain.FilterMinRating),
		}
	}
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
