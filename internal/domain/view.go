package domain

// ViewID names a browsing context, e.g. "recent" or "favorites"
type ViewID string

const (
	ViewRecent    ViewID = "recent"
	ViewGreatest  ViewID = "greatest"
	ViewPopular   ViewID = "popular"
	ViewFavorites ViewID = "favorites"
	ViewSeen      ViewID = "seen"
)

// ViewState is an immutable snapshot of a view for rendering.
type ViewState struct {
	ID           ViewID
	Title        string
	Items        []*Movie
	IsLoading    bool
	HasError     bool
	Err          error
	CurrentCount int
	TotalCount   int
	Page         int
	Criteria     Criteria
}

// ViewUpdate reports a change in a view. Added and Removed carry the last diff.
type ViewUpdate struct {
	State   ViewState
	Added   []*Movie
	Removed []*Movie
}

// ViewObserver receives view updates. Implementations must not block.
type ViewObserver interface {
	OnViewUpdate(update ViewUpdate)
}

// ObserverFunc adapts a function to ViewObserver
type ObserverFunc func(ViewUpdate)

func (f ObserverFunc) OnViewUpdate(u ViewUpdate) { f(u) }
