package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/marquee/internal/domain"
)

func TestCrossRefLoadAndAnnotate(t *testing.T) {
	history := newMemHistory()
	history.set(domain.HistoryFavorite, movie("a"), true)
	history.set(domain.HistoryWatched, movie("b"), true)

	c := NewCrossRef(history, quietLogger())
	require.NoError(t, c.Load(context.Background()))

	assert.True(t, c.IsFlagged(domain.HistoryFavorite, "a"))
	assert.False(t, c.IsFlagged(domain.HistoryWatched, "a"))
	assert.True(t, c.IsFlagged(domain.HistoryWatched, "b"))

	in := []*domain.Movie{movie("a"), movie("b"), movie("c")}
	out := c.Annotate(in)

	require.Len(t, out, 3)
	assert.True(t, out[0].IsFavorite)
	assert.True(t, out[1].HasBeenSeen)
	assert.NotSame(t, in[0], out[0])
	assert.Same(t, in[2], out[2], "unflagged items are not cloned")
	assert.False(t, in[0].IsFavorite)
}

func TestCrossRefAnnotateClearsStaleFlags(t *testing.T) {
	c := NewCrossRef(newMemHistory(), quietLogger())
	stale := &domain.Movie{ID: "x", IsFavorite: true}

	out := c.Annotate([]*domain.Movie{stale})

	assert.False(t, out[0].IsFavorite)
	assert.True(t, stale.IsFavorite)
}

func TestCrossRefHandleRoutesByKind(t *testing.T) {
	history := newMemHistory()
	history.set(domain.HistoryFavorite, movie("m1"), true)

	server := &catalogServer{items: movies("m", 1, 3)}
	catalogFx := newCatalogView(t, server, 20, nil)
	require.NoError(t, catalogFx.view.LoadNextPage(context.Background()))

	favFx := newHistoryView(t, history, domain.HistoryFavorite)
	require.NoError(t, favFx.view.Reload(context.Background()))

	c := NewCrossRef(history, quietLogger())
	require.NoError(t, c.Load(context.Background()))
	views := []*View{catalogFx.view, favFx.view}

	history.set(domain.HistoryFavorite, movie("m2"), true)
	c.Handle(domain.HistoryChange{Kind: domain.HistoryFavorite, ID: "m2", Flagged: true, Movie: movie("m2")}, views)
	favFx.view.Wait()

	assert.True(t, c.IsFlagged(domain.HistoryFavorite, "m2"))
	assert.True(t, catalogFx.view.Snapshot().Items[1].IsFavorite)
	assert.Equal(t, []string{"m1", "m2"}, ids(favFx.view.Snapshot().Items))

	c.Handle(domain.HistoryChange{Kind: domain.HistoryWatched, ID: "m3", Flagged: true, Movie: movie("m3")}, views)
	assert.True(t, catalogFx.view.Snapshot().Items[2].HasBeenSeen)
	assert.Equal(t, []string{"m1", "m2"}, ids(favFx.view.Snapshot().Items), "favorites view ignores watched changes")
}

func TestCrossRefHandleRemoval(t *testing.T) {
	c := NewCrossRef(newMemHistory(), quietLogger())
	c.apply(domain.HistoryChange{Kind: domain.HistoryWatched, ID: "w", Flagged: true})

	c.Handle(domain.HistoryChange{Kind: domain.HistoryWatched, ID: "w", Flagged: false}, nil)

	assert.False(t, c.IsFlagged(domain.HistoryWatched, "w"))
}
