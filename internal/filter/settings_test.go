package filter

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/marquee/internal/domain"
)

func newSettings(t *testing.T, initial domain.Criteria) (*Settings, *[]domain.FilterChange) {
	t.Helper()
	s := NewSettings(initial, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var changes []domain.FilterChange
	for _, key := range domain.AllFilterKeys {
		s.Subscribe(key, func(c domain.FilterChange) { changes = append(changes, c) })
	}
	return s, &changes
}

func TestSetGenrePublishesOldAndNew(t *testing.T) {
	s, changes := newSettings(t, domain.Criteria{Genre: "Drama", MinRating: 5})

	require.NoError(t, s.SetGenre("Horror"))

	require.Len(t, *changes, 1)
	c := (*changes)[0]
	assert.Equal(t, domain.FilterGenre, c.Key)
	assert.Equal(t, "Drama", c.Old.Genre)
	assert.Equal(t, "Horror", c.New.Genre)
	assert.Equal(t, 5.0, c.New.MinRating, "other criteria are carried along")
	assert.Equal(t, "Horror", s.Current().Genre)
}

func TestUnchangedValuePublishesNothing(t *testing.T) {
	s, changes := newSettings(t, domain.Criteria{Genre: "Drama"})

	require.NoError(t, s.SetGenre("Drama"))
	s.SetMinRating(0)
	s.SetQuery("")

	assert.Empty(t, *changes)
}

func TestSetGenreRejectsUnknown(t *testing.T) {
	s, changes := newSettings(t, domain.Criteria{})

	err := s.SetGenre("Space Opera")

	assert.ErrorIs(t, err, ErrUnknownGenre)
	assert.Empty(t, *changes)
}

func TestSetMinRatingClamps(t *testing.T) {
	s, _ := newSettings(t, domain.Criteria{})

	s.SetMinRating(12)
	assert.Equal(t, 9.0, s.Current().MinRating)

	s.SetMinRating(-3)
	assert.Equal(t, 0.0, s.Current().MinRating)
}

func TestSetLanguageCanonicalizes(t *testing.T) {
	s, changes := newSettings(t, domain.Criteria{})

	require.NoError(t, s.SetLanguage("fr-CA"))
	assert.Equal(t, "fr", s.Current().Language)

	// Same base language is not a change
	require.NoError(t, s.SetLanguage("fr"))
	assert.Len(t, *changes, 1)

	assert.ErrorIs(t, s.SetLanguage("not a tag!"), ErrInvalidLanguage)
	assert.Equal(t, "fr", s.Current().Language)

	require.NoError(t, s.SetLanguage(""))
	assert.Empty(t, s.Current().Language)
}

func TestApplyPublishesPerChangedKey(t *testing.T) {
	s, changes := newSettings(t, domain.Criteria{Genre: "Drama"})

	require.NoError(t, s.Apply(domain.Criteria{Genre: "Drama", MinRating: 7, Query: "heat"}))

	require.Len(t, *changes, 2)
	assert.Equal(t, domain.FilterMinRating, (*changes)[0].Key)
	assert.Equal(t, domain.FilterQuery, (*changes)[1].Key)
	assert.Equal(t, domain.Criteria{Genre: "Drama", MinRating: 7, Query: "heat"}, s.Current())
}

func TestApplyRejectsInvalidAtomically(t *testing.T) {
	s, changes := newSettings(t, domain.Criteria{})

	err := s.Apply(domain.Criteria{Genre: "Nope", MinRating: 5})

	assert.ErrorIs(t, err, ErrUnknownGenre)
	assert.Empty(t, *changes)
	assert.Equal(t, domain.Criteria{}, s.Current())
}

func TestCycleGenreWraps(t *testing.T) {
	s, _ := newSettings(t, domain.Criteria{})

	assert.Equal(t, domain.Genres[1], s.CycleGenre(1))
	assert.Equal(t, "", s.CycleGenre(-1))
	assert.Equal(t, domain.Genres[len(domain.Genres)-1], s.CycleGenre(-1))
}

func TestCycleLanguage(t *testing.T) {
	s, _ := newSettings(t, domain.Criteria{})

	assert.Equal(t, "en", s.CycleLanguage(1))
	assert.Equal(t, "en", s.Current().Language)
}

func TestNewSettingsNormalizesInitial(t *testing.T) {
	s, _ := newSettings(t, domain.Criteria{Genre: "bogus", MinRating: 20, Language: "en-GB"})

	assert.Equal(t, domain.Criteria{MinRating: 9, Language: "en"}, s.Current())
}

func TestUnsubscribedHandlerStopsReceiving(t *testing.T) {
	s := NewSettings(domain.Criteria{}, nil)
	var n int
	unsub := s.Subscribe(domain.FilterQuery, func(domain.FilterChange) { n++ })

	s.SetQuery("a")
	unsub()
	s.SetQuery("b")

	assert.Equal(t, 1, n)
}
