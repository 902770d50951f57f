package catalog

import "github.com/mmcdole/marquee/internal/domain"

// Identity maps an item to the key that decides "same entity".
type Identity[T any, K comparable] func(T) K

// MovieIdentity keys movies by their stable catalog id.
func MovieIdentity(m *domain.Movie) string {
	return m.ID
}
