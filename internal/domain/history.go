package domain

// HistoryKind identifies a per-movie flag kept in the history store
type HistoryKind string

const (
	HistoryFavorite HistoryKind = "favorite"
	HistoryWatched  HistoryKind = "watched"
)

// HistoryChange is published synchronously with every history write.
type HistoryChange struct {
	Kind    HistoryKind
	ID      string
	Flagged bool   // New state of the flag
	Movie   *Movie // Snapshot stored with the record (nil when removed)
}

// HistoryRecord is the persisted form of one movie's flags
type HistoryRecord struct {
	ID          string `json:"id"`
	IsFavorite  bool   `json:"is_favorite"`
	HasBeenSeen bool   `json:"has_been_seen"`
	Movie       *Movie `json:"movie,omitempty"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Flagged reports the state of the given kind
func (r HistoryRecord) Flagged(kind HistoryKind) bool {
	switch kind {
	case HistoryFavorite:
		return r.IsFavorite
	case HistoryWatched:
		return r.HasBeenSeen
	default:
		return false
	}
}
