package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrItemNotFound indicates the requested movie does not exist
	ErrItemNotFound = errors.New("movie not found")

	// ErrServerOffline indicates the catalog server is unreachable
	ErrServerOffline = errors.New("catalog server is unreachable")

	// ErrRateLimited indicates the catalog server rejected the request rate
	ErrRateLimited = errors.New("catalog server rate limit exceeded")

	// ErrTransport indicates a page fetch failed on the network or protocol level.
	// Surfaced to callers as the view's error flag.
	ErrTransport = errors.New("catalog transport failed")

	// ErrCancelled indicates the fetch belonged to a session that is no longer
	// current. Never reported to the user.
	ErrCancelled = errors.New("load cancelled")

	// ErrInvalidState indicates a contract violation, such as loading the next
	// page while the view is already loading.
	ErrInvalidState = errors.New("invalid view state")

	// ErrHistoryInconsistency indicates a history record has no catalog data.
	ErrHistoryInconsistency = errors.New("history record has no catalog data")
)
