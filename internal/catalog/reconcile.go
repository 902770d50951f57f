package catalog

// MergeMode selects how a fetched set is folded into a collection.
type MergeMode int

const (
	// MergeUnion appends unseen items and never removes. Used by paginated
	// views, where each response is one page of a growing set.
	MergeUnion MergeMode = iota

	// MergeReplace treats incoming as the authoritative full set: missing
	// items are removed. Used by history-sourced views.
	MergeReplace
)

// Diff is the edit script applied by Reconcile.
type Diff[T any] struct {
	Added   []T // In incoming order
	Removed []T // In existing order
}

// Empty reports whether the reconcile changed nothing
func (d Diff[T]) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Reconcile merges incoming into existing and returns the new collection.
//
// Removals are applied first, so survivors keep their relative order, then
// unseen incoming items are appended in incoming order. Existing items are
// never reordered. Runs in O(n+m). The backing array of existing is reused.
func Reconcile[T any, K comparable](existing, incoming []T, key Identity[T, K], mode MergeMode) ([]T, Diff[T]) {
	var diff Diff[T]
	result := existing

	if mode == MergeReplace {
		wanted := make(map[K]struct{}, len(incoming))
		for _, it := range incoming {
			wanted[key(it)] = struct{}{}
		}

		kept := existing[:0]
		for _, it := range existing {
			if _, ok := wanted[key(it)]; ok {
				kept = append(kept, it)
			} else {
				diff.Removed = append(diff.Removed, it)
			}
		}
		// Drop references held by the unused tail
		clear(existing[len(kept):])
		result = kept
	}

	present := make(map[K]struct{}, len(result)+len(incoming))
	for _, it := range result {
		present[key(it)] = struct{}{}
	}
	for _, it := range incoming {
		k := key(it)
		if _, ok := present[k]; ok {
			continue
		}
		present[k] = struct{}{}
		result = append(result, it)
		diff.Added = append(diff.Added, it)
	}

	return result, diff
}
