package catalog

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/marquee/internal/domain"
)

func TestReconcileUnionAppendsUnseen(t *testing.T) {
	existing := movies("m", 1, 3)
	incoming := []*domain.Movie{movie("m2"), movie("m4"), movie("m5"), movie("m4")}

	merged, diff := Reconcile(existing, incoming, MovieIdentity, MergeUnion)

	assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5"}, ids(merged))
	assert.Equal(t, []string{"m4", "m5"}, ids(diff.Added))
	assert.Empty(t, diff.Removed)
}

func TestReconcileUnionKeepsExistingInstance(t *testing.T) {
	original := movie("m1")
	replacement := &domain.Movie{ID: "m1", Title: "Other title"}

	merged, diff := Reconcile([]*domain.Movie{original}, []*domain.Movie{replacement}, MovieIdentity, MergeUnion)

	assert.Same(t, original, merged[0])
	assert.True(t, diff.Empty())
}

func TestReconcileReplaceRemovesMissing(t *testing.T) {
	existing := movies("f", 1, 4)
	incoming := []*domain.Movie{movie("f4"), movie("f2"), movie("f5")}

	merged, diff := Reconcile(existing, incoming, MovieIdentity, MergeReplace)

	// Survivors keep their order; new items are appended.
	assert.Equal(t, []string{"f2", "f4", "f5"}, ids(merged))
	assert.Equal(t, []string{"f1", "f3"}, ids(diff.Removed))
	assert.Equal(t, []string{"f5"}, ids(diff.Added))
}

func TestReconcileReplaceWithIdenticalSetIsEmpty(t *testing.T) {
	existing := movies("f", 1, 3)

	merged, diff := Reconcile(existing, movies("f", 1, 3), MovieIdentity, MergeReplace)

	assert.Equal(t, []string{"f1", "f2", "f3"}, ids(merged))
	assert.True(t, diff.Empty())
}

func TestReconcileReplaceWithEmptyIncoming(t *testing.T) {
	merged, diff := Reconcile(movies("f", 1, 2), nil, MovieIdentity, MergeReplace)

	assert.Empty(t, merged)
	assert.Equal(t, []string{"f1", "f2"}, ids(diff.Removed))
}

func TestReconcileIntoEmpty(t *testing.T) {
	merged, diff := Reconcile(nil, movies("m", 1, 3), MovieIdentity, MergeUnion)

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(merged))
	assert.Len(t, diff.Added, 3)
}

func TestReconcileGenericKey(t *testing.T) {
	type row struct {
		key int
		val string
	}
	byKey := func(r row) int { return r.key }

	merged, diff := Reconcile(
		[]row{{1, "a"}, {2, "b"}},
		[]row{{2, "x"}, {3, "c"}},
		byKey,
		MergeReplace,
	)

	assert.Equal(t, []row{{2, "b"}, {3, "c"}}, merged)
	assert.Equal(t, []row{{1, "a"}}, diff.Removed)
	assert.Equal(t, []row{{3, "c"}}, diff.Added)
}

func TestReconcileProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	pool := movies("p", 0, 29)

	for _, mode := range []MergeMode{MergeUnion, MergeReplace} {
		for round := range 500 {
			// Existing holds unique ids; incoming may repeat them
			existing := slices.Clone(pool[:rng.IntN(len(pool))])
			rng.Shuffle(len(existing), func(i, j int) { existing[i], existing[j] = existing[j], existing[i] })
			incoming := make([]*domain.Movie, rng.IntN(40))
			for i := range incoming {
				incoming[i] = pool[rng.IntN(len(pool))]
			}

			before := ids(existing)
			inIncoming := make(map[string]bool)
			for _, m := range incoming {
				inIncoming[m.ID] = true
			}

			var survivors, removed []string
			for _, id := range before {
				if mode == MergeReplace && !inIncoming[id] {
					removed = append(removed, id)
					continue
				}
				survivors = append(survivors, id)
			}
			var added []string
			seen := make(map[string]bool)
			for _, id := range before {
				seen[id] = true
			}
			for _, m := range incoming {
				if !seen[m.ID] {
					seen[m.ID] = true
					added = append(added, m.ID)
				}
			}

			merged, diff := Reconcile(existing, incoming, MovieIdentity, mode)
			got := ids(merged)

			require.Len(t, got, len(survivors)+len(added), "mode %d round %d", mode, round)
			unique := make(map[string]bool, len(got))
			for _, id := range got {
				require.False(t, unique[id], "duplicate %s in mode %d round %d", id, mode, round)
				unique[id] = true
			}
			assert.Equal(t, survivors, nilIfEmpty(got[:len(survivors)]), "survivor order, round %d", round)
			assert.Equal(t, added, nilIfEmpty(got[len(survivors):]), "appended order, round %d", round)
			assert.Equal(t, added, nilIfEmpty(ids(diff.Added)), "round %d", round)
			assert.Equal(t, removed, nilIfEmpty(ids(diff.Removed)), "round %d", round)
			if mode == MergeReplace {
				assert.Len(t, unique, len(inIncoming), "replace keeps exactly the incoming set, round %d", round)
			}
		}
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}
