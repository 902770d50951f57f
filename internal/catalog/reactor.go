package catalog

import (
	"github.com/mmcdole/marquee/internal/domain"
)

// watchFilters subscribes v to the filter keys it depends on. Keys outside
// v.keys are never subscribed, so they cannot disturb the view.
func (v *View) watchFilters(filters domain.FilterSource) {
	if filters == nil {
		return
	}
	for _, key := range v.keys {
		v.addSubscription(filters.Subscribe(key, v.onFilterChange))
	}
}

// onFilterChange restarts the view from page 1 when the change is real and
// not already applied. The reset is visible before it returns; the first page
// loads in the background.
func (v *View) onFilterChange(change domain.FilterChange) {
	if !change.Changed() {
		return
	}

	v.mu.Lock()
	if v.closed || v.criteria.Value(change.Key) == change.New.Value(change.Key) {
		v.mu.Unlock()
		return
	}
	v.resetLocked(v.criteria.With(change.Key, change.New))
	job := v.beginLocked(v.ctx)
	v.bg.Add(1)
	v.mu.Unlock()

	v.logger.Info("filter changed",
		"key", string(change.Key),
		"old", change.Old.Value(change.Key),
		"new", change.New.Value(change.Key),
		"session", job.session.ID(),
	)
	v.publish(domain.ViewUpdate{State: job.state})
	v.background(job)
}
