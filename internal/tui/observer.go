package tui

import "github.com/mmcdole/marquee/internal/domain"

// ChannelObserver adapts domain.ViewObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- domain.ViewUpdate
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.ViewUpdate) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnViewUpdate sends the update to the channel (non-blocking if full).
// A dropped update is harmless: every update carries the full view state.
func (o *ChannelObserver) OnViewUpdate(update domain.ViewUpdate) {
	select {
	case o.ch <- update:
	default:
	}
}
