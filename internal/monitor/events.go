package monitor

import "github.com/adyhwang/clipvault/internal/store"

// EventType discriminates monitor notifications.
type EventType int

const (
	// EventItemCaptured fires after a novel clipboard value is persisted.
	// The attached Item carries its assigned ID and timestamp.
	EventItemCaptured EventType = iota
	// EventDuplicateRefreshed fires when known content was seen again and
	// its timestamp bumped instead of inserting a new row.
	EventDuplicateRefreshed
)

func (t EventType) String() string {
	switch t {
	case EventItemCaptured:
		return "item_captured"
	case EventDuplicateRefreshed:
		return "duplicate_refreshed"
	default:
		return "unknown"
	}
}

// Event is a capture notification. Item is set for EventItemCaptured and
// nil for EventDuplicateRefreshed.
type Event struct {
	Type EventType
	Item *store.Item
}

// Events returns the notification channel. The channel is buffered; when a
// consumer falls behind, further events are dropped rather than stalling
// the poll loop.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

func (m *Monitor) publish(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.log.Debug("monitor: event dropped, consumer slow", "type", ev.Type.String())
	}
}
