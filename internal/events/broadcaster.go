package events

import (
	"sync"
	"sync/atomic"
)

const subscriberBuffer = 64

// Subscriber is a live event feed, usually backing one WebSocket client.
type Subscriber chan Event

// hub fans emitted events out to subscribers. Each subscriber carries a
// session filter; an empty filter receives every event.
type hub struct {
	mu      sync.RWMutex
	filters map[Subscriber]string
	dropped atomic.Uint64
}

var live = &hub{filters: make(map[Subscriber]string)}

// Subscribe registers a feed of every event.
func Subscribe() Subscriber {
	return SubscribeSession("")
}

// SubscribeSession registers a feed of the events of one session. An empty
// sessionID subscribes to everything.
func SubscribeSession(sessionID string) Subscriber {
	sub := make(Subscriber, subscriberBuffer)
	live.mu.Lock()
	live.filters[sub] = sessionID
	live.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Unknown subscribers are ignored.
func Unsubscribe(sub Subscriber) {
	live.mu.Lock()
	defer live.mu.Unlock()
	if _, ok := live.filters[sub]; ok {
		delete(live.filters, sub)
		close(sub)
	}
}

// CloseAllSubscribers closes every feed. Used on shutdown.
func CloseAllSubscribers() {
	live.mu.Lock()
	defer live.mu.Unlock()
	for sub := range live.filters {
		close(sub)
	}
	clear(live.filters)
}

// broadcast never blocks Emit: a subscriber whose buffer is full misses e
// and the miss is counted.
func broadcast(e Event) {
	sessionID := e.SessionID()

	live.mu.RLock()
	defer live.mu.RUnlock()
	for sub, want := range live.filters {
		if want != "" && want != sessionID {
			continue
		}
		select {
		case sub <- e:
		default:
			live.dropped.Add(1)
		}
	}
}

func SubscriberCount() int {
	live.mu.RLock()
	defer live.mu.RUnlock()
	return len(live.filters)
}

// DroppedCount returns how many deliveries were skipped for slow subscribers.
func DroppedCount() uint64 {
	return live.dropped.Load()
}

// RecentEvents returns the newest n buffered events, optionally restricted
// to one session. n <= 0 returns all that match.
func RecentEvents(n int, sessionID string) []Event {
	if sessionID == "" {
		return buffer.Last(n)
	}
	matches := buffer.Select(func(e Event) bool { return e.SessionID() == sessionID })
	if n > 0 && len(matches) > n {
		matches = matches[len(matches)-n:]
	}
	return matches
}
