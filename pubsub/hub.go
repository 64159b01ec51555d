// Package pubsub is the in-process fan-out layer behind live subscriptions.
// Every store mutation publishes a change event keyed by entity + filter
// predicate (the topic); subscribers register cancellable handlers keyed the
// same way. The socket layer taps the hub and forwards events to connected
// clients.
package pubsub

import "sync"

// Event kinds
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Event is one change notification. Payload is whatever entity changed;
// slow consumers may miss events and are expected to re-fetch.
type Event struct {
	Topic   string      `json:"topic"`
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload,omitempty"`
}

// Topic builders. A topic names one collection filtered one way.
func FriendRequestsTopic(userID string) string { return "friend-requests:user#" + userID }
func GroupsTopic(userID string) string         { return "groups:user#" + userID }
func MessagesTopic(groupID string) string      { return "messages:group#" + groupID }
func TypingTopic(groupID string) string        { return "typing:group#" + groupID }
func PollsTopic(groupID string) string         { return "polls:group#" + groupID }

const subscriptionBuffer = 16

// Subscription is one registered listener. C delivers events in publish
// order until Cancel is called. Cancel is idempotent and releases the
// hub-side registration; it does not roll back anything already published.
type Subscription struct {
	C     chan Event
	topic string
	hub   *Hub
	once  sync.Once
}

// Cancel unregisters the subscription and closes C.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.C)
	})
}

// Topic returns the topic this subscription listens on.
func (s *Subscription) Topic() string { return s.topic }

// Hub routes events from publishers to per-topic subscribers and global
// taps. Safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
	taps []func(Event)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a listener on topic.
func (h *Hub) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		C:     make(chan Event, subscriptionBuffer),
		topic: topic,
		hub:   h,
	}
	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*Subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Tap registers a global sink invoked for every published event, regardless
// of topic. Used by the socket bridge.
func (h *Hub) Tap(fn func(Event)) {
	h.mu.Lock()
	h.taps = append(h.taps, fn)
	h.mu.Unlock()
}

// Publish fans ev out to the topic's subscribers and all taps. Publishers
// never block: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ev Event) {
	// Sends stay under the read lock so Cancel cannot close a channel
	// mid-delivery; sends are non-blocking so the lock is held briefly.
	h.mu.RLock()
	for sub := range h.subs[ev.Topic] {
		select {
		case sub.C <- ev:
		default:
		}
	}
	taps := h.taps
	h.mu.RUnlock()

	for _, fn := range taps {
		fn(ev)
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.topic)
		}
	}
}
