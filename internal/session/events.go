package session

import (
	"sync"

	"github.com/ziadkadry99/ripview/internal/layers"
)

// EventType identifies a session state change.
type EventType string

const (
	EventDocumentCleared EventType = "document_cleared"
	EventDocumentOpened  EventType = "document_opened"
	EventPageLoading     EventType = "page_loading"
	EventPageLoaded      EventType = "page_loaded"
	EventLayerUpdated    EventType = "layer_updated"
	EventLayerFailed     EventType = "layer_failed"
	EventVisibility      EventType = "visibility"
	EventSearchUpdated   EventType = "search_updated"
	EventBenchmark       EventType = "benchmark"
	EventError           EventType = "error"
)

// Event is pushed to subscribers whenever visible state changes.
type Event struct {
	Type     EventType    `json:"type"`
	Document *Document    `json:"document,omitempty"`
	Page     int          `json:"page,omitempty"`
	Layer    layers.Layer `json:"layer,omitempty"`
	Visible  bool         `json:"visible,omitempty"`
	Count    int          `json:"count,omitempty"`
	Message  string       `json:"message,omitempty"`
	Payload  any          `json:"payload,omitempty"`
}

// Broadcaster fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

// NewBroadcaster returns a broadcaster with no subscribers.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// function unsubscribes and closes the channel.
func (b *Broadcaster) Subscribe(buf int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, buf)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Publish delivers e to every subscriber that has room.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
