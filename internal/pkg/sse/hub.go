package sse

import (
	"sync"
)

// Event is a named payload delivered to the subscribers of a topic.
type Event struct {
	Topic string
	Name  string
	Data  any
}

// Hub fans events out to subscribers grouped by topic. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu          sync.RWMutex
	bufferSize  int
	subscribers map[string]map[chan Event]struct{}
}

func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		bufferSize:  bufferSize,
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a subscriber on topic. The returned cleanup closes the
// channel and must be called exactly once.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.bufferSize)
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[chan Event]struct{})
	}
	h.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[topic], ch)
			close(ch)
			if len(h.subscribers[topic]) == 0 {
				delete(h.subscribers, topic)
			}
		})
	}
	return ch, cleanup
}

func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Topic = topic
	for ch := range h.subscribers[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishToMany sends the same event on each topic.
func (h *Hub) PublishToMany(topics []string, event Event) {
	for _, topic := range topics {
		h.Publish(topic, event)
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}
