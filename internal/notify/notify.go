// Package notify is the synchronous publish/subscribe bus that carries
// engine notifications to observers.
//
// Delivery is synchronous and in subscription order. A handler error or
// panic is logged and never stops delivery to the remaining handlers.
// Unsubscribing is the only form of cancellation.
package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/gamify/internal/ir"
)

// Topic names a notification kind.
type Topic string

const (
	TopicLevelUp           Topic = "level.up"
	TopicAchievementEarned Topic = "achievement.earned"
	TopicMissionCompleted  Topic = "mission.completed"
	TopicUserUpdated       Topic = "user.updated"
	TopicEventProcessed    Topic = "event.processed"
)

// Topics lists every topic the engine publishes.
var Topics = []Topic{
	TopicLevelUp,
	TopicAchievementEarned,
	TopicMissionCompleted,
	TopicUserUpdated,
	TopicEventProcessed,
}

// ErrBusClosed is returned when subscribing to or publishing on a closed bus.
var ErrBusClosed = errors.New("notification bus is closed")

// Notification is one message on the bus. Fields beyond Topic, UserID and
// At are set according to the topic.
type Notification struct {
	Topic  Topic     `json:"topic"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
	Seq    int64     `json:"seq,omitempty"` // seq of the triggering event, if any

	// level.up
	OldLevel int `json:"old_level,omitempty"`
	NewLevel int `json:"new_level,omitempty"`

	// achievement.earned, mission.completed
	Achievement *ir.Achievement `json:"achievement,omitempty"`

	// event.processed
	EventType string `json:"event_type,omitempty"`
	RuleID    string `json:"rule_id,omitempty"`
	XPDelta   int64  `json:"xp_delta,omitempty"`

	// user.updated
	User *ir.User `json:"user,omitempty"`
}

// Handler receives notifications.
type Handler func(Notification) error

type subscription struct {
	id      uint64
	handler Handler
}

// Bus fans notifications out to subscribers.
//
// Thread-safety: Bus is safe for concurrent use. Handlers may subscribe,
// unsubscribe or publish from inside a delivery.
type Bus struct {
	mu     sync.RWMutex
	topics map[Topic][]subscription
	all    []subscription
	nextID uint64
	closed bool

	published map[Topic]int64
	logger    *slog.Logger
}

// New creates a bus. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		topics:    make(map[Topic][]subscription),
		published: make(map[Topic]int64),
		logger:    logger,
	}
}

// Subscribe registers a handler for one topic and returns a function that
// removes it.
func (b *Bus) Subscribe(topic Topic, h Handler) (func(), error) {
	if h == nil {
		return nil, errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}

	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: h})
	b.logger.Debug("subscribed handler", "topic", topic)

	return func() { b.unsubscribe(topic, id) }, nil
}

// SubscribeAll registers a handler for every topic.
func (b *Bus) SubscribeAll(h Handler) (func(), error) {
	if h == nil {
		return nil, errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}

	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: h})
	b.logger.Debug("subscribed global handler")

	return func() { b.unsubscribe("", id) }, nil
}

// Publish delivers n to the topic's handlers, then to global handlers.
func (b *Bus) Publish(n Notification) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBusClosed
	}
	handlers := make([]subscription, 0, len(b.topics[n.Topic])+len(b.all))
	handlers = append(handlers, b.topics[n.Topic]...)
	handlers = append(handlers, b.all...)
	b.published[n.Topic]++
	b.mu.Unlock()

	for _, s := range handlers {
		if err := b.deliver(s.handler, n); err != nil {
			b.logger.Error("notification handler error",
				"topic", n.Topic,
				"user", n.UserID,
				"error", err,
			)
		}
	}
	return nil
}

// Published returns how many notifications of a topic were published.
func (b *Bus) Published(topic Topic) int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.published[topic]
}

// Close drops every subscription. Later calls to Subscribe and Publish
// return ErrBusClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.topics = make(map[Topic][]subscription)
	b.all = nil
	return nil
}

func (b *Bus) deliver(h Handler, n Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(n)
}

// unsubscribe removes subscription id. An empty topic means the global list.
func (b *Bus) unsubscribe(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remove := func(subs []subscription) []subscription {
		out := subs[:0:0]
		for _, s := range subs {
			if s.id != id {
				out = append(out, s)
			}
		}
		return out
	}
	if topic == "" {
		b.all = remove(b.all)
		return
	}
	b.topics[topic] = remove(b.topics[topic])
}
