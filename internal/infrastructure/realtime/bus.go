package realtime

import (
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 64

// Subscriber receives events for the conversations it is subscribed to.
// Events are delivered in publish order on a buffered channel; a subscriber
// that stops draining is dropped by the bus to keep fan-out bounded.
type Subscriber struct {
	ID string

	ch   chan Event
	once sync.Once
	done chan struct{}
}

func newSubscriber() *Subscriber {
	return &Subscriber{
		ID:   uuid.NewString(),
		ch:   make(chan Event, subscriberBuffer),
		done: make(chan struct{}),
	}
}

// Events exposes the delivery channel. The channel is never closed; select
// on Done to learn the subscriber has been removed. Closing the channel here
// would race with Publish, which may be selecting a send on it from another
// goroutine.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Done is closed when the subscriber has been removed from the bus.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Bus coordinates event subscribers and logical rooms (conversations).
// It allows efficient fan-out of conversation events to every stream
// currently attached to that conversation.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber            // subscriberID -> subscriber
	rooms       map[string]map[string]*Subscriber // conversationID -> subscriberID -> subscriber
	subRooms    map[string]map[string]struct{}    // subscriberID -> set of conversationIDs
}

// NewBus constructs an initialized Bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]*Subscriber),
		rooms:       make(map[string]map[string]*Subscriber),
		subRooms:    make(map[string]map[string]struct{}),
	}
}

// Subscribe registers a new subscriber attached to the given conversations.
// The caller must eventually Unsubscribe it.
func (b *Bus) Subscribe(conversationIDs ...string) *Subscriber {
	sub := newSubscriber()

	b.mu.Lock()
	b.subscribers[sub.ID] = sub
	b.subRooms[sub.ID] = make(map[string]struct{})
	b.mu.Unlock()

	for _, id := range conversationIDs {
		b.Join(id, sub)
	}
	return sub
}

// Unsubscribe removes the subscriber from every room and signals Done.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	b.removeLocked(sub.ID)
	b.mu.Unlock()
	sub.close()
}

// Join adds the subscriber to the conversation room.
func (b *Bus) Join(conversationID string, sub *Subscriber) {
	if conversationID == "" || sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub.ID]; !ok {
		return
	}

	room := b.rooms[conversationID]
	if room == nil {
		room = make(map[string]*Subscriber)
		b.rooms[conversationID] = room
	}
	room[sub.ID] = sub

	memberships := b.subRooms[sub.ID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		b.subRooms[sub.ID] = memberships
	}
	memberships[conversationID] = struct{}{}
}

// Leave removes the subscriber from the conversation room.
func (b *Bus) Leave(conversationID string, sub *Subscriber) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	b.leaveLocked(conversationID, sub.ID)
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber in the event's conversation
// room and reports how many received it. Subscribers with a full buffer are
// dropped rather than blocking the publisher.
func (b *Bus) Publish(evt Event) int {
	b.mu.RLock()
	room := b.rooms[evt.ConversationID]
	if len(room) == 0 {
		b.mu.RUnlock()
		return 0
	}
	targets := make([]*Subscriber, 0, len(room))
	for _, sub := range room {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	delivered := 0
	var stalled []*Subscriber
	for _, sub := range targets {
		select {
		case sub.ch <- evt:
			delivered++
		case <-sub.done:
		default:
			stalled = append(stalled, sub)
		}
	}
	for _, sub := range stalled {
		b.Unsubscribe(sub)
	}
	return delivered
}

// Close removes all subscribers and clears bus state.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.subscribers = make(map[string]*Subscriber)
	b.rooms = make(map[string]map[string]*Subscriber)
	b.subRooms = make(map[string]map[string]struct{})
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

func (b *Bus) removeLocked(subscriberID string) {
	if _, ok := b.subscribers[subscriberID]; !ok {
		return
	}
	delete(b.subscribers, subscriberID)
	for roomID := range b.subRooms[subscriberID] {
		b.leaveLocked(roomID, subscriberID)
	}
	delete(b.subRooms, subscriberID)
}

func (b *Bus) leaveLocked(conversationID, subscriberID string) {
	room := b.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, subscriberID)
	if len(room) == 0 {
		delete(b.rooms, conversationID)
	}
	if memberships, ok := b.subRooms[subscriberID]; ok {
		delete(memberships, conversationID)
	}
}
