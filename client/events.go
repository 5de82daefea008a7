package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Event is a notification received on a conversation stream.
type Event struct {
	ID             string          `json:"id"`
	Type           string          `json:"event"`
	ConversationID string          `json:"conversation_id"`
	Timestamp      time.Time       `json:"timestamp"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Event type names, matching what the server emits.
const (
	EventConversationUpdated = "conversation.updated"
	EventMessageCreated      = "message.created"
	EventMessageDeleted      = "message.deleted"
	EventParticipantCreated  = "participant.created"
	EventParticipantUpdated  = "participant.updated"
	EventFileCreated         = "file.created"
	EventFileDeleted         = "file.deleted"
)

// ListenerFunc handles one event. Listeners run serially on the stream's
// dispatch goroutine, in registration order; a slow listener delays the rest.
type ListenerFunc func(Event)

// ListenerHandle identifies a registered listener so it can be removed.
type ListenerHandle int

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// EventStream consumes a conversation's SSE endpoint and fans events out to
// registered listeners. It reconnects automatically until closed; events
// published while disconnected are not replayed, so consumers refetch state
// after a gap rather than assuming continuity.
type EventStream struct {
	client         *Client
	conversationID string

	mu         sync.Mutex
	listeners  map[ListenerHandle]ListenerFunc
	order      []ListenerHandle
	nextHandle ListenerHandle

	cancel context.CancelFunc
	done   chan struct{}
}

// OpenEventStream connects to the conversation's event stream and starts
// dispatching. The stream runs until Close or until ctx is canceled.
func (c *Client) OpenEventStream(ctx context.Context, conversationID string) *EventStream {
	ctx, cancel := context.WithCancel(ctx)
	s := &EventStream{
		client:         c,
		conversationID: conversationID,
		listeners:      make(map[ListenerHandle]ListenerFunc),
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// AddListener registers fn and returns a handle for removal.
func (s *EventStream) AddListener(fn ListenerFunc) ListenerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.nextHandle
	s.nextHandle++
	s.listeners[h] = fn
	s.order = append(s.order, h)
	return h
}

// RemoveListener unregisters the listener for h. Removing an unknown handle
// is a no-op.
func (s *EventStream) RemoveListener(h ListenerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[h]; !ok {
		return
	}
	delete(s.listeners, h)
	for i, existing := range s.order {
		if existing == h {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Close stops the stream and waits for the dispatch goroutine to exit.
func (s *EventStream) Close() {
	s.cancel()
	<-s.done
}

// Done is closed when the stream has fully stopped.
func (s *EventStream) Done() <-chan struct{} {
	return s.done
}

func (s *EventStream) run(ctx context.Context) {
	defer close(s.done)

	backoff := reconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			backoff = reconnectMin
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

// consume holds one SSE connection open, dispatching until it drops.
func (s *EventStream) consume(ctx context.Context) error {
	path := "/conversations/" + url.PathEscape(s.conversationID) + "/events"
	req, err := s.client.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	httpClient := &http.Client{Transport: s.client.httpClient().Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var data []byte
	for scanner.Scan() {
		line := scanner.Bytes()
		switch {
		case len(line) == 0:
			if len(data) > 0 {
				s.dispatch(data)
				data = nil
			}
		case line[0] == ':':
			// keepalive comment
		case bytes.HasPrefix(line, []byte("data:")):
			data = append(data, bytes.TrimSpace(line[len("data:"):])...)
		}
	}
	return scanner.Err()
}

func (s *EventStream) dispatch(raw []byte) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return
	}

	s.mu.Lock()
	fns := make([]ListenerFunc, 0, len(s.order))
	for _, h := range s.order {
		fns = append(fns, s.listeners[h])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(evt)
	}
}
