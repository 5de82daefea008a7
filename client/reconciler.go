package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/language"
)

// ErrDirectoryInconsistent means an active assistant participant stayed
// absent from the assistant directory across the allowed number of directory
// refetches. The conversation references an assistant the directory does not
// know about.
var ErrDirectoryInconsistent = errors.New("assistant directory inconsistent with conversation participants")

// maxDirectoryRefetches bounds the self-healing directory reload during
// assistant resolution. A fresh listing usually heals a stale cache on the
// first retry; anything past this count is a real inconsistency.
const maxDirectoryRefetches = 3

// ConversationView is a client-side materialization of one conversation. It
// loads a full snapshot, then refetches the whole snapshot whenever any event
// arrives for the conversation. Refetching on every event instead of applying
// deltas keeps the view correct across missed events and reconnects.
type ConversationView struct {
	client  *Client
	convID  string
	localID string
	locale  language.Tag

	stream *EventStream
	handle ListenerHandle

	mu           sync.RWMutex
	conversation Conversation
	participants []Participant
	messages     []Message
	files        []File
	loadErr      error

	// refetch coalescing: while one refetch is in flight, further events set
	// dirty and exactly one more refetch follows.
	refetchMu  sync.Mutex
	refetching bool
	dirty      bool
}

// NewConversationView creates an unloaded view. localUserID is the identity
// the view belongs to; it is excluded from OtherParticipants. The locale
// drives participant name ordering.
func NewConversationView(c *Client, conversationID, localUserID string, locale language.Tag) *ConversationView {
	return &ConversationView{
		client:  c,
		convID:  conversationID,
		localID: localUserID,
		locale:  locale,
	}
}

// Load fetches the initial snapshot and then subscribes to the conversation's
// event stream. The listener is installed only after the snapshot succeeds,
// so a view is never live with empty state.
func (v *ConversationView) Load(ctx context.Context) error {
	if err := v.refetch(ctx); err != nil {
		return err
	}

	v.stream = v.client.OpenEventStream(ctx, v.convID)
	v.handle = v.stream.AddListener(func(evt Event) {
		if evt.ConversationID != v.convID {
			return
		}
		v.requestRefetch()
	})
	return nil
}

// Close detaches the view's listener and stops its stream.
func (v *ConversationView) Close() {
	if v.stream == nil {
		return
	}
	v.stream.RemoveListener(v.handle)
	v.stream.Close()
	v.stream = nil
}

// Conversation returns the last loaded conversation snapshot.
func (v *ConversationView) Conversation() Conversation {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.conversation
}

// Participants returns a copy of the last loaded participant list.
func (v *ConversationView) Participants() []Participant {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Participant, len(v.participants))
	copy(out, v.participants)
	return out
}

// Messages returns a copy of the last loaded message history, oldest first.
func (v *ConversationView) Messages() []Message {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Message, len(v.messages))
	copy(out, v.messages)
	return out
}

// Files returns a copy of the last loaded file listing.
func (v *ConversationView) Files() []File {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]File, len(v.files))
	copy(out, v.files)
	return out
}

// Err reports the failure of the most recent background refetch, if any. A
// successful refetch clears it.
func (v *ConversationView) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadErr
}

// OtherParticipants returns the active participants other than the local
// user, ordered by display name under the view's locale.
func (v *ConversationView) OtherParticipants() []Participant {
	v.mu.RLock()
	others := make([]Participant, 0, len(v.participants))
	for _, p := range v.participants {
		if p.ID == v.localID || !p.Active {
			continue
		}
		others = append(others, p)
	}
	v.mu.RUnlock()

	SortParticipantsByName(others, v.locale)
	return others
}

// ResolveAssistants maps the view's active assistant participants onto
// assistant directory entries, returned sorted by name under the view's
// locale. A participant missing from the listing triggers a directory
// refetch, which heals a stale cached listing; after maxDirectoryRefetches
// the miss is treated as a real inconsistency. Inactive participants are
// never resolved.
func (v *ConversationView) ResolveAssistants(ctx context.Context) ([]Assistant, error) {
	v.mu.RLock()
	wanted := make([]string, 0, len(v.participants))
	for _, p := range v.participants {
		if p.Role == "assistant" && p.Active {
			wanted = append(wanted, p.ID)
		}
	}
	v.mu.RUnlock()

	if len(wanted) == 0 {
		return nil, nil
	}

	byID := make(map[string]Assistant)
	load := func() error {
		listing, err := v.client.ListAssistants(ctx)
		if err != nil {
			return err
		}
		clear(byID)
		for _, a := range listing {
			byID[a.ID] = a
		}
		return nil
	}
	if err := load(); err != nil {
		return nil, err
	}

	refetches := 0
	resolved := make([]Assistant, 0, len(wanted))
	for _, id := range wanted {
		a, ok := byID[id]
		for !ok {
			if refetches >= maxDirectoryRefetches {
				return nil, fmt.Errorf("%w: assistant %s not in directory", ErrDirectoryInconsistent, id)
			}
			refetches++
			if err := load(); err != nil {
				return nil, err
			}
			a, ok = byID[id]
		}
		resolved = append(resolved, a)
	}

	SortAssistantsByName(resolved, v.locale)
	return resolved, nil
}

// requestRefetch schedules a snapshot reload. Events arriving during a
// reload coalesce into a single followup reload.
func (v *ConversationView) requestRefetch() {
	v.refetchMu.Lock()
	if v.refetching {
		v.dirty = true
		v.refetchMu.Unlock()
		return
	}
	v.refetching = true
	v.refetchMu.Unlock()

	go func() {
		for {
			err := v.refetch(context.Background())

			v.mu.Lock()
			v.loadErr = err
			v.mu.Unlock()

			v.refetchMu.Lock()
			if v.dirty {
				v.dirty = false
				v.refetchMu.Unlock()
				continue
			}
			v.refetching = false
			v.refetchMu.Unlock()
			return
		}
	}()
}

// refetch replaces the whole snapshot from the server.
func (v *ConversationView) refetch(ctx context.Context) error {
	conv, err := v.client.GetConversation(ctx, v.convID)
	if err != nil {
		return err
	}
	participants, err := v.client.ListParticipants(ctx, v.convID)
	if err != nil {
		return err
	}
	messages, err := v.client.ListMessages(ctx, v.convID, 0, "")
	if err != nil {
		return err
	}
	files, err := v.client.ListFiles(ctx, v.convID)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.conversation = *conv
	v.participants = participants
	v.messages = messages
	v.files = files
	v.loadErr = nil
	v.mu.Unlock()
	return nil
}
