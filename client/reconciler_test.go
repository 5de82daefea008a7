package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/language"
)

// fakeServer is a minimal in-memory workbench API for view tests. Handlers
// read state under the mutex so tests can mutate it mid-flight.
type fakeServer struct {
	mu           sync.Mutex
	conversation Conversation
	participants []Participant
	messages     []Message
	files        []File
	assistants   []Assistant

	directoryHits int
	events        chan Event
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		conversation: Conversation{ID: "c1", Title: "test", OwnerID: "u1", Permission: "read_write"},
		events:       make(chan Event, 16),
	}
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/conversations/c1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(f.conversation)
	})
	mux.HandleFunc("GET /api/v1/conversations/c1/participants", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"participants": f.participants})
	})
	mux.HandleFunc("GET /api/v1/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"messages": f.messages})
	})
	mux.HandleFunc("GET /api/v1/conversations/c1/files", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"files": f.files})
	})
	mux.HandleFunc("GET /api/v1/assistants", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.directoryHits++
		json.NewEncoder(w).Encode(map[string]any{"assistants": f.assistants})
	})
	mux.HandleFunc("GET /api/v1/conversations/c1/events", func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()
		for {
			select {
			case <-r.Context().Done():
				return
			case evt := <-f.events:
				raw, _ := json.Marshal(evt)
				w.Write([]byte("event: " + evt.Type + "\ndata: "))
				w.Write(raw)
				w.Write([]byte("\n\n"))
				flusher.Flush()
			}
		}
	})
	return mux
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestConversationViewLoadsSnapshot(t *testing.T) {
	fake := newFakeServer()
	fake.participants = []Participant{{ConversationID: "c1", ID: "u1", Role: "user", Name: "Owner", Active: true}}
	fake.messages = []Message{{ID: "m1", ConversationID: "c1", Content: "hi"}}
	fake.files = []File{{ConversationID: "c1", Filename: "notes.txt", Version: 1}}

	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New(srv.URL)
	c.UserID = "u1"

	view := NewConversationView(c, "c1", "u1", language.English)
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer view.Close()

	if got := view.Conversation().Title; got != "test" {
		t.Errorf("title = %q", got)
	}
	if msgs := view.Messages(); len(msgs) != 1 || msgs[0].ID != "m1" {
		t.Errorf("messages = %+v", msgs)
	}
	if files := view.Files(); len(files) != 1 || files[0].Filename != "notes.txt" {
		t.Errorf("files = %+v", files)
	}
}

func TestConversationViewRefetchesOnEvent(t *testing.T) {
	fake := newFakeServer()
	fake.messages = []Message{{ID: "m1", ConversationID: "c1", Content: "hi"}}

	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New(srv.URL)
	c.UserID = "u1"

	view := NewConversationView(c, "c1", "u1", language.English)
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer view.Close()

	// Mutate server state, then announce it the way the API does.
	fake.mu.Lock()
	fake.messages = append(fake.messages, Message{ID: "m2", ConversationID: "c1", Content: "again"})
	fake.mu.Unlock()
	fake.events <- Event{ID: "e1", Type: EventConversationUpdated, ConversationID: "c1"}

	waitFor(t, 3*time.Second, func() bool {
		return len(view.Messages()) == 2
	})
	if msgs := view.Messages(); msgs[1].ID != "m2" {
		t.Errorf("refetched messages = %+v", msgs)
	}
}

func TestEventBurstCoalescesRefetches(t *testing.T) {
	fake := newFakeServer()
	var snapshotFetches int64
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/conversations/c1" {
			// Initial load passes; event-driven refetches stall until released.
			if atomic.AddInt64(&snapshotFetches, 1) > 1 {
				<-release
			}
		}
		fake.handler().ServeHTTP(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL)
	view := NewConversationView(c, "c1", "u1", language.English)
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer view.Close()

	for i := 0; i < 5; i++ {
		fake.events <- Event{ID: "e1", Type: EventConversationUpdated, ConversationID: "c1"}
	}

	// The first event's refetch is stalled; let the remaining events land as
	// dirty marks before releasing it.
	waitFor(t, 3*time.Second, func() bool {
		return atomic.LoadInt64(&snapshotFetches) >= 2
	})
	time.Sleep(200 * time.Millisecond)
	close(release)

	// Load + in-flight refetch + one coalesced follow-up.
	waitFor(t, 3*time.Second, func() bool {
		return atomic.LoadInt64(&snapshotFetches) == 3
	})
	time.Sleep(200 * time.Millisecond)
	if got := atomic.LoadInt64(&snapshotFetches); got != 3 {
		t.Errorf("snapshot fetches = %d, want 3 (five events must coalesce)", got)
	}
}

func TestConversationViewIgnoresOtherConversations(t *testing.T) {
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New(srv.URL)
	view := NewConversationView(c, "c1", "u1", language.English)
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer view.Close()

	fake.mu.Lock()
	fake.messages = []Message{{ID: "m1", ConversationID: "c1"}}
	fake.mu.Unlock()
	fake.events <- Event{ID: "e1", Type: EventMessageCreated, ConversationID: "other"}

	time.Sleep(200 * time.Millisecond)
	if len(view.Messages()) != 0 {
		t.Error("view refetched for an unrelated conversation's event")
	}
}

func TestResolveAssistantsSkipsInactive(t *testing.T) {
	fake := newFakeServer()
	fake.assistants = []Assistant{{ID: "a1", Name: "Bravo"}}

	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New(srv.URL)
	view := NewConversationView(c, "c1", "u1", language.English)
	view.participants = []Participant{
		{ID: "u1", Role: "user", Active: true},
		{ID: "a1", Role: "assistant", Active: true},
		{ID: "a2", Role: "assistant", Active: false},
	}

	resolved, err := view.ResolveAssistants(context.Background())
	if err != nil {
		t.Fatalf("ResolveAssistants: %v", err)
	}
	if len(resolved) != 1 || resolved[0].ID != "a1" {
		t.Errorf("resolved = %+v, want only a1", resolved)
	}
	if resolved[0].Name != "Bravo" {
		t.Errorf("resolved name = %q", resolved[0].Name)
	}
}

func TestResolveAssistantsSortsByName(t *testing.T) {
	fake := newFakeServer()
	fake.assistants = []Assistant{
		{ID: "a1", Name: "zulu"},
		{ID: "a2", Name: "Ábaco"},
		{ID: "a3", Name: "Bravo"},
	}

	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c := New(srv.URL)
	view := NewConversationView(c, "c1", "u1", language.English)
	view.participants = []Participant{
		{ID: "a1", Role: "assistant", Active: true},
		{ID: "a2", Role: "assistant", Active: true},
		{ID: "a3", Role: "assistant", Active: true},
	}

	resolved, err := view.ResolveAssistants(context.Background())
	if err != nil {
		t.Fatalf("ResolveAssistants: %v", err)
	}
	var names []string
	for _, a := range resolved {
		names = append(names, a.Name)
	}
	want := []string{"Ábaco", "Bravo", "zulu"}
	for i := range want {
		if i >= len(names) || names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestResolveAssistantsRefetchesOnMiss(t *testing.T) {
	fake := newFakeServer()
	// Empty on the first read, populated on the second: a stale cached
	// listing that heals on refetch.
	healed := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.directoryHits++
		if fake.directoryHits >= 2 {
			healed = true
		}
		var listing []Assistant
		if healed {
			listing = []Assistant{{ID: "a1", Name: "Bravo"}}
		}
		fake.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"assistants": listing})
	}))
	defer srv.Close()

	c := New(srv.URL)
	view := NewConversationView(c, "c1", "u1", language.English)
	view.participants = []Participant{{ID: "a1", Role: "assistant", Active: true}}

	resolved, err := view.ResolveAssistants(context.Background())
	if err != nil {
		t.Fatalf("ResolveAssistants: %v", err)
	}
	if len(resolved) != 1 || resolved[0].ID != "a1" {
		t.Errorf("resolved = %+v", resolved)
	}
	fake.mu.Lock()
	hits := fake.directoryHits
	fake.mu.Unlock()
	if hits != 2 {
		t.Errorf("directory hits = %d, want 2", hits)
	}
}

func TestResolveAssistantsBoundsRefetches(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		json.NewEncoder(w).Encode(map[string]any{"assistants": []Assistant{}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	view := NewConversationView(c, "c1", "u1", language.English)
	view.participants = []Participant{{ID: "ghost", Role: "assistant", Active: true}}

	_, err := view.ResolveAssistants(context.Background())
	if !errors.Is(err, ErrDirectoryInconsistent) {
		t.Fatalf("error = %v, want ErrDirectoryInconsistent", err)
	}
	if got := atomic.LoadInt64(&hits); got != 1+maxDirectoryRefetches {
		t.Errorf("directory hits = %d, want %d", got, 1+maxDirectoryRefetches)
	}
}

func TestClosedViewStopsRefetching(t *testing.T) {
	fake := newFakeServer()
	var snapshotFetches int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/conversations/c1" {
			atomic.AddInt64(&snapshotFetches, 1)
		}
		fake.handler().ServeHTTP(w, r)
	}))
	defer srv.Close()

	c := New(srv.URL)
	view := NewConversationView(c, "c1", "u1", language.English)
	if err := view.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	view.Close()

	before := atomic.LoadInt64(&snapshotFetches)
	select {
	case fake.events <- Event{ID: "e1", Type: EventConversationUpdated, ConversationID: "c1"}:
	default:
		// Stream already gone; nothing is draining the channel.
	}
	time.Sleep(200 * time.Millisecond)

	if after := atomic.LoadInt64(&snapshotFetches); after != before {
		t.Errorf("snapshot fetches after Close: %d -> %d", before, after)
	}
}

func TestOtherParticipantsExcludesSelfAndInactive(t *testing.T) {
	view := NewConversationView(nil, "c1", "u1", language.English)
	view.participants = []Participant{
		{ID: "u1", Name: "Me", Active: true},
		{ID: "u2", Name: "zoe", Active: true},
		{ID: "u3", Name: "Émile", Active: true},
		{ID: "u4", Name: "Anna", Active: true},
		{ID: "u5", Name: "Ghost", Active: false},
	}

	others := view.OtherParticipants()
	var names []string
	for _, p := range others {
		names = append(names, p.Name)
	}
	want := []string{"Anna", "Émile", "zoe"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}
