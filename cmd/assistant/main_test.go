package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/payneio/semanticworkbench/client"
)

func TestRespondBracketsReplyWithStatus(t *testing.T) {
	var mu sync.Mutex
	var patches []string
	var posted bool

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"messages": []client.Message{
			{ID: "m1", ConversationID: "c1", SenderID: "u1", MessageType: "chat", Content: "hi"},
		}})
	})
	mux.HandleFunc("PATCH /api/v1/conversations/c1/participants/a1", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		patches = append(patches, string(body))
		mu.Unlock()
		json.NewEncoder(w).Encode(client.Participant{ConversationID: "c1", ID: "a1"})
	})
	mux.HandleFunc("POST /api/v1/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		posted = true
		mu.Unlock()
		json.NewEncoder(w).Encode(client.Message{ID: "m2", ConversationID: "c1"})
	})
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "hello"},
			}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := openai.DefaultConfig("test")
	cfg.BaseURL = srv.URL + "/v1"

	a := &assistant{
		id:    "a1",
		name:  "Echo",
		wb:    client.New(srv.URL),
		ai:    openai.NewClientWithConfig(cfg),
		model: "test-model",
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := a.respond(context.Background(), "c1"); err != nil {
		t.Fatalf("respond: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !posted {
		t.Error("no reply was posted")
	}
	if len(patches) != 2 {
		t.Fatalf("participant updates = %v, want a status set then a clear", patches)
	}
	if !strings.Contains(patches[0], `"thinking..."`) {
		t.Errorf("first update = %s, want a thinking status", patches[0])
	}
	if !strings.Contains(patches[1], `"status":null`) {
		t.Errorf("second update = %s, want a null status", patches[1])
	}
}

func TestRespondSkipsOwnMessages(t *testing.T) {
	var mu sync.Mutex
	var patched, posted bool

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"messages": []client.Message{
			{ID: "m1", ConversationID: "c1", SenderID: "a1", MessageType: "chat", Content: "hello"},
		}})
	})
	mux.HandleFunc("PATCH /api/v1/conversations/c1/participants/a1", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		patched = true
		mu.Unlock()
		json.NewEncoder(w).Encode(client.Participant{ConversationID: "c1", ID: "a1"})
	})
	mux.HandleFunc("POST /api/v1/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		posted = true
		mu.Unlock()
		json.NewEncoder(w).Encode(client.Message{ID: "m2", ConversationID: "c1"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := &assistant{
		id:   "a1",
		name: "Echo",
		wb:   client.New(srv.URL),
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := a.respond(context.Background(), "c1"); err != nil {
		t.Fatalf("respond: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if patched || posted {
		t.Errorf("patched=%v posted=%v, want no activity after own message", patched, posted)
	}
}
