// An example assistant service. It registers itself in the workbench
// directory, receives conversation events pushed by the worker, and answers
// chat messages with an OpenAI completion over the recent history.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"github.com/payneio/semanticworkbench/client"
)

const (
	registerInterval = time.Minute
	historyLimit     = 50
)

type assistant struct {
	id     string
	name   string
	wb     *client.Client
	ai     *openai.Client
	model  string
	log    *slog.Logger
	router chan client.Event
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found or could not be loaded", "error", err)
	}

	apiBase := envOr("WORKBENCH_URL", "http://localhost:8080")
	addr := envOr("ASSISTANT_ADDR", ":8090")
	endpoint := envOr("ASSISTANT_ENDPOINT", "http://localhost:8090/events")
	name := envOr("ASSISTANT_NAME", "Echo Assistant")
	model := envOr("OPENAI_MODEL", openai.GPT4o)

	wb := client.New(apiBase)
	wb.APIKey = os.Getenv("WORKBENCH_API_KEY")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registered, err := wb.RegisterAssistant(ctx, client.RegisterAssistantRequest{
		ID:           os.Getenv("ASSISTANT_ID"),
		Name:         name,
		Endpoint:     endpoint,
		Capabilities: []string{"chat"},
	})
	if err != nil {
		log.Error("registration failed", "error", err)
		os.Exit(1)
	}
	wb.AssistantID = registered.ID
	log.Info("registered", "assistant_id", registered.ID, "name", registered.Name)

	a := &assistant{
		id:     registered.ID,
		name:   name,
		wb:     wb,
		ai:     openai.NewClient(os.Getenv("OPENAI_API_KEY")),
		model:  model,
		log:    log,
		router: make(chan client.Event, 256),
	}

	go a.heartbeat(ctx, endpoint)
	go a.respondLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", a.handleEvent)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info("assistant listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// handleEvent accepts a pushed conversation event and hands it to the
// responder. The delivery request is acknowledged immediately; a slow model
// call must not block the worker's retry loop.
func (a *assistant) handleEvent(w http.ResponseWriter, r *http.Request) {
	var evt client.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		http.Error(w, "bad event payload", http.StatusBadRequest)
		return
	}
	select {
	case a.router <- evt:
	default:
		a.log.Warn("event buffer full, dropping", "event", evt.Type, "conversation_id", evt.ConversationID)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *assistant) respondLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-a.router:
			if evt.Type != client.EventMessageCreated {
				continue
			}
			if err := a.respond(ctx, evt.ConversationID); err != nil {
				a.log.Error("respond failed", "conversation_id", evt.ConversationID, "error", err)
			}
		}
	}
}

// respond regenerates a reply from the latest history. The triggering event
// is only a wake-up; state always comes from a fresh fetch.
func (a *assistant) respond(ctx context.Context, conversationID string) error {
	history, err := a.wb.ListMessages(ctx, conversationID, historyLimit, "")
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}

	last := history[len(history)-1]
	if last.SenderID == a.id || last.MessageType != "chat" {
		return nil
	}

	a.setStatus(ctx, conversationID, "thinking...")
	defer a.clearStatus(conversationID)

	msgs := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: "You are " + a.name + ", a helpful assistant in a shared conversation.",
	}}
	for _, m := range history {
		if m.MessageType != "chat" {
			continue
		}
		role := openai.ChatMessageRoleUser
		if m.SenderID == a.id {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	completion, err := a.ai.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: msgs,
	})
	if err != nil {
		return err
	}
	if len(completion.Choices) == 0 {
		return nil
	}

	// Dedupe on the triggering message so a queue redelivery cannot double-post.
	dedupe := a.id + ":" + last.ID
	_, err = a.wb.SendMessage(ctx, conversationID, client.SendMessageRequest{
		Content:   completion.Choices[0].Message.Content,
		DedupeKey: &dedupe,
	})
	return err
}

// setStatus publishes a participant status so other clients can show the
// assistant is working. Status is cosmetic; failures only log.
func (a *assistant) setStatus(ctx context.Context, conversationID, status string) {
	if _, err := a.wb.UpdateParticipant(ctx, conversationID, a.id, client.UpdateParticipantRequest{
		Status: &status,
	}); err != nil {
		a.log.Warn("status update failed", "conversation_id", conversationID, "error", err)
	}
}

// clearStatus runs on the way out of respond, including cancellation, so a
// stale "thinking..." never lingers.
func (a *assistant) clearStatus(conversationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := a.wb.UpdateParticipant(ctx, conversationID, a.id, client.UpdateParticipantRequest{
		ClearStatus: true,
	}); err != nil {
		a.log.Warn("status clear failed", "conversation_id", conversationID, "error", err)
	}
}

// heartbeat re-registers periodically so the directory's last_seen stays
// fresh and the assistant reads as online.
func (a *assistant) heartbeat(ctx context.Context, endpoint string) {
	ticker := time.NewTicker(registerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.wb.RegisterAssistant(ctx, client.RegisterAssistantRequest{
				ID:           a.id,
				Name:         a.name,
				Endpoint:     endpoint,
				Capabilities: []string{"chat"},
			}); err != nil {
				a.log.Warn("heartbeat failed", "error", err)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
