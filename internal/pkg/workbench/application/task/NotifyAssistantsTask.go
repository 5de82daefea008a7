package task

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "github.com/payneio/semanticworkbench/internal/infrastructure/queue/port"
	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// NotifyAssistantsTaskType is the queue task name for delivering a
// conversation event to the assistant services attached to the conversation.
const NotifyAssistantsTaskType = "workbench:notify_assistants"

// NotifyAssistantsQueue is the asynq queue the API enqueues event
// notifications on.
const NotifyAssistantsQueue = "events"

const deliveryTimeout = 10 * time.Second

// RegisterNotifyAssistantsTask binds the task handler to the provided server.
// For each active assistant participant of the event's conversation, the
// handler resolves the assistant's endpoint from the directory and POSTs the
// event JSON to it. Delivery failures return an error so the queue retries.
func RegisterNotifyAssistantsTask(srv qport.Server, pool *pgxpool.Pool, log *slog.Logger) {
	httpClient := &http.Client{Timeout: deliveryTimeout}

	srv.Register(NotifyAssistantsTaskType, func(ctx context.Context, t qport.Task) error {
		var evt realtime.Event
		if err := json.Unmarshal(t.Payload, &evt); err != nil {
			// malformed payload: retrying cannot help
			return err
		}

		convRepo := repoAdapter.NewPgConversationRepository(pool)
		directory := repoAdapter.NewPgAssistantRepository(pool)

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		participants, err := convRepo.ListParticipants(ctx, evt.ConversationID)
		if err != nil {
			return err
		}

		var failed int
		for _, p := range participants {
			if p.Role != workbench.ParticipantRoleAssistant || !p.Active {
				continue
			}
			assistant, err := directory.GetAssistant(ctx, p.ID)
			if err != nil || assistant.Endpoint == "" {
				log.Warn("assistant not deliverable", "assistant_id", p.ID, "error", err)
				continue
			}
			if err := deliver(ctx, httpClient, assistant.Endpoint, t.Payload); err != nil {
				log.Error("event delivery failed", "assistant_id", p.ID, "endpoint", assistant.Endpoint, "error", err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("notify assistants: %d deliveries failed", failed)
		}
		return nil
	})
}

func deliver(ctx context.Context, client *http.Client, endpoint string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}
