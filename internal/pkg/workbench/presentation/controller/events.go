package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	qport "github.com/payneio/semanticworkbench/internal/infrastructure/queue/port"
	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/task"
)

// EventSink fans a conversation mutation out to live stream subscribers and
// to the background queue that delivers it to registered assistants. Each
// mutation also emits conversation.updated so refetch-style clients need only
// one listener.
type EventSink struct {
	Bus *realtime.Bus
	Q   qport.Client
	Log *slog.Logger
}

func NewEventSink(bus *realtime.Bus, q qport.Client, log *slog.Logger) *EventSink {
	return &EventSink{Bus: bus, Q: q, Log: log}
}

// Emit publishes eventType for the conversation with payload serialized as
// the event data. Fan-out is best-effort: a mutation that already committed
// is never rolled back because a notification failed.
func (s *EventSink) Emit(ctx context.Context, eventType, conversationID string, payload any) {
	if s == nil {
		return
	}

	var data json.RawMessage
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			data = raw
		} else {
			s.Log.Warn("event payload not serializable", "event", eventType, "error", err)
		}
	}

	evt := realtime.NewEvent(eventType, conversationID, data)
	if s.Bus != nil {
		s.Bus.Publish(evt)
		if eventType != realtime.EventConversationUpdated {
			s.Bus.Publish(realtime.NewEvent(realtime.EventConversationUpdated, conversationID, nil))
		}
	}

	if s.Q != nil {
		raw, err := json.Marshal(evt)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		_, err = s.Q.Enqueue(ctx, qport.Task{Type: task.NotifyAssistantsTaskType, Payload: raw},
			qport.EnqueueOption{Queue: task.NotifyAssistantsQueue, MaxRetry: 10})
		if err != nil {
			s.Log.Error("enqueue assistant notification", "event", eventType, "conversation_id", conversationID, "error", err)
		}
	}
}
