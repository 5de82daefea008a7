package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

const sseKeepaliveInterval = 20 * time.Second

// EventStreamController serves a conversation's event stream over SSE. Each
// bus event becomes one "event:"/"data:" frame; a comment frame is written
// periodically so idle connections are not reaped by proxies.
type EventStreamController struct {
	uc  *usecase.GetConversationUseCase
	bus *realtime.Bus
}

func NewEventStreamController(pool *pgxpool.Pool, bus *realtime.Bus) *EventStreamController {
	return &EventStreamController{
		uc:  usecase.NewGetConversationUseCase(repoAdapter.NewPgConversationRepository(pool)),
		bus: bus,
	}
}

func (h *EventStreamController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if _, err := h.uc.Execute(c.Request.Context(), usecase.GetConversationInput{
			ConversationID: conversationID,
			CallerID:       callerID(c),
		}); err != nil {
			respondUseCaseError(c, err)
			return
		}

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Writer.WriteHeader(http.StatusOK)
		flusher.Flush()

		sub := h.bus.Subscribe(conversationID)
		defer h.bus.Unsubscribe(sub)

		keepalive := time.NewTicker(sseKeepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case <-c.Request.Context().Done():
				return
			case <-sub.Done():
				return
			case evt := <-sub.Events():
				if err := writeSSE(c.Writer, evt); err != nil {
					return
				}
				flusher.Flush()
			case <-keepalive.C:
				if _, err := fmt.Fprint(c.Writer, ": keepalive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, evt realtime.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %s\ndata: %s\n\n", evt.Type, evt.ID, payload)
	return err
}
