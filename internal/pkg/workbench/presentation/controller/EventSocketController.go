package controller

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// socketCommand is an inbound frame on the websocket stream. Clients may
// attach and detach conversations on a single connection.
type socketCommand struct {
	Action         string `json:"action"` // "subscribe" or "unsubscribe"
	ConversationID string `json:"conversation_id"`
}

// EventSocketController is the websocket variant of the event stream. One
// connection can follow any number of conversations.
type EventSocketController struct {
	uc  *usecase.GetConversationUseCase
	bus *realtime.Bus
	log *slog.Logger
}

func NewEventSocketController(pool *pgxpool.Pool, bus *realtime.Bus, log *slog.Logger) *EventSocketController {
	return &EventSocketController{
		uc:  usecase.NewGetConversationUseCase(repoAdapter.NewPgConversationRepository(pool)),
		bus: bus,
		log: log,
	}
}

func (h *EventSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := callerID(c)

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn("websocket upgrade failed", "error", err)
			return
		}

		conn := realtime.NewConnection(userID, ws)
		conn.Start()

		sub := h.bus.Subscribe()
		defer h.bus.Unsubscribe(sub)

		go h.forward(conn, sub)

		for {
			_, raw, err := ws.ReadMessage()
			if err != nil {
				conn.Close(websocket.CloseNormalClosure, "client gone")
				return
			}

			var cmd socketCommand
			if err := json.Unmarshal(raw, &cmd); err != nil || cmd.ConversationID == "" {
				continue
			}

			switch cmd.Action {
			case "subscribe":
				if _, err := h.uc.Execute(c.Request.Context(), usecase.GetConversationInput{
					ConversationID: cmd.ConversationID,
					CallerID:       userID,
				}); err != nil {
					h.log.Debug("socket subscribe rejected", "conversation_id", cmd.ConversationID, "error", err)
					continue
				}
				h.bus.Join(cmd.ConversationID, sub)
			case "unsubscribe":
				h.bus.Leave(cmd.ConversationID, sub)
			}
		}
	}
}

func (h *EventSocketController) forward(conn *realtime.Connection, sub *realtime.Subscriber) {
	for {
		select {
		case <-sub.Done():
			conn.Close(websocket.CloseGoingAway, "stream closed")
			return
		case evt := <-sub.Events():
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if err := conn.Send(payload); err != nil {
				return
			}
		}
	}
}
