package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// SendMessageController handles the send-message endpoint only (one
// controller per endpoint). The message is persisted synchronously; fan-out
// to streams and assistants happens through the event sink.
type SendMessageController struct {
	uc   *usecase.SendMessageUseCase
	sink *EventSink
}

func NewSendMessageController(pool *pgxpool.Pool, sink *EventSink) *SendMessageController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &SendMessageController{uc: usecase.NewSendMessageUseCase(repo), sink: sink}
}

type sendMessageRequest struct {
	Content     string  `json:"content" binding:"required"`
	ContentType string  `json:"content_type"`
	MessageType string  `json:"message_type"`
	Metadata    *string `json:"metadata"`
	DedupeKey   *string `json:"dedupe_key"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if conversationID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
			return
		}
		sender := callerID(c)
		if sender == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity is required"})
			return
		}

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		msg, err := h.uc.Execute(c.Request.Context(), usecase.SendMessageInput{
			ConversationID: conversationID,
			SenderID:       sender,
			Content:        req.Content,
			ContentType:    req.ContentType,
			MsgType:        parseMessageType(req.MessageType),
			Metadata:       req.Metadata,
			DedupeKey:      req.DedupeKey,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := toMessageJSON(*msg)
		h.sink.Emit(c.Request.Context(), realtime.EventMessageCreated, conversationID, out)
		c.JSON(http.StatusCreated, out)
	}
}
