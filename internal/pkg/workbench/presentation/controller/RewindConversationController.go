package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// RewindConversationController truncates history to before the given message:
// that message and everything after it are removed.
type RewindConversationController struct {
	uc   *usecase.RewindConversationUseCase
	sink *EventSink
}

func NewRewindConversationController(pool *pgxpool.Pool, sink *EventSink) *RewindConversationController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &RewindConversationController{uc: usecase.NewRewindConversationUseCase(repo), sink: sink}
}

func (h *RewindConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		messageID := c.Param("messageId")
		requester := callerID(c)
		if requester == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity is required"})
			return
		}

		deleted, err := h.uc.Execute(c.Request.Context(), usecase.RewindConversationInput{
			ConversationID: conversationID,
			MessageID:      messageID,
			RequesterID:    requester,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		h.sink.Emit(c.Request.Context(), realtime.EventMessageDeleted, conversationID, gin.H{
			"rewound_to_before": messageID,
			"deleted":           deleted,
		})
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}
