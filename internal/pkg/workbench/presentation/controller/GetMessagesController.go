package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// GetMessagesController pages through a conversation's history in
// chronological order. Query params: limit (default 100), before (message id).
type GetMessagesController struct {
	uc *usecase.GetMessagesUseCase
}

func NewGetMessagesController(pool *pgxpool.Pool) *GetMessagesController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &GetMessagesController{uc: usecase.NewGetMessagesUseCase(repo)}
}

func (h *GetMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if v := c.Query("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		msgs, err := h.uc.Execute(c.Request.Context(), usecase.GetMessagesInput{
			ConversationID: c.Param("conversationId"),
			Limit:          limit,
			Before:         c.Query("before"),
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := make([]messageJSON, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, toMessageJSON(m))
		}
		c.JSON(http.StatusOK, gin.H{"messages": out})
	}
}

// GetMessageController serves one message by id.
type GetMessageController struct {
	uc *usecase.GetMessageUseCase
}

func NewGetMessageController(pool *pgxpool.Pool) *GetMessageController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &GetMessageController{uc: usecase.NewGetMessageUseCase(repo)}
}

func (h *GetMessageController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		msg, err := h.uc.Execute(c.Request.Context(), usecase.GetMessageInput{
			ConversationID: c.Param("conversationId"),
			MessageID:      c.Param("messageId"),
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, toMessageJSON(*msg))
	}
}
