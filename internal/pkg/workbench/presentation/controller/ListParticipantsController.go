package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// ListParticipantsController lists membership entries for a conversation.
type ListParticipantsController struct {
	uc *usecase.ListParticipantsUseCase
}

func NewListParticipantsController(pool *pgxpool.Pool) *ListParticipantsController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &ListParticipantsController{uc: usecase.NewListParticipantsUseCase(repo)}
}

func (h *ListParticipantsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts, err := h.uc.Execute(c.Request.Context(), usecase.ListParticipantsInput{
			ConversationID: c.Param("conversationId"),
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := make([]participantJSON, 0, len(parts))
		for _, p := range parts {
			out = append(out, toParticipantJSON(p))
		}
		c.JSON(http.StatusOK, gin.H{"participants": out})
	}
}
