package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// AddParticipantController attaches a user or assistant to a conversation.
type AddParticipantController struct {
	uc   *usecase.JoinConversationUseCase
	sink *EventSink
}

func NewAddParticipantController(pool *pgxpool.Pool, sink *EventSink) *AddParticipantController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &AddParticipantController{uc: usecase.NewJoinConversationUseCase(repo), sink: sink}
}

type addParticipantRequest struct {
	ID         string `json:"id" binding:"required"`
	Role       string `json:"role"`
	Name       string `json:"name"`
	Permission string `json:"permission"`
}

func (h *AddParticipantController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")

		var req addParticipantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		participant, err := h.uc.Execute(c.Request.Context(), usecase.JoinConversationInput{
			ConversationID: conversationID,
			ParticipantID:  req.ID,
			Role:           parseRole(req.Role),
			Name:           req.Name,
			Permission:     parsePermission(req.Permission),
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := toParticipantJSON(*participant)
		h.sink.Emit(c.Request.Context(), realtime.EventParticipantCreated, conversationID, out)
		c.JSON(http.StatusCreated, out)
	}
}
