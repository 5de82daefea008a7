package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// GetConversationController serves a single conversation with the caller's
// effective permission.
type GetConversationController struct {
	uc *usecase.GetConversationUseCase
}

func NewGetConversationController(pool *pgxpool.Pool) *GetConversationController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &GetConversationController{uc: usecase.NewGetConversationUseCase(repo)}
}

func (h *GetConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conv, err := h.uc.Execute(c.Request.Context(), usecase.GetConversationInput{
			ConversationID: c.Param("conversationId"),
			CallerID:       callerID(c),
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, toConversationJSON(*conv))
	}
}

// ListConversationsController lists the conversations the caller belongs to.
type ListConversationsController struct {
	uc *usecase.ListConversationsUseCase
}

func NewListConversationsController(pool *pgxpool.Pool) *ListConversationsController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &ListConversationsController{uc: usecase.NewListConversationsUseCase(repo)}
}

func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerID(c)
		if caller == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity is required"})
			return
		}

		convs, err := h.uc.Execute(c.Request.Context(), usecase.ListConversationsInput{ParticipantID: caller})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := make([]conversationJSON, 0, len(convs))
		for _, conv := range convs {
			out = append(out, toConversationJSON(conv))
		}
		c.JSON(http.StatusOK, gin.H{"conversations": out})
	}
}
