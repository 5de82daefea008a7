package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// CreateConversationController handles the create-conversation endpoint only
// (one controller per endpoint).
type CreateConversationController struct {
	uc   *usecase.CreateConversationUseCase
	sink *EventSink
}

func NewCreateConversationController(pool *pgxpool.Pool, sink *EventSink) *CreateConversationController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &CreateConversationController{uc: usecase.NewCreateConversationUseCase(repo), sink: sink}
}

type createConversationRequest struct {
	Title     string `json:"title"`
	OwnerName string `json:"owner_name"`
}

func (h *CreateConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := callerID(c)
		if owner == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity is required"})
			return
		}

		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		conv, err := h.uc.Execute(c.Request.Context(), usecase.CreateConversationInput{
			Title:     req.Title,
			OwnerID:   owner,
			OwnerName: req.OwnerName,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		c.JSON(http.StatusCreated, toConversationJSON(*conv))
	}
}
