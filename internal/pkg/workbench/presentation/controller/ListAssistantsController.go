package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/payneio/semanticworkbench/internal/infrastructure/cache/port"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// ListAssistantsController serves the assistant directory listing.
type ListAssistantsController struct {
	uc *usecase.ListAssistantsUseCase
}

func NewListAssistantsController(pool *pgxpool.Pool, cache cacheport.Cache) *ListAssistantsController {
	return &ListAssistantsController{
		uc: usecase.NewListAssistantsUseCase(repoAdapter.NewPgAssistantRepository(pool), cache),
	}
}

func (h *ListAssistantsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		assistants, err := h.uc.Execute(c.Request.Context())
		if err != nil {
			respondUseCaseError(c, err)
			return
		}
		out := make([]assistantJSON, 0, len(assistants))
		for _, a := range assistants {
			out = append(out, toAssistantJSON(a))
		}
		c.JSON(http.StatusOK, gin.H{"assistants": out})
	}
}

// GetAssistantController fetches one directory entry.
type GetAssistantController struct {
	uc *usecase.GetAssistantUseCase
}

func NewGetAssistantController(pool *pgxpool.Pool) *GetAssistantController {
	return &GetAssistantController{
		uc: usecase.NewGetAssistantUseCase(repoAdapter.NewPgAssistantRepository(pool)),
	}
}

func (h *GetAssistantController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, err := h.uc.Execute(c.Request.Context(), c.Param("assistantId"))
		if err != nil {
			respondUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, toAssistantJSON(*a))
	}
}
