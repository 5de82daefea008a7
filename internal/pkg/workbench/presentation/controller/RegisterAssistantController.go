package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/payneio/semanticworkbench/internal/infrastructure/cache/port"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// RegisterAssistantController upserts an assistant directory entry. Assistants
// call it on boot and repeat it as a liveness ping.
type RegisterAssistantController struct {
	uc *usecase.RegisterAssistantUseCase
}

func NewRegisterAssistantController(pool *pgxpool.Pool, cache cacheport.Cache) *RegisterAssistantController {
	return &RegisterAssistantController{
		uc: usecase.NewRegisterAssistantUseCase(repoAdapter.NewPgAssistantRepository(pool), cache),
	}
}

func (h *RegisterAssistantController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			ID           string   `json:"id"`
			Name         string   `json:"name" binding:"required"`
			Endpoint     string   `json:"endpoint"`
			Capabilities []string `json:"capabilities"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		a, err := h.uc.Execute(c.Request.Context(), usecase.RegisterAssistantInput{
			ID:           body.ID,
			Name:         body.Name,
			Endpoint:     body.Endpoint,
			Capabilities: body.Capabilities,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}
		c.JSON(http.StatusOK, toAssistantJSON(*a))
	}
}
