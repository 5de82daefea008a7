package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// DeleteFileController removes every version of an attachment.
type DeleteFileController struct {
	uc   *usecase.DeleteFileUseCase
	sink *EventSink
}

func NewDeleteFileController(pool *pgxpool.Pool, sink *EventSink) *DeleteFileController {
	return &DeleteFileController{
		uc: usecase.NewDeleteFileUseCase(
			repoAdapter.NewPgFileRepository(pool),
			repoAdapter.NewPgConversationRepository(pool),
		),
		sink: sink,
	}
}

func (h *DeleteFileController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		filename := c.Param("filename")

		err := h.uc.Execute(c.Request.Context(), usecase.DeleteFileInput{
			ConversationID: conversationID,
			Filename:       filename,
			RequesterID:    callerID(c),
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		h.sink.Emit(c.Request.Context(), realtime.EventFileDeleted, conversationID, gin.H{
			"filename": filename,
		})
		c.Status(http.StatusNoContent)
	}
}
