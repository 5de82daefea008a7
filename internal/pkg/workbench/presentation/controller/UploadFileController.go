package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// maxUploadBytes caps a single attachment upload.
const maxUploadBytes = 25 << 20

// UploadFileController stores a multipart upload as the next version of the
// filename within the conversation.
type UploadFileController struct {
	uc   *usecase.UploadFileUseCase
	sink *EventSink
}

func NewUploadFileController(pool *pgxpool.Pool, sink *EventSink) *UploadFileController {
	files := repoAdapter.NewPgFileRepository(pool)
	convs := repoAdapter.NewPgConversationRepository(pool)
	return &UploadFileController{uc: usecase.NewUploadFileUseCase(files, convs), sink: sink}
}

func (h *UploadFileController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		uploader := callerID(c)
		if uploader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity is required"})
			return
		}

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
			return
		}
		if header.Size > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
			return
		}

		src, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer src.Close()
		content, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(content) > maxUploadBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds upload limit"})
			return
		}

		f, err := h.uc.Execute(c.Request.Context(), usecase.UploadFileInput{
			ConversationID: conversationID,
			Filename:       header.Filename,
			ContentType:    header.Header.Get("Content-Type"),
			Content:        content,
			UploaderID:     uploader,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := toFileJSON(*f)
		h.sink.Emit(c.Request.Context(), realtime.EventFileCreated, conversationID, out)
		c.JSON(http.StatusCreated, out)
	}
}
