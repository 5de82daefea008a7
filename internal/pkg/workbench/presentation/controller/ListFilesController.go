package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
)

// ListFilesController lists the latest version of each attachment.
type ListFilesController struct {
	uc *usecase.ListFilesUseCase
}

func NewListFilesController(pool *pgxpool.Pool) *ListFilesController {
	return &ListFilesController{uc: usecase.NewListFilesUseCase(repoAdapter.NewPgFileRepository(pool))}
}

func (h *ListFilesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		files, err := h.uc.Execute(c.Request.Context(), usecase.ListFilesInput{
			ConversationID: c.Param("conversationId"),
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := make([]fileJSON, 0, len(files))
		for _, f := range files {
			out = append(out, toFileJSON(f))
		}
		c.JSON(http.StatusOK, gin.H{"files": out})
	}
}

// DownloadFileController streams attachment content. Query param "version"
// pins a version; default is latest.
type DownloadFileController struct {
	uc *usecase.GetFileUseCase
}

func NewDownloadFileController(pool *pgxpool.Pool) *DownloadFileController {
	return &DownloadFileController{uc: usecase.NewGetFileUseCase(repoAdapter.NewPgFileRepository(pool))}
}

func (h *DownloadFileController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := 0
		if v := c.Query("version"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "version must be a positive integer"})
				return
			}
			version = parsed
		}

		f, content, err := h.uc.Execute(c.Request.Context(), usecase.GetFileInput{
			ConversationID: c.Param("conversationId"),
			Filename:       c.Param("filename"),
			Version:        version,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		c.Header("X-File-Version", strconv.Itoa(f.Version))
		c.Data(http.StatusOK, f.ContentType, content)
	}
}
