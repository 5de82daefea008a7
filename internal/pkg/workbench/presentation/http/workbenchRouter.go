package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/auth"
	cacheport "github.com/payneio/semanticworkbench/internal/infrastructure/cache/port"
	qport "github.com/payneio/semanticworkbench/internal/infrastructure/queue/port"
	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/presentation/controller"
)

// RegisterRoutes registers workbench HTTP endpoints under the given router
// group. It constructs per-endpoint controllers and binds them directly to
// routes.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, client qport.Client, bus *realtime.Bus, cache cacheport.Cache, apiKey string, log *slog.Logger) {
	sink := controller.NewEventSink(bus, client, log)

	createConvCtl := controller.NewCreateConversationController(pool, sink)
	getConvCtl := controller.NewGetConversationController(pool)
	listConvCtl := controller.NewListConversationsController(pool)

	sendMsgCtl := controller.NewSendMessageController(pool, sink)
	getMsgsCtl := controller.NewGetMessagesController(pool)
	getMsgCtl := controller.NewGetMessageController(pool)
	rewindCtl := controller.NewRewindConversationController(pool, sink)

	addPartCtl := controller.NewAddParticipantController(pool, sink)
	listPartCtl := controller.NewListParticipantsController(pool)
	updatePartCtl := controller.NewUpdateParticipantController(pool, sink)

	uploadFileCtl := controller.NewUploadFileController(pool, sink)
	listFilesCtl := controller.NewListFilesController(pool)
	downloadFileCtl := controller.NewDownloadFileController(pool)
	deleteFileCtl := controller.NewDeleteFileController(pool, sink)

	registerAsstCtl := controller.NewRegisterAssistantController(pool, cache)
	listAsstCtl := controller.NewListAssistantsController(pool, cache)
	getAsstCtl := controller.NewGetAssistantController(pool)

	streamCtl := controller.NewEventStreamController(pool, bus)
	socketCtl := controller.NewEventSocketController(pool, bus, log)

	g.POST("/conversations", createConvCtl.Handle())
	g.GET("/conversations", listConvCtl.Handle())
	g.GET("/conversations/:conversationId", getConvCtl.Handle())

	g.POST("/conversations/:conversationId/messages", sendMsgCtl.Handle())
	g.GET("/conversations/:conversationId/messages", getMsgsCtl.Handle())
	g.GET("/conversations/:conversationId/messages/:messageId", getMsgCtl.Handle())

	// Deleting a message rewinds the conversation: the target and everything
	// after it are removed.
	g.DELETE("/conversations/:conversationId/messages/:messageId", rewindCtl.Handle())

	g.POST("/conversations/:conversationId/participants", addPartCtl.Handle())
	g.GET("/conversations/:conversationId/participants", listPartCtl.Handle())
	g.PATCH("/conversations/:conversationId/participants/:participantId", updatePartCtl.Handle())

	g.POST("/conversations/:conversationId/files", uploadFileCtl.Handle())
	g.GET("/conversations/:conversationId/files", listFilesCtl.Handle())
	g.GET("/conversations/:conversationId/files/:filename", downloadFileCtl.Handle())
	g.DELETE("/conversations/:conversationId/files/:filename", deleteFileCtl.Handle())

	// Event streams: SSE per conversation, or one websocket following many.
	g.GET("/conversations/:conversationId/events", streamCtl.Handle())
	g.GET("/events/ws", socketCtl.Handle())

	// Assistant registration carries a service credential instead of a user
	// identity.
	g.POST("/assistants", auth.APIKeyMiddleware(apiKey), registerAsstCtl.Handle())
	g.GET("/assistants", listAsstCtl.Handle())
	g.GET("/assistants/:assistantId", getAsstCtl.Handle())
}
