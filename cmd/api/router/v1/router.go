package v1

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/auth"
	cacheport "github.com/payneio/semanticworkbench/internal/infrastructure/cache/port"
	qport "github.com/payneio/semanticworkbench/internal/infrastructure/queue/port"
	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	httpHandler "github.com/payneio/semanticworkbench/internal/pkg/workbench/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1. An empty
// WORKBENCH_JWT_SECRET puts auth in dev mode, where identity comes from the
// X-User-ID header.
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, client qport.Client, bus *realtime.Bus, cache cacheport.Cache, log *slog.Logger) {
	apiKey := os.Getenv("WORKBENCH_API_KEY")

	v1 := r.Group("/api/v1")
	v1.Use(auth.Identity([]byte(os.Getenv("WORKBENCH_JWT_SECRET")), apiKey))

	httpHandler.RegisterRoutes(v1, pool, client, bus, cache, apiKey, log)
}
