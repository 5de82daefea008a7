package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/payneio/semanticworkbench/internal/infrastructure/realtime"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
	repoAdapter "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/adapter"
	repository "github.com/payneio/semanticworkbench/internal/pkg/workbench/persistence/repository/port"
)

// UpdateParticipantController mutates a membership entry: active flag,
// display name, or status text. A JSON null status clears it; an absent
// status field leaves it unchanged.
type UpdateParticipantController struct {
	uc   *usecase.UpdateParticipantUseCase
	sink *EventSink
}

func NewUpdateParticipantController(pool *pgxpool.Pool, sink *EventSink) *UpdateParticipantController {
	repo := repoAdapter.NewPgConversationRepository(pool)
	return &UpdateParticipantController{uc: usecase.NewUpdateParticipantUseCase(repo), sink: sink}
}

func (h *UpdateParticipantController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		participantID := c.Param("participantId")

		// Decoded as raw fields so "status": null (clear) can be told apart
		// from an absent status (leave unchanged).
		var req map[string]json.RawMessage
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var upd repository.ParticipantUpdate
		if raw, ok := req["name"]; ok {
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "name must be a string"})
				return
			}
			upd.Name = &name
		}
		if raw, ok := req["active"]; ok {
			var active bool
			if err := json.Unmarshal(raw, &active); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "active must be a boolean"})
				return
			}
			upd.Active = &active
		}
		if raw, ok := req["status"]; ok {
			if string(raw) == "null" {
				upd.ClearStatus = true
			} else {
				var status string
				if err := json.Unmarshal(raw, &status); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "status must be a string or null"})
					return
				}
				upd.Status = &status
			}
		}

		participant, err := h.uc.Execute(c.Request.Context(), usecase.UpdateParticipantInput{
			ConversationID: conversationID,
			ParticipantID:  participantID,
			Update:         upd,
		})
		if err != nil {
			respondUseCaseError(c, err)
			return
		}

		out := toParticipantJSON(*participant)
		h.sink.Emit(c.Request.Context(), realtime.EventParticipantUpdated, conversationID, out)
		c.JSON(http.StatusOK, out)
	}
}
