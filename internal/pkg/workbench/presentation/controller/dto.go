package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/payneio/semanticworkbench/internal/infrastructure/auth"
	workbench "github.com/payneio/semanticworkbench/internal/pkg/workbench/application/domain"
	"github.com/payneio/semanticworkbench/internal/pkg/workbench/application/usecase"
)

// Wire representations shared by the HTTP controllers. Kept separate from
// domain types so JSON tags and enum spellings never leak into the domain.

type conversationJSON struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	OwnerID    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
	Permission string    `json:"permission"`
}

type participantJSON struct {
	ConversationID string    `json:"conversation_id"`
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	Name           string    `json:"name"`
	Status         *string   `json:"status,omitempty"`
	Active         bool      `json:"active"`
	Permission     string    `json:"permission"`
	JoinedAt       time.Time `json:"joined_at"`
}

type messageJSON struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderRole     string    `json:"sender_role"`
	CreatedAt      time.Time `json:"created_at"`
	Content        string    `json:"content"`
	ContentType    string    `json:"content_type"`
	MessageType    string    `json:"message_type"`
	Metadata       *string   `json:"metadata,omitempty"`
	DedupeKey      *string   `json:"dedupe_key,omitempty"`
}

type fileJSON struct {
	ConversationID string    `json:"conversation_id"`
	Filename       string    `json:"filename"`
	Version        int       `json:"version"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type assistantJSON struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Endpoint     string    `json:"endpoint,omitempty"`
	Capabilities []string  `json:"capabilities"`
	RegisteredAt time.Time `json:"registered_at"`
	LastSeen     time.Time `json:"last_seen"`
	Online       bool      `json:"online"`
}

func toConversationJSON(c workbench.Conversation) conversationJSON {
	return conversationJSON{
		ID:         c.ID,
		Title:      c.Title,
		OwnerID:    c.OwnerID,
		CreatedAt:  c.CreatedAt,
		Permission: c.Permission.String(),
	}
}

func toParticipantJSON(p workbench.Participant) participantJSON {
	return participantJSON{
		ConversationID: p.ConversationID,
		ID:             p.ID,
		Role:           p.Role.String(),
		Name:           p.Name,
		Status:         p.Status,
		Active:         p.Active,
		Permission:     p.Permission.String(),
		JoinedAt:       p.JoinedAt,
	}
}

func toMessageJSON(m workbench.Message) messageJSON {
	return messageJSON{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderRole:     m.SenderRole.String(),
		CreatedAt:      m.CreatedAt,
		Content:        m.Content,
		ContentType:    m.ContentType,
		MessageType:    m.MsgType.String(),
		Metadata:       m.Metadata,
		DedupeKey:      m.DedupeKey,
	}
}

func toFileJSON(f workbench.File) fileJSON {
	return fileJSON{
		ConversationID: f.ConversationID,
		Filename:       f.Filename,
		Version:        f.Version,
		ContentType:    f.ContentType,
		Size:           f.Size,
		CreatedBy:      f.CreatedBy,
		CreatedAt:      f.CreatedAt,
	}
}

func toAssistantJSON(a workbench.Assistant) assistantJSON {
	caps := a.Capabilities
	if caps == nil {
		caps = []string{}
	}
	return assistantJSON{
		ID:           a.ID,
		Name:         a.Name,
		Endpoint:     a.Endpoint,
		Capabilities: caps,
		RegisteredAt: a.RegisteredAt,
		LastSeen:     a.LastSeen,
		Online:       a.Online(time.Now().UTC()),
	}
}

func parseRole(s string) workbench.ParticipantRole {
	if s == "assistant" {
		return workbench.ParticipantRoleAssistant
	}
	return workbench.ParticipantRoleUser
}

func parsePermission(s string) workbench.Permission {
	if s == "read" {
		return workbench.PermissionRead
	}
	return workbench.PermissionReadWrite
}

func parseMessageType(s string) workbench.MessageType {
	switch s {
	case "note":
		return workbench.MessageTypeNote
	case "notice":
		return workbench.MessageTypeNotice
	case "command":
		return workbench.MessageTypeCommand
	default:
		return workbench.MessageTypeChat
	}
}

// callerID resolves the authenticated caller for the request. The auth
// middleware fills the context; assistant-service calls identify via the
// X-Assistant-ID header on API-key-guarded routes.
func callerID(c *gin.Context) string {
	if id := c.GetString(auth.CtxUserID); id != "" {
		return id
	}
	return c.GetHeader("X-Assistant-ID")
}

// respondUseCaseError maps use case and domain errors onto HTTP status codes.
func respondUseCaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound), errors.Is(err, workbench.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workbench.ErrNotParticipant),
		errors.Is(err, workbench.ErrReadOnly),
		errors.Is(err, workbench.ErrInactiveParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, workbench.ErrBackdatedMessage):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workbench.ErrEmptyMessage), errors.Is(err, workbench.ErrInvalidConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
