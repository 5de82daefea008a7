// Package client is the Go client for the workbench API. It covers the REST
// surface, the SSE event stream, and the refetch-on-event conversation view
// used by interactive frontends.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"
)

// Conversation mirrors the server's wire representation.
type Conversation struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	OwnerID    string    `json:"owner_id"`
	CreatedAt  time.Time `json:"created_at"`
	Permission string    `json:"permission"`
}

type Participant struct {
	ConversationID string    `json:"conversation_id"`
	ID             string    `json:"id"`
	Role           string    `json:"role"`
	Name           string    `json:"name"`
	Status         *string   `json:"status,omitempty"`
	Active         bool      `json:"active"`
	Permission     string    `json:"permission"`
	JoinedAt       time.Time `json:"joined_at"`
}

type Message struct {
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

type File struct {
	ConversationID string    `json:"conversation_id"`
	Filename       string    `json:"filename"`
	Version        int       `json:"version"`
	ContentType    string    `json:"content_type"`
	Size           int64     `json:"size"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
}

type Assistant struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Endpoint     string    `json:"endpoint,omitempty"`
	Capabilities []string  `json:"capabilities"`
	RegisteredAt time.Time `json:"registered_at"`
	LastSeen     time.Time `json:"last_seen"`
	Online       bool      `json:"online"`
}

// APIError carries the status code and server-provided message of a failed
// request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("workbench: %d %s", e.StatusCode, e.Message)
}

// Client talks to a workbench API server. Identity is either a bearer token,
// the X-User-ID dev header, or an assistant service credential; whichever is
// set is attached to every request.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	UserID      string // dev-mode identity header
	Token       string // JWT bearer token
	APIKey      string // assistant service credential
	AssistantID string // sent as X-Assistant-ID with the API key
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api/v1"+path, body)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	} else if c.UserID != "" {
		req.Header.Set("X-User-ID", c.UserID)
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	if c.AssistantID != "" {
		req.Header.Set("X-Assistant-ID", c.AssistantID)
	}
	return req, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &payload)
	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// CreateConversationRequest creates a conversation owned by the caller.
type CreateConversationRequest struct {
	Title     string `json:"title,omitempty"`
	OwnerName string `json:"owner_name,omitempty"`
}

func (c *Client) CreateConversation(ctx context.Context, in CreateConversationRequest) (*Conversation, error) {
	var out Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/conversations", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var out struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (c *Client) GetConversation(ctx context.Context, conversationID string) (*Conversation, error) {
	var out Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/conversations/"+url.PathEscape(conversationID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessageRequest posts a message as the caller. DedupeKey makes the send
// idempotent across retries.
type SendMessageRequest struct {
	Content     string  `json:"content"`
	ContentType string  `json:"content_type,omitempty"`
	MessageType string  `json:"message_type,omitempty"`
	Metadata    *string `json:"metadata,omitempty"`
	DedupeKey   *string `json:"dedupe_key,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, conversationID string, in SendMessageRequest) (*Message, error) {
	var out Message
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.doJSON(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMessages fetches up to limit messages in history order. A non-empty
// beforeMessageID pages backwards from that message.
func (c *Client) ListMessages(ctx context.Context, conversationID string, limit int, beforeMessageID string) ([]Message, error) {
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if beforeMessageID != "" {
		q.Set("before", beforeMessageID)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Messages []Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) GetMessage(ctx context.Context, conversationID, messageID string) (*Message, error) {
	var out Message
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages/" + url.PathEscape(messageID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RewindConversation deletes the given message and everything after it.
// Requires read/write permission on the conversation.
func (c *Client) RewindConversation(ctx context.Context, conversationID, messageID string) error {
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages/" + url.PathEscape(messageID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// AddParticipantRequest attaches a user or assistant to a conversation.
type AddParticipantRequest struct {
	ID         string `json:"id"`
	Role       string `json:"role,omitempty"`
	Name       string `json:"name,omitempty"`
	Permission string `json:"permission,omitempty"`
}

func (c *Client) AddParticipant(ctx context.Context, conversationID string, in AddParticipantRequest) (*Participant, error) {
	var out Participant
	path := "/conversations/" + url.PathEscape(conversationID) + "/participants"
	if err := c.doJSON(ctx, http.MethodPost, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListParticipants(ctx context.Context, conversationID string) ([]Participant, error) {
	var out struct {
		Participants []Participant `json:"participants"`
	}
	path := "/conversations/" + url.PathEscape(conversationID) + "/participants"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Participants, nil
}

// UpdateParticipantRequest applies a partial update. Nil fields are left
// unchanged; ClearStatus removes the status text.
type UpdateParticipantRequest struct {
	Name        *string
	Active      *bool
	Status      *string
	ClearStatus bool
}

func (r UpdateParticipantRequest) MarshalJSON() ([]byte, error) {
	body := make(map[string]any)
	if r.Name != nil {
		body["name"] = *r.Name
	}
	if r.Active != nil {
		body["active"] = *r.Active
	}
	if r.ClearStatus {
		body["status"] = nil
	} else if r.Status != nil {
		body["status"] = *r.Status
	}
	return json.Marshal(body)
}

func (c *Client) UpdateParticipant(ctx context.Context, conversationID, participantID string, in UpdateParticipantRequest) (*Participant, error) {
	var out Participant
	path := "/conversations/" + url.PathEscape(conversationID) + "/participants/" + url.PathEscape(participantID)
	if err := c.doJSON(ctx, http.MethodPatch, path, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadFile stores content as a new version of filename.
func (c *Client) UploadFile(ctx context.Context, conversationID, filename, contentType string, content io.Reader) (*File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	hdr.Set("Content-Type", contentType)

	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	path := "/conversations/" + url.PathEscape(conversationID) + "/files"
	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	var out File
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListFiles(ctx context.Context, conversationID string) ([]File, error) {
	var out struct {
		Files []File `json:"files"`
	}
	path := "/conversations/" + url.PathEscape(conversationID) + "/files"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// DownloadFile reads attachment content. Version 0 means latest.
func (c *Client) DownloadFile(ctx context.Context, conversationID, filename string, version int) ([]byte, string, error) {
	path := "/conversations/" + url.PathEscape(conversationID) + "/files/" + url.PathEscape(filename)
	if version > 0 {
		path += "?version=" + strconv.Itoa(version)
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, "", decodeError(resp)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return content, resp.Header.Get("Content-Type"), nil
}

func (c *Client) DeleteFile(ctx context.Context, conversationID, filename string) error {
	path := "/conversations/" + url.PathEscape(conversationID) + "/files/" + url.PathEscape(filename)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// RegisterAssistantRequest upserts a directory entry. Repeat calls act as
// liveness pings.
type RegisterAssistantRequest struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name"`
	Endpoint     string   `json:"endpoint,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

func (c *Client) RegisterAssistant(ctx context.Context, in RegisterAssistantRequest) (*Assistant, error) {
	var out Assistant
	if err := c.doJSON(ctx, http.MethodPost, "/assistants", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAssistants(ctx context.Context) ([]Assistant, error) {
	var out struct {
		Assistants []Assistant `json:"assistants"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/assistants", nil, &out); err != nil {
		return nil, err
	}
	return out.Assistants, nil
}

func (c *Client) GetAssistant(ctx context.Context, assistantID string) (*Assistant, error) {
	var out Assistant
	if err := c.doJSON(ctx, http.MethodGet, "/assistants/"+url.PathEscape(assistantID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
