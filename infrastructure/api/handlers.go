package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"converse/auth"
	"converse/domain"
	apperrors "converse/errors"
	"converse/infrastructure/ws"
	"converse/observability"
	"converse/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Handlers struct {
	log           *slog.Logger
	auth          services.IAuthService
	conversations services.IConversationService
	ws            *ws.Handler
	monitor       *observability.Monitor
}

func NewHandlers(log *slog.Logger, authService services.IAuthService,
	conversations services.IConversationService, wsHandler *ws.Handler,
	monitor *observability.Monitor) *Handlers {
	return &Handlers{
		log:           log,
		auth:          authService,
		conversations: conversations,
		ws:            wsHandler,
		monitor:       monitor,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.auth.Register(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokenResponse{Token: string(token)})
}

func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, err := h.auth.Login(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: string(token)})
}

type directRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
}

func (h *Handlers) StartDirect(c *gin.Context) {
	var req directRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	detail, err := h.conversations.StartDirect(UserID(c), req.ParticipantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConversationResponse(detail))
}

type groupRequest struct {
	Name           string   `json:"name" binding:"required"`
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
}

func (h *Handlers) CreateGroup(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	detail, err := h.conversations.CreateGroup(UserID(c), req.Name, req.ParticipantIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConversationResponse(detail))
}

func (h *Handlers) List(c *gin.Context) {
	page := intQuery(c, "page", 1)
	pageSize := intQuery(c, "page_size", 20)
	details, err := h.conversations.List(UserID(c), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(details, func(d services.ConversationDetail, _ int) conversationResponse {
		return toConversationResponse(d)
	}))
}

func (h *Handlers) History(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	var cursor *string
	if raw := c.Query("cursor"); raw != "" {
		cursor = &raw
	}
	messages, next, err := h.conversations.History(UserID(c), conversationID, cursor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chats": lo.Map(messages, func(m domain.ChatMessage, _ int) chatResponse {
			return toChatResponse(m)
		}),
		"cursor": next,
	})
}

func (h *Handlers) Search(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	terms := c.Query("q")
	if terms == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit := intQuery(c, "limit", 20)
	hits, err := h.conversations.SearchChats(c.Request.Context(), UserID(c), conversationID, terms, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits})
}

// ServeWS hands the connection over to the websocket session handler.
// This call blocks for the whole lifetime of the connection.
func (h *Handlers) ServeWS(c *gin.Context) {
	h.ws.Serve(c, UserID(c))
}

func (h *Handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Snapshot())
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := apperrors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

type conversationResponse struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Participants []string      `json:"participants"`
	LastChat     *chatResponse `json:"last_chat"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type chatResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Value          string    `json:"value"`
	FileID         *string   `json:"file_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func toConversationResponse(detail services.ConversationDetail) conversationResponse {
	response := conversationResponse{
		ID:           detail.Conversation.ID,
		Name:         detail.Conversation.Name,
		Participants: detail.Conversation.Participants,
		CreatedAt:    detail.Conversation.CreatedAt,
		UpdatedAt:    detail.Conversation.UpdatedAt,
	}
	if detail.LastChat != nil {
		last := toChatResponse(*detail.LastChat)
		response.LastChat = &last
	}
	return response
}

func toChatResponse(m domain.ChatMessage) chatResponse {
	return chatResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Value:          m.Value,
		FileID:         m.FileID,
		CreatedAt:      m.CreatedAt,
	}
}
