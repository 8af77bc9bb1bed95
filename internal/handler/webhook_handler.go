package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// WebhookHandler manages board webhook subscriptions. All operations
// require the board ADMIN role.
type WebhookHandler struct {
	webhooks *repository.WebhookRepository
	boards   *repository.BoardRepository
	resolver *authz.Resolver
}

func NewWebhookHandler(
	webhooks *repository.WebhookRepository,
	boards *repository.BoardRepository,
	resolver *authz.Resolver,
) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, boards: boards, resolver: resolver}
}

type webhookRequest struct {
	TargetURL  string   `json:"target_url" binding:"required,url"`
	EventTypes []string `json:"event_types" binding:"required,min=1"`
}

// Create subscribes a URL to board events.
func (h *WebhookHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	board, err := h.boards.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}

	if !requireRole(c, h.resolver, userID, boardID, authz.RoleAdmin) {
		return
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	webhook := &model.Webhook{
		BoardID:    boardID,
		TargetURL:  req.TargetURL,
		EventTypes: req.EventTypes,
		IsActive:   true,
	}
	if err := h.webhooks.Create(c.Request.Context(), webhook); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create webhook"})
		return
	}

	c.JSON(http.StatusCreated, webhook)
}

// List returns the board's webhooks.
func (h *WebhookHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	board, err := h.boards.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return
	}

	if !requireRole(c, h.resolver, userID, boardID, authz.RoleAdmin) {
		return
	}

	webhooks, err := h.webhooks.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve webhooks"})
		return
	}

	c.JSON(http.StatusOK, webhooks)
}

// Delete removes a webhook subscription.
func (h *WebhookHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	webhookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	webhook, err := h.webhooks.GetByID(c.Request.Context(), webhookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve webhook"})
		return
	}
	if webhook == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Webhook not found"})
		return
	}

	if !requireRole(c, h.resolver, userID, webhook.BoardID, authz.RoleAdmin) {
		return
	}

	if err := h.webhooks.Delete(c.Request.Context(), webhookID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook deleted successfully"})
}
