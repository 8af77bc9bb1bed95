package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// DMHandler serves direct message history; sending goes through the
// websocket relay.
type DMHandler struct {
	dms   *repository.DirectMessageRepository
	users repository.UserRepositoryInterface
}

func NewDMHandler(dms *repository.DirectMessageRepository, users repository.UserRepositoryInterface) *DMHandler {
	return &DMHandler{dms: dms, users: users}
}

// Conversations lists the users the caller has exchanged messages with.
func (h *DMHandler) Conversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	partnerIDs, err := h.dms.ListPartners(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conversations"})
		return
	}

	partners := make([]*model.User, 0, len(partnerIDs))
	for _, id := range partnerIDs {
		user, err := h.users.GetByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
			return
		}
		if user != nil {
			partners = append(partners, user)
		}
	}

	c.JSON(http.StatusOK, partners)
}

// Conversation returns the full exchange with one user and marks their
// messages as read.
func (h *DMHandler) Conversation(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	partnerID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	partner, err := h.users.GetByID(c.Request.Context(), partnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if partner == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	messages, err := h.dms.GetConversation(c.Request.Context(), userID, partnerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve conversation"})
		return
	}

	if err := h.dms.MarkConversationRead(c.Request.Context(), userID, partnerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark conversation read"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// UnreadCount returns the number of unread direct messages.
func (h *DMHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.dms.CountUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count unread messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}
