package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/authz"
	"taskboard/internal/repository"
)

// MessageHandler serves board chat history over REST; sending goes through
// the websocket relay.
type MessageHandler struct {
	messages *repository.MessageRepository
	boards   *repository.BoardRepository
	resolver *authz.Resolver
}

func NewMessageHandler(
	messages *repository.MessageRepository,
	boards *repository.BoardRepository,
	resolver *authz.Resolver,
) *MessageHandler {
	return &MessageHandler{messages: messages, boards: boards, resolver: resolver}
}

// History returns the board room's recent messages, oldest first.
func (h *MessageHandler) History(c *gin.Context) {
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

	if !requireRole(c, h.resolver, userID, boardID, authz.RoleViewer) {
		return
	}

	messages, err := h.messages.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}
