package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type TagHandler struct {
	tags     *repository.TagRepository
	boards   *repository.BoardRepository
	resolver *authz.Resolver
	logger   *activity.Logger
}

func NewTagHandler(
	tags *repository.TagRepository,
	boards *repository.BoardRepository,
	resolver *authz.Resolver,
	logger *activity.Logger,
) *TagHandler {
	return &TagHandler{tags: tags, boards: boards, resolver: resolver, logger: logger}
}

type tagRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=40"`
	Color string `json:"color" binding:"required,hexcolor"`
}

// Create adds a tag to the board's palette. Requires the EDITOR role.
func (h *TagHandler) Create(c *gin.Context) {
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

	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	tag := &model.Tag{
		BoardID: boardID,
		Name:    req.Name,
		Color:   req.Color,
	}
	if err := h.tags.Create(c.Request.Context(), tag); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tag"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionCreateTag,
		Details: tag.Name,
		Payload: tag,
	})

	c.JSON(http.StatusCreated, tag)
}

// List returns all tags on a board.
func (h *TagHandler) List(c *gin.Context) {
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

	tags, err := h.tags.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tags"})
		return
	}

	c.JSON(http.StatusOK, tags)
}

// Delete removes a tag from the board and from every task carrying it.
func (h *TagHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tag, err := h.tags.GetByID(c.Request.Context(), tagID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tag"})
		return
	}
	if tag == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tag not found"})
		return
	}

	if !requireRole(c, h.resolver, userID, tag.BoardID, authz.RoleEditor) {
		return
	}

	if err := h.tags.Delete(c.Request.Context(), tagID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tag"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: tag.BoardID,
		Action:  model.ActionDeleteTag,
		Details: tag.Name,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Tag deleted successfully"})
}
