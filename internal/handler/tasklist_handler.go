package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type TaskListHandler struct {
	lists    *repository.TaskListRepository
	boards   *repository.BoardRepository
	resolver *authz.Resolver
	logger   *activity.Logger
}

func NewTaskListHandler(
	lists *repository.TaskListRepository,
	boards *repository.BoardRepository,
	resolver *authz.Resolver,
	logger *activity.Logger,
) *TaskListHandler {
	return &TaskListHandler{lists: lists, boards: boards, resolver: resolver, logger: logger}
}

type taskListRequest struct {
	Title string `json:"title" binding:"required,min=1,max=120"`
	Order *int   `json:"order"`
}

// Create adds a list to a board. Requires the EDITOR role.
func (h *TaskListHandler) Create(c *gin.Context) {
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

	var req taskListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	order := 0
	if req.Order != nil {
		order = *req.Order
	} else {
		existing, err := h.lists.GetByBoardID(c.Request.Context(), boardID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve lists"})
			return
		}
		order = len(existing)
	}

	list := &model.TaskList{
		BoardID: boardID,
		Title:   req.Title,
		Order:   order,
	}
	if err := h.lists.Create(c.Request.Context(), list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create list"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionCreateList,
		Details: list.Title,
		ListID:  &list.ID,
		Payload: list,
	})

	c.JSON(http.StatusCreated, list)
}

// Update renames a list.
func (h *TaskListHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.lists.GetByID(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve list"})
		return
	}
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	if !requireRole(c, h.resolver, userID, list.BoardID, authz.RoleEditor) {
		return
	}

	var req taskListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	list.Title = req.Title
	if req.Order != nil {
		list.Order = *req.Order
	}
	if err := h.lists.Update(c.Request.Context(), list); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update list"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: list.BoardID,
		Action:  model.ActionUpdateList,
		Details: list.Title,
		ListID:  &list.ID,
		Payload: list,
	})

	c.JSON(http.StatusOK, list)
}

// Delete removes a list and the tasks under it.
func (h *TaskListHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	list, err := h.lists.GetByID(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve list"})
		return
	}
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "List not found"})
		return
	}

	if !requireRole(c, h.resolver, userID, list.BoardID, authz.RoleEditor) {
		return
	}

	if err := h.lists.Delete(c.Request.Context(), listID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete list"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: list.BoardID,
		Action:  model.ActionDeleteList,
		Details: list.Title,
	})

	c.JSON(http.StatusOK, gin.H{"message": "List deleted successfully"})
}
