package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type ChecklistHandler struct {
	checklists *repository.ChecklistRepository
	tasks      *repository.TaskRepository
	lists      *repository.TaskListRepository
	users      repository.UserRepositoryInterface
	resolver   *authz.Resolver
	logger     *activity.Logger
}

func NewChecklistHandler(
	checklists *repository.ChecklistRepository,
	tasks *repository.TaskRepository,
	lists *repository.TaskListRepository,
	users repository.UserRepositoryInterface,
	resolver *authz.Resolver,
	logger *activity.Logger,
) *ChecklistHandler {
	return &ChecklistHandler{
		checklists: checklists,
		tasks:      tasks,
		lists:      lists,
		users:      users,
		resolver:   resolver,
		logger:     logger,
	}
}

func (h *ChecklistHandler) taskBoard(c *gin.Context, taskID uuid.UUID) (uuid.UUID, bool) {
	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return uuid.Nil, false
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return uuid.Nil, false
	}
	list, err := h.lists.GetByID(c.Request.Context(), task.ListID)
	if err != nil || list == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve list"})
		return uuid.Nil, false
	}
	return list.BoardID, true
}

func (h *ChecklistHandler) getItem(c *gin.Context, itemID uuid.UUID) (*model.ChecklistItem, uuid.UUID, bool) {
	item, err := h.checklists.GetByID(c.Request.Context(), itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve checklist item"})
		return nil, uuid.Nil, false
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checklist item not found"})
		return nil, uuid.Nil, false
	}
	boardID, ok := h.taskBoard(c, item.TaskID)
	if !ok {
		return nil, uuid.Nil, false
	}
	return item, boardID, true
}

type checklistItemRequest struct {
	Text string `json:"text" binding:"required,min=1"`
}

// Create adds an item to a task's checklist. Requires the EDITOR role.
func (h *ChecklistHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	boardID, ok := h.taskBoard(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	var req checklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	item := &model.ChecklistItem{
		TaskID: taskID,
		Text:   req.Text,
	}
	if err := h.checklists.Create(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checklist item"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionAddChecklistItem,
		Details: item.Text,
		TaskID:  &taskID,
		Payload: item,
	})

	c.JSON(http.StatusCreated, item)
}

// List returns a task's checklist.
func (h *ChecklistHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	boardID, ok := h.taskBoard(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleViewer) {
		return
	}

	items, err := h.checklists.GetByTaskID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve checklist"})
		return
	}

	c.JSON(http.StatusOK, items)
}

type checklistUpdateRequest struct {
	Text   *string `json:"text" binding:"omitempty,min=1"`
	IsDone *bool   `json:"is_done"`
}

// Update edits an item. Toggling done state needs the MEMBER role; editing
// the text needs EDITOR.
func (h *ChecklistHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, boardID, ok := h.getItem(c, itemID)
	if !ok {
		return
	}

	var req checklistUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	required := authz.RoleMember
	if req.Text != nil {
		required = authz.RoleEditor
	}
	if !requireRole(c, h.resolver, userID, boardID, required) {
		return
	}

	if req.Text != nil {
		item.Text = *req.Text
	}
	if req.IsDone != nil {
		item.IsDone = *req.IsDone
	}
	if err := h.checklists.Update(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update checklist item"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionUpdateChecklistItem,
		Details: item.Text,
		TaskID:  &item.TaskID,
		Payload: item,
	})

	c.JSON(http.StatusOK, item)
}

// Delete removes an item from the checklist.
func (h *ChecklistHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, boardID, ok := h.getItem(c, itemID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	if err := h.checklists.Delete(c.Request.Context(), itemID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete checklist item"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionDeleteChecklistItem,
		Details: item.Text,
		TaskID:  &item.TaskID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Checklist item deleted successfully"})
}

// Assign adds a user to the item's assignees.
func (h *ChecklistHandler) Assign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, boardID, ok := h.getItem(c, itemID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	var req taskAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	assigneeID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	assignee, err := h.users.GetByID(c.Request.Context(), assigneeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if assignee == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.checklists.Assign(c.Request.Context(), item, assignee); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User assigned to checklist item successfully"})
}

// Unassign removes a user from the item's assignees.
func (h *ChecklistHandler) Unassign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	assigneeID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	item, boardID, ok := h.getItem(c, itemID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	if err := h.checklists.Unassign(c.Request.Context(), item, &model.User{ID: assigneeID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User unassigned from checklist item successfully"})
}
