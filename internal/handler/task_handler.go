package handler

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
)

type TaskHandler struct {
	tasks      *repository.TaskRepository
	lists      *repository.TaskListRepository
	tags       *repository.TagRepository
	users      repository.UserRepositoryInterface
	activities *repository.ActivityRepository
	resolver   *authz.Resolver
	logger     *activity.Logger
	notifier   *notify.Dispatcher
}

func NewTaskHandler(
	tasks *repository.TaskRepository,
	lists *repository.TaskListRepository,
	tags *repository.TagRepository,
	users repository.UserRepositoryInterface,
	activities *repository.ActivityRepository,
	resolver *authz.Resolver,
	logger *activity.Logger,
	notifier *notify.Dispatcher,
) *TaskHandler {
	return &TaskHandler{
		tasks:      tasks,
		lists:      lists,
		tags:       tags,
		users:      users,
		activities: activities,
		resolver:   resolver,
		logger:     logger,
		notifier:   notifier,
	}
}

type taskRequest struct {
	Title       string     `json:"title" binding:"required,min=1"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Order       *int       `json:"order"`
}

type taskMoveRequest struct {
	ListID   string `json:"list_id" binding:"required,uuid"`
	Position int    `json:"position" binding:"min=0"`
}

// getTask loads the task and the board it belongs to, answering 404/500
// itself when it returns false.
func (h *TaskHandler) getTask(c *gin.Context, taskID uuid.UUID) (*model.Task, uuid.UUID, bool) {
	task, err := h.tasks.GetByID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return nil, uuid.Nil, false
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return nil, uuid.Nil, false
	}
	list, err := h.lists.GetByID(c.Request.Context(), task.ListID)
	if err != nil || list == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve list"})
		return nil, uuid.Nil, false
	}
	return task, list.BoardID, true
}

// Create adds a task to a list. Requires the EDITOR role.
func (h *TaskHandler) Create(c *gin.Context) {
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

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}
	if !model.ValidPriority(priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown priority"})
		return
	}

	order := 0
	if req.Order != nil {
		order = *req.Order
	} else {
		siblings, err := h.tasks.GetByListID(c.Request.Context(), listID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
			return
		}
		order = len(siblings)
	}

	task := &model.Task{
		ListID:         listID,
		Title:          req.Title,
		Description:    req.Description,
		Priority:       priority,
		ApprovalStatus: model.ApprovalNotRequired,
		DueDate:        req.DueDate,
		Order:          order,
		CreatedByID:    userID,
	}
	if err := h.tasks.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: list.BoardID,
		Action:  model.ActionCreateTask,
		Details: task.Title,
		TaskID:  &task.ID,
		ListID:  &listID,
		Payload: task,
	})

	c.JSON(http.StatusCreated, task)
}

// Get returns a task with assignees and tags.
func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleViewer) {
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListByList returns the tasks in a list ordered by position.
func (h *TaskHandler) ListByList(c *gin.Context) {
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

	if !requireRole(c, h.resolver, userID, list.BoardID, authz.RoleViewer) {
		return
	}

	tasks, err := h.tasks.GetByListID(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// Update edits a task's fields. Requires the EDITOR role.
func (h *TaskHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	task.Title = req.Title
	task.Description = req.Description
	task.DueDate = req.DueDate
	if req.Priority != "" {
		if !model.ValidPriority(req.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown priority"})
			return
		}
		task.Priority = req.Priority
	}

	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionUpdateTask,
		Details: task.Title,
		TaskID:  &task.ID,
		Payload: task,
	})

	c.JSON(http.StatusOK, task)
}

// Delete removes a task and its children.
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), taskID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionDeleteTask,
		Details: task.Title,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// Move relocates a task to a position in a list on the same board.
func (h *TaskHandler) Move(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	var req taskMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	targetListID, err := uuid.Parse(req.ListID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID format"})
		return
	}

	if targetListID != task.ListID {
		target, err := h.lists.GetByID(c.Request.Context(), targetListID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve target list"})
			return
		}
		if target == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Target list not found"})
			return
		}
		if target.BoardID != boardID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot move task to a list on another board"})
			return
		}
	}

	if err := h.tasks.Move(c.Request.Context(), taskID, targetListID, req.Position); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move task"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionMoveTask,
		Details: task.Title,
		TaskID:  &task.ID,
		ListID:  &targetListID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Task moved successfully"})
}

// Reorder applies a new ordering to the tasks of a list.
func (h *TaskHandler) Reorder(c *gin.Context) {
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

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	order := make(map[uuid.UUID]int, len(req.Order))
	for idStr, position := range req.Order {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
			return
		}
		order[id] = position
	}

	if err := h.tasks.Reorder(c.Request.Context(), listID, order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered successfully"})
}

type taskAssignRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// Assign adds a board member to the task's assignees and notifies them.
func (h *TaskHandler) Assign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
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

	// Assignees must be able to see the board.
	hasAccess, err := h.resolver.Require(c.Request.Context(), assigneeID, boardID, authz.RoleViewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User is not a member of this board"})
		return
	}

	if err := h.tasks.Assign(c.Request.Context(), task, assignee); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign user"})
		return
	}

	if assigneeID != userID {
		actor, err := h.users.GetByID(c.Request.Context(), userID)
		actorName := "Someone"
		if err == nil && actor != nil {
			actorName = actor.Name
		}
		message := fmt.Sprintf("%s assigned you to \"%s\"", actorName, task.Title)
		if _, err := h.notifier.Notify(c.Request.Context(), assigneeID, message, &boardID, &taskID, nil); err != nil {
			log.Printf("assignment notification failed (user %s): %v", assigneeID, err)
		}
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionAssignTask,
		Details: assignee.Username,
		TaskID:  &task.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "User assigned to task successfully"})
}

// Unassign removes a user from the task's assignees.
func (h *TaskHandler) Unassign(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	assigneeID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	if err := h.tasks.Unassign(c.Request.Context(), task, &model.User{ID: assigneeID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unassign user"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionUnassignTask,
		Details: assigneeID.String(),
		TaskID:  &task.ID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "User unassigned from task successfully"})
}

// AddTag attaches a board tag to the task.
func (h *TaskHandler) AddTag(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tag_id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
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
	if tag.BoardID != boardID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tag belongs to another board"})
		return
	}

	if err := h.tasks.AddTag(c.Request.Context(), task, tag); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add tag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag added to task successfully"})
}

// RemoveTag detaches a tag from the task.
func (h *TaskHandler) RemoveTag(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tagID, ok := parseIDParam(c, "tag_id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleEditor) {
		return
	}

	if err := h.tasks.RemoveTag(c.Request.Context(), task, &model.Tag{ID: tagID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove tag"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tag removed from task successfully"})
}

type approvalRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetApproval moves the task through the approval workflow. Approving or
// rejecting requires the ADMIN role; requesting approval requires EDITOR.
func (h *TaskHandler) SetApproval(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	task, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}

	var req approvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if !model.ValidApprovalStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown approval status"})
		return
	}

	required := authz.RoleEditor
	if req.Status == model.ApprovalApproved || req.Status == model.ApprovalRejected {
		required = authz.RoleAdmin
	}
	if !requireRole(c, h.resolver, userID, boardID, required) {
		return
	}

	task.ApprovalStatus = req.Status
	if err := h.tasks.Update(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionUpdateTask,
		Details: "approval " + req.Status,
		TaskID:  &task.ID,
		Payload: task,
	})

	c.JSON(http.StatusOK, task)
}

// Activity returns the audit entries that reference the task.
func (h *TaskHandler) Activity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	_, boardID, ok := h.getTask(c, taskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleViewer) {
		return
	}

	entries, err := h.activities.GetByTaskID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
		return
	}

	c.JSON(http.StatusOK, entries)
}
