package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type TimeEntryHandler struct {
	entries  *repository.TimeEntryRepository
	tasks    *repository.TaskRepository
	lists    *repository.TaskListRepository
	resolver *authz.Resolver
	logger   *activity.Logger
}

func NewTimeEntryHandler(
	entries *repository.TimeEntryRepository,
	tasks *repository.TaskRepository,
	lists *repository.TaskListRepository,
	resolver *authz.Resolver,
	logger *activity.Logger,
) *TimeEntryHandler {
	return &TimeEntryHandler{
		entries:  entries,
		tasks:    tasks,
		lists:    lists,
		resolver: resolver,
		logger:   logger,
	}
}

func (h *TimeEntryHandler) taskBoard(c *gin.Context, taskID uuid.UUID) (uuid.UUID, bool) {
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

// Start opens a timer on the task. A user can run only one timer at a time.
func (h *TimeEntryHandler) Start(c *gin.Context) {
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
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleMember) {
		return
	}

	entry, err := h.entries.Start(c.Request.Context(), taskID, userID)
	if err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start timer"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionStartTimer,
		TaskID:  &taskID,
		Payload: entry,
	})

	c.JSON(http.StatusCreated, entry)
}

// Stop closes the caller's running timer on the task and fills in the
// duration.
func (h *TimeEntryHandler) Stop(c *gin.Context) {
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
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleMember) {
		return
	}

	entry, err := h.entries.Stop(c.Request.Context(), taskID, userID)
	if err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to stop timer"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionStopTimer,
		TaskID:  &taskID,
		Payload: entry,
	})

	c.JSON(http.StatusOK, entry)
}

type manualEntryRequest struct {
	StartedAt time.Time `json:"started_at" binding:"required"`
	EndedAt   time.Time `json:"ended_at" binding:"required"`
	Note      string    `json:"note"`
}

// CreateManual records a closed time entry after the fact.
func (h *TimeEntryHandler) CreateManual(c *gin.Context) {
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
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleMember) {
		return
	}

	var req manualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if !req.EndedAt.After(req.StartedAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ended_at must be after started_at"})
		return
	}

	endedAt := req.EndedAt
	entry := &model.TimeEntry{
		TaskID:    taskID,
		UserID:    userID,
		StartedAt: req.StartedAt,
		EndedAt:   &endedAt,
		Duration:  int64(endedAt.Sub(req.StartedAt).Seconds()),
		Note:      req.Note,
		Manual:    true,
	}
	if err := h.entries.Create(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create time entry"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionAddTimeEntry,
		TaskID:  &taskID,
		Payload: entry,
	})

	c.JSON(http.StatusCreated, entry)
}

// ListForTask returns the task's time entries.
func (h *TimeEntryHandler) ListForTask(c *gin.Context) {
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

	entries, err := h.entries.GetByTaskID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve time entries"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// ListMine returns the caller's entries, optionally bounded by
// ?from=RFC3339&to=RFC3339.
func (h *TimeEntryHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from timestamp"})
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to timestamp"})
			return
		}
		to = &t
	}

	entries, err := h.entries.GetByUserID(c.Request.Context(), userID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve time entries"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

type updateEntryRequest struct {
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Note      *string    `json:"note"`
}

// Update edits a closed entry. Only the owner may edit, and running timers
// cannot be edited.
func (h *TimeEntryHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.entries.GetByID(c.Request.Context(), entryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve time entry"})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Time entry not found"})
		return
	}
	if entry.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own time entries"})
		return
	}
	if entry.Running() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stop the timer before editing it"})
		return
	}

	var req updateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if req.StartedAt != nil {
		entry.StartedAt = *req.StartedAt
	}
	if req.EndedAt != nil {
		entry.EndedAt = req.EndedAt
	}
	if req.Note != nil {
		entry.Note = *req.Note
	}
	if !entry.EndedAt.After(entry.StartedAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ended_at must be after started_at"})
		return
	}
	entry.Duration = int64(entry.EndedAt.Sub(entry.StartedAt).Seconds())

	if err := h.entries.Update(c.Request.Context(), entry); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update time entry"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

// Delete removes an entry. The owner may delete their own; board admins may
// delete anyone's.
func (h *TimeEntryHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	entry, err := h.entries.GetByID(c.Request.Context(), entryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve time entry"})
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Time entry not found"})
		return
	}

	if entry.UserID != userID {
		boardID, ok := h.taskBoard(c, entry.TaskID)
		if !ok {
			return
		}
		if !requireRole(c, h.resolver, userID, boardID, authz.RoleAdmin) {
			return
		}
	}

	if err := h.entries.Delete(c.Request.Context(), entryID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete time entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Time entry deleted successfully"})
}
