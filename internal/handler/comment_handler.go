package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
)

const mentionTemplate = `{authorName} mentioned you in a comment: "{preview}"`

type CommentHandler struct {
	comments *repository.CommentRepository
	tasks    *repository.TaskRepository
	lists    *repository.TaskListRepository
	resolver *authz.Resolver
	logger   *activity.Logger
	notifier *notify.Dispatcher
}

func NewCommentHandler(
	comments *repository.CommentRepository,
	tasks *repository.TaskRepository,
	lists *repository.TaskListRepository,
	resolver *authz.Resolver,
	logger *activity.Logger,
	notifier *notify.Dispatcher,
) *CommentHandler {
	return &CommentHandler{
		comments: comments,
		tasks:    tasks,
		lists:    lists,
		resolver: resolver,
		logger:   logger,
		notifier: notifier,
	}
}

func (h *CommentHandler) taskBoard(c *gin.Context, taskID uuid.UUID) (uuid.UUID, bool) {
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

type commentRequest struct {
	Text string `json:"text" binding:"required,min=1"`
}

// Create posts a comment on a task. Requires the COMMENTER role. Mentioned
// users (@username) are notified.
func (h *CommentHandler) Create(c *gin.Context) {
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
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleCommenter) {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	comment := &model.Comment{
		TaskID:   taskID,
		AuthorID: userID,
		Text:     req.Text,
	}
	if err := h.comments.Create(c.Request.Context(), comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	h.notifier.NotifyMentions(c.Request.Context(), comment.Text, userID, mentionTemplate, &boardID, &taskID, &comment.ID)

	h.logger.Record(activity.Entry{
		UserID:    &userID,
		BoardID:   boardID,
		Action:    model.ActionCreateComment,
		Details:   comment.Text,
		TaskID:    &taskID,
		CommentID: &comment.ID,
		Payload:   comment,
	})

	c.JSON(http.StatusCreated, comment)
}

// List returns a task's comments oldest first.
func (h *CommentHandler) List(c *gin.Context) {
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

	comments, err := h.comments.GetByTaskID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	c.JSON(http.StatusOK, comments)
}

// Delete removes a comment. The author may delete their own; board admins
// may delete anyone's.
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	comment, err := h.comments.GetByID(c.Request.Context(), commentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comment"})
		return
	}
	if comment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	boardID, ok := h.taskBoard(c, comment.TaskID)
	if !ok {
		return
	}

	if comment.AuthorID != userID {
		if !requireRole(c, h.resolver, userID, boardID, authz.RoleAdmin) {
			return
		}
	} else if !requireRole(c, h.resolver, userID, boardID, authz.RoleCommenter) {
		return
	}

	if err := h.comments.Delete(c.Request.Context(), commentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionDeleteComment,
		TaskID:  &comment.TaskID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
