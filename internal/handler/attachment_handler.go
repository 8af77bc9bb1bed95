package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const maxAttachmentSize = 20 << 20 // 20 MiB

type AttachmentHandler struct {
	attachments *repository.AttachmentRepository
	tasks       *repository.TaskRepository
	lists       *repository.TaskListRepository
	resolver    *authz.Resolver
	logger      *activity.Logger
	uploadDir   string
}

func NewAttachmentHandler(
	attachments *repository.AttachmentRepository,
	tasks *repository.TaskRepository,
	lists *repository.TaskListRepository,
	resolver *authz.Resolver,
	logger *activity.Logger,
	uploadDir string,
) *AttachmentHandler {
	return &AttachmentHandler{
		attachments: attachments,
		tasks:       tasks,
		lists:       lists,
		resolver:    resolver,
		logger:      logger,
		uploadDir:   uploadDir,
	}
}

func (h *AttachmentHandler) taskBoard(c *gin.Context, taskID uuid.UUID) (uuid.UUID, bool) {
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

// Upload stores a multipart file against a task. Requires the MEMBER role.
func (h *AttachmentHandler) Upload(c *gin.Context) {
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

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if file.Size > maxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	// Stored under a random name; the original one lives in the DB row.
	storedName := uuid.NewString() + filepath.Ext(file.Filename)
	storedPath := filepath.Join(h.uploadDir, storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	attachment := &model.Attachment{
		TaskID:     taskID,
		UploaderID: userID,
		FileName:   filepath.Base(file.Filename),
		FilePath:   storedPath,
		MimeType:   file.Header.Get("Content-Type"),
		Size:       file.Size,
	}
	if err := h.attachments.Create(c.Request.Context(), attachment); err != nil {
		os.Remove(storedPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create attachment"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionAddAttachment,
		Details: attachment.FileName,
		TaskID:  &taskID,
		Payload: attachment,
	})

	c.JSON(http.StatusCreated, attachment)
}

// List returns a task's attachments.
func (h *AttachmentHandler) List(c *gin.Context) {
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

	attachments, err := h.attachments.GetByTaskID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachments"})
		return
	}

	c.JSON(http.StatusOK, attachments)
}

// Download streams the stored file under its original name.
func (h *AttachmentHandler) Download(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	attachmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attachment, err := h.attachments.GetByID(c.Request.Context(), attachmentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachment"})
		return
	}
	if attachment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		return
	}

	boardID, ok := h.taskBoard(c, attachment.TaskID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleViewer) {
		return
	}

	c.FileAttachment(attachment.FilePath, attachment.FileName)
}

// Delete removes an attachment. The uploader may delete their own; board
// admins may delete anyone's.
func (h *AttachmentHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	attachmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	attachment, err := h.attachments.GetByID(c.Request.Context(), attachmentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attachment"})
		return
	}
	if attachment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		return
	}

	boardID, ok := h.taskBoard(c, attachment.TaskID)
	if !ok {
		return
	}

	if attachment.UploaderID != userID {
		if !requireRole(c, h.resolver, userID, boardID, authz.RoleAdmin) {
			return
		}
	} else if !requireRole(c, h.resolver, userID, boardID, authz.RoleMember) {
		return
	}

	if err := h.attachments.Delete(c.Request.Context(), attachmentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete attachment"})
		return
	}
	os.Remove(attachment.FilePath)

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionDeleteAttachment,
		Details: attachment.FileName,
		TaskID:  &attachment.TaskID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Attachment deleted successfully"})
}
