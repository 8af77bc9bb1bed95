package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// maxActivityLimit caps how many activity entries one request may ask for.
const maxActivityLimit = 200

type BoardHandler struct {
	boards     *repository.BoardRepository
	lists      *repository.TaskListRepository
	tasks      *repository.TaskRepository
	activities *repository.ActivityRepository
	resolver   *authz.Resolver
	logger     *activity.Logger
}

func NewBoardHandler(
	boards *repository.BoardRepository,
	lists *repository.TaskListRepository,
	tasks *repository.TaskRepository,
	activities *repository.ActivityRepository,
	resolver *authz.Resolver,
	logger *activity.Logger,
) *BoardHandler {
	return &BoardHandler{
		boards:     boards,
		lists:      lists,
		tasks:      tasks,
		activities: activities,
		resolver:   resolver,
		logger:     logger,
	}
}

type boardRequest struct {
	Name string `json:"name" binding:"required,min=1,max=120"`
	Type string `json:"type" binding:"omitempty,oneof=INDIVIDUAL GROUP"`
}

type listWithTasks struct {
	model.TaskList
	Tasks []model.Task `json:"tasks"`
}

type boardDetailResponse struct {
	*model.Board
	Lists []listWithTasks `json:"lists"`
}

// Create godoc
// @Summary Create a board
// @Tags boards
// @Accept json
// @Produce json
// @Param input body boardRequest true "Board data"
// @Success 201 {object} model.Board
// @Security BearerAuth
// @Router /boards [post]
func (h *BoardHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	boardType := req.Type
	if boardType == "" {
		boardType = model.BoardTypeIndividual
	}

	board := &model.Board{
		Name:        req.Name,
		Type:        boardType,
		CreatedByID: userID,
	}
	if err := h.boards.Create(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create board"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: board.ID,
		Action:  model.ActionCreateBoard,
		Details: board.Name,
		Payload: board,
	})

	c.JSON(http.StatusCreated, board)
}

// List returns the boards the user belongs to.
func (h *BoardHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	boards, err := h.boards.GetForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve boards"})
		return
	}

	c.JSON(http.StatusOK, boards)
}

// Get returns a board with its lists and tasks.
func (h *BoardHandler) Get(c *gin.Context) {
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

	lists, err := h.lists.GetByBoardID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve lists"})
		return
	}

	detail := boardDetailResponse{Board: board, Lists: make([]listWithTasks, len(lists))}
	for i, list := range lists {
		tasks, err := h.tasks.GetByListID(c.Request.Context(), list.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
			return
		}
		detail.Lists[i] = listWithTasks{TaskList: list, Tasks: tasks}
	}

	c.JSON(http.StatusOK, detail)
}

// Update renames a board. Requires the ADMIN role.
func (h *BoardHandler) Update(c *gin.Context) {
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

	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	board.Name = req.Name
	if err := h.boards.Update(c.Request.Context(), board); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update board"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: board.ID,
		Action:  model.ActionUpdateBoardName,
		Details: board.Name,
		Payload: board,
	})

	c.JSON(http.StatusOK, board)
}

// Delete removes a board and everything under it. Only the creator may
// delete a board; ADMIN is not enough.
func (h *BoardHandler) Delete(c *gin.Context) {
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

	if board.CreatedByID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the board creator can delete the board"})
		return
	}

	if err := h.boards.Delete(c.Request.Context(), boardID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Board deleted successfully"})
}

type reorderRequest struct {
	Order map[string]int `json:"order" binding:"required"`
}

// ReorderLists applies a new ordering to the board's lists.
func (h *BoardHandler) ReorderLists(c *gin.Context) {
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

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	order := make(map[uuid.UUID]int, len(req.Order))
	for idStr, position := range req.Order {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list ID format"})
			return
		}
		order[id] = position
	}

	if err := h.lists.Reorder(c.Request.Context(), boardID, order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder lists"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionReorderLists,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Lists reordered successfully"})
}

// Activity returns the board's audit trail, newest first.
func (h *BoardHandler) Activity(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit value"})
		return
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
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

	entries, err := h.activities.GetByBoardID(c.Request.Context(), boardID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve activity"})
		return
	}

	c.JSON(http.StatusOK, entries)
}
