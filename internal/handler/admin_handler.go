package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// AdminHandler serves the global administration surface. Routes using it
// sit behind the AdminOnly middleware.
type AdminHandler struct {
	users   *repository.UserRepository
	boards  *repository.BoardRepository
	tickets *repository.SupportRepository
	stats   *repository.StatsRepository
}

func NewAdminHandler(
	users *repository.UserRepository,
	boards *repository.BoardRepository,
	tickets *repository.SupportRepository,
	stats *repository.StatsRepository,
) *AdminHandler {
	return &AdminHandler{users: users, boards: boards, tickets: tickets, stats: stats}
}

// ListUsers returns every registered user.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=USER ADMIN"`
}

// SetUserRole promotes or demotes a user's global role. Demoting the last
// active administrator is rejected.
func (h *AdminHandler) SetUserRole(c *gin.Context) {
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, err := h.users.SetRole(c.Request.Context(), targetID, req.Role)
	if err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	c.JSON(http.StatusOK, user)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetUserActive activates or deactivates an account. Deactivating the last
// active administrator is rejected.
func (h *AdminHandler) SetUserActive(c *gin.Context) {
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	user, err := h.users.SetActive(c.Request.Context(), targetID, *req.IsActive)
	if err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account and its memberships. The last active
// administrator cannot be deleted.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if targetID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), targetID); err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// DeleteBoard removes any board, bypassing the creator-only rule.
func (h *AdminHandler) DeleteBoard(c *gin.Context) {
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

	if err := h.boards.Delete(c.Request.Context(), boardID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete board"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Board deleted successfully"})
}

// Stats returns the system overview counters.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Collect(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListTickets returns every support ticket, optionally filtered by
// ?status=.
func (h *AdminHandler) ListTickets(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !model.ValidTicketStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown ticket status"})
		return
	}

	tickets, err := h.tickets.ListTickets(c.Request.Context(), uuid.Nil, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tickets"})
		return
	}
	c.JSON(http.StatusOK, tickets)
}

type updateTicketRequest struct {
	Status     *string `json:"status" binding:"omitempty,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
	AssigneeID *string `json:"assignee_id" binding:"omitempty,uuid"`
}

// UpdateTicket changes a ticket's status or assigns a support agent.
func (h *AdminHandler) UpdateTicket(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ticket, err := h.tickets.GetTicketByID(c.Request.Context(), ticketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ticket"})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}

	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if req.Status != nil {
		ticket.Status = *req.Status
	}
	if req.AssigneeID != nil {
		assigneeID, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee ID format"})
			return
		}
		ticket.AssigneeID = &assigneeID
	}

	if err := h.tickets.UpdateTicket(c.Request.Context(), ticket); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update ticket"})
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// DeleteTicket removes a ticket and its comments.
func (h *AdminHandler) DeleteTicket(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ticket, err := h.tickets.GetTicketByID(c.Request.Context(), ticketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve ticket"})
		return
	}
	if ticket == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}

	if err := h.tickets.DeleteTicket(c.Request.Context(), ticketID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete ticket"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ticket deleted successfully"})
}
