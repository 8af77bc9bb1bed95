package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type SupportHandler struct {
	tickets *repository.SupportRepository
	users   repository.UserRepositoryInterface
}

func NewSupportHandler(tickets *repository.SupportRepository, users repository.UserRepositoryInterface) *SupportHandler {
	return &SupportHandler{tickets: tickets, users: users}
}

// canAccessTicket allows the ticket owner and global admins.
func (h *SupportHandler) canAccessTicket(c *gin.Context, userID uuid.UUID, ticket *model.SupportTicket) (bool, bool) {
	if ticket.UserID == userID {
		return true, true
	}
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return false, false
	}
	return user != nil && user.IsGlobalAdmin(), true
}

type ticketRequest struct {
	Subject     string `json:"subject" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"required,min=3"`
}

// Create opens a support ticket.
func (h *SupportHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ticketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	ticket := &model.SupportTicket{
		UserID:      userID,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      model.TicketOpen,
	}
	if err := h.tickets.CreateTicket(c.Request.Context(), ticket); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket"})
		return
	}

	c.JSON(http.StatusCreated, ticket)
}

// ListMine returns the caller's tickets, optionally filtered by ?status=.
func (h *SupportHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status := c.Query("status")
	if status != "" && !model.ValidTicketStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown ticket status"})
		return
	}

	tickets, err := h.tickets.ListTickets(c.Request.Context(), userID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tickets"})
		return
	}

	c.JSON(http.StatusOK, tickets)
}

type ticketDetailResponse struct {
	*model.SupportTicket
	Comments []model.SupportComment `json:"comments"`
}

// Get returns a ticket with its comment thread.
func (h *SupportHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
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

	allowed, ok := h.canAccessTicket(c, userID, ticket)
	if !ok {
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this ticket"})
		return
	}

	comments, err := h.tickets.GetComments(c.Request.Context(), ticketID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve comments"})
		return
	}

	c.JSON(http.StatusOK, ticketDetailResponse{SupportTicket: ticket, Comments: comments})
}

type ticketCommentRequest struct {
	Text string `json:"text" binding:"required,min=1"`
}

// AddComment posts to the ticket thread. Available to the ticket owner and
// to support staff. Closed tickets cannot take comments.
func (h *SupportHandler) AddComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
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

	allowed, ok := h.canAccessTicket(c, userID, ticket)
	if !ok {
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have access to this ticket"})
		return
	}
	if ticket.Status == model.TicketClosed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ticket is closed"})
		return
	}

	var req ticketCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	comment := &model.SupportComment{
		TicketID: ticketID,
		AuthorID: userID,
		Text:     req.Text,
	}
	if err := h.tickets.AddComment(c.Request.Context(), comment); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}
