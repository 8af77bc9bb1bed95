package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
)

type membershipStore interface {
	Add(ctx context.Context, userID, boardID uuid.UUID, role authz.Role) (*model.BoardMembership, error)
	ChangeRole(ctx context.Context, boardID, memberID uuid.UUID, newRole authz.Role) (*model.BoardMembership, error)
	Remove(ctx context.Context, boardID, memberID, requestedBy uuid.UUID) error
	TransferOwnership(ctx context.Context, boardID, newOwnerID uuid.UUID) error
	ListForBoard(ctx context.Context, boardID uuid.UUID) ([]model.BoardMembership, error)
}

type boardStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error)
}

type MemberHandler struct {
	memberships membershipStore
	boards      boardStore
	users       repository.UserRepositoryInterface
	resolver    *authz.Resolver
	logger      *activity.Logger
	notifier    *notify.Dispatcher
}

func NewMemberHandler(
	memberships membershipStore,
	boards boardStore,
	users repository.UserRepositoryInterface,
	resolver *authz.Resolver,
	logger *activity.Logger,
	notifier *notify.Dispatcher,
) *MemberHandler {
	return &MemberHandler{
		memberships: memberships,
		boards:      boards,
		users:       users,
		resolver:    resolver,
		logger:      logger,
		notifier:    notifier,
	}
}

// getBoard loads the board and answers 404/500 on failure.
func (h *MemberHandler) getBoard(c *gin.Context, boardID uuid.UUID) (*model.Board, bool) {
	board, err := h.boards.GetByID(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve board"})
		return nil, false
	}
	if board == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Board not found"})
		return nil, false
	}
	return board, true
}

// List returns the board's memberships with user details.
func (h *MemberHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, ok := h.getBoard(c, boardID); !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleViewer) {
		return
	}

	members, err := h.memberships.ListForBoard(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	c.JSON(http.StatusOK, members)
}

type addMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

// Add invites a user to the board by email. Requires the ADMIN role.
func (h *MemberHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	board, ok := h.getBoard(c, boardID)
	if !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleAdmin) {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	role, valid := authz.ParseRole(req.Role)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	invitee, err := h.users.FindByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		return
	}
	if invitee == nil || !invitee.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	membership, err := h.memberships.Add(c.Request.Context(), invitee.ID, boardID, role)
	if err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	actor, err := h.users.GetByID(c.Request.Context(), userID)
	actorName := "Someone"
	if err == nil && actor != nil {
		actorName = actor.Name
	}
	message := fmt.Sprintf("%s added you to the board \"%s\"", actorName, board.Name)
	// The invite already succeeded; a missed notification is not worth
	// failing the request over.
	if _, err := h.notifier.Notify(c.Request.Context(), invitee.ID, message, &boardID, nil, nil); err != nil {
		log.Printf("invite notification failed (user %s): %v", invitee.ID, err)
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionAddBoardMember,
		Details: fmt.Sprintf("%s as %s", invitee.Username, role),
		Payload: membership,
	})

	c.JSON(http.StatusCreated, membership)
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole updates a member's role. Requires the ADMIN role. The creator's
// role cannot change and the last admin cannot be demoted.
func (h *MemberHandler) ChangeRole(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	if _, ok := h.getBoard(c, boardID); !ok {
		return
	}
	if !requireRole(c, h.resolver, userID, boardID, authz.RoleAdmin) {
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	role, valid := authz.ParseRole(req.Role)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	membership, err := h.memberships.ChangeRole(c.Request.Context(), boardID, memberID, role)
	if err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change role"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionUpdateMemberRole,
		Details: string(role),
		Payload: membership,
	})

	c.JSON(http.StatusOK, membership)
}

// Remove deletes a membership. Admins can remove anyone but the creator;
// any member can remove themselves to leave the board.
func (h *MemberHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	memberID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	if _, ok := h.getBoard(c, boardID); !ok {
		return
	}

	if memberID != userID {
		if !requireRole(c, h.resolver, userID, boardID, authz.RoleAdmin) {
			return
		}
	}

	if err := h.memberships.Remove(c.Request.Context(), boardID, memberID, userID); err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionRemoveBoardMember,
		Details: memberID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

type transferOwnershipRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// TransferOwnership re-parents the board to another member and promotes
// them to ADMIN. Only the current creator may transfer.
func (h *MemberHandler) TransferOwnership(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	board, ok := h.getBoard(c, boardID)
	if !ok {
		return
	}

	if board.CreatedByID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the board creator can transfer ownership"})
		return
	}

	var req transferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	newOwnerID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.memberships.TransferOwnership(c.Request.Context(), boardID, newOwnerID); err != nil {
		if respondPolicyError(c, err) {
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transfer ownership"})
		return
	}

	h.logger.Record(activity.Entry{
		UserID:  &userID,
		BoardID: boardID,
		Action:  model.ActionTransferOwnership,
		Details: newOwnerID.String(),
	})

	c.JSON(http.StatusOK, gin.H{"message": "Ownership transferred successfully"})
}
