package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskboard/internal/authz"
	"taskboard/internal/middleware"
	"taskboard/internal/repository"
)

// currentUserID pulls the authenticated user from the gin context. When it
// returns false a response has already been written.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return userID, true
}

// parseIDParam parses a uuid path parameter, answering 400 on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return uuid.Nil, false
	}
	return id, true
}

// requireRole gates the request on the user's effective board role. When it
// returns false a 403 or 500 has already been written.
func requireRole(c *gin.Context, resolver *authz.Resolver, userID, boardID uuid.UUID, required authz.Role) bool {
	allowed, err := resolver.Require(c.Request.Context(), userID, boardID, required)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to access this board"})
		return false
	}
	return true
}

// respondPolicyError translates repository sentinel errors into HTTP
// responses. Returns false when err is not a policy error, leaving the
// caller to handle it.
func respondPolicyError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, repository.ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this board"})
	case errors.Is(err, repository.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "User is not a member of this board"})
	case errors.Is(err, repository.ErrLastAdmin):
		c.JSON(http.StatusBadRequest, gin.H{"error": "A board must keep at least one admin"})
	case errors.Is(err, repository.ErrLastGlobalAdmin):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The last active administrator cannot be removed or demoted"})
	case errors.Is(err, repository.ErrCreatorProtected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "The board creator's membership is protected"})
	case errors.Is(err, repository.ErrTimerRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "A timer is already running for this user"})
	default:
		return false
	}
	return true
}
