package authz

import (
	"context"

	"github.com/google/uuid"
)

// RoleSource looks up the stored membership role for a (user, board) pair.
// The bool is false when no membership exists; that is not an error.
type RoleSource interface {
	GetRole(ctx context.Context, userID, boardID uuid.UUID) (Role, bool, error)
}

// CreatorSource reports whether a user is the creator of a board.
type CreatorSource interface {
	IsCreator(ctx context.Context, userID, boardID uuid.UUID) (bool, error)
}

// Resolver answers "what may this user do on this board". Board creators
// always resolve to ADMIN regardless of their membership row.
type Resolver struct {
	roles    RoleSource
	creators CreatorSource
}

func NewResolver(roles RoleSource, creators CreatorSource) *Resolver {
	return &Resolver{roles: roles, creators: creators}
}

// Resolve returns the user's effective role on the board. The bool is false
// when the user has no access at all (no membership and not the creator).
func (r *Resolver) Resolve(ctx context.Context, userID, boardID uuid.UUID) (Role, bool, error) {
	isCreator, err := r.creators.IsCreator(ctx, userID, boardID)
	if err != nil {
		return "", false, err
	}
	if isCreator {
		return RoleAdmin, true, nil
	}
	return r.roles.GetRole(ctx, userID, boardID)
}

// Require resolves the user's effective role and gates it against required.
// A user with no membership is denied for any required role.
func (r *Resolver) Require(ctx context.Context, userID, boardID uuid.UUID, required Role) (bool, error) {
	role, ok, err := r.Resolve(ctx, userID, boardID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return IsAuthorized(required, role), nil
}
