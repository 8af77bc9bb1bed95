package repository

import "errors"

// Common repository errors.
var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyMember is returned when adding a user who already holds a
	// membership on the board.
	ErrAlreadyMember = errors.New("user is already a board member")

	// ErrNotMember is returned when the target (user, board) pair has no
	// membership row.
	ErrNotMember = errors.New("user is not a board member")

	// ErrLastAdmin rejects a removal or demotion that would leave a board
	// with zero ADMIN members.
	ErrLastAdmin = errors.New("board must retain at least one admin")

	// ErrLastGlobalAdmin rejects demoting or deactivating the only active
	// global admin.
	ErrLastGlobalAdmin = errors.New("system must retain at least one active admin")

	// ErrCreatorProtected rejects demoting or removing the board creator
	// outside of an ownership transfer.
	ErrCreatorProtected = errors.New("board creator cannot be demoted or removed")

	// ErrTimerRunning is returned when starting a timer while another one
	// is still open for the same user.
	ErrTimerRunning = errors.New("a timer is already running")
)
