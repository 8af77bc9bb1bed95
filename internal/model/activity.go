package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity action types. These double as webhook event types.
const (
	ActionCreateBoard         = "CREATE_BOARD"
	ActionUpdateBoardName     = "UPDATE_BOARD_NAME"
	ActionAddBoardMember      = "ADD_BOARD_MEMBER"
	ActionRemoveBoardMember   = "REMOVE_BOARD_MEMBER"
	ActionUpdateMemberRole    = "UPDATE_MEMBER_ROLE"
	ActionTransferOwnership   = "TRANSFER_OWNERSHIP"
	ActionCreateList          = "CREATE_LIST"
	ActionUpdateList          = "UPDATE_LIST"
	ActionDeleteList          = "DELETE_LIST"
	ActionReorderLists        = "REORDER_LISTS"
	ActionCreateTask          = "CREATE_TASK"
	ActionUpdateTask          = "UPDATE_TASK"
	ActionDeleteTask          = "DELETE_TASK"
	ActionMoveTask            = "MOVE_TASK"
	ActionAssignTask          = "ASSIGN_TASK"
	ActionUnassignTask        = "UNASSIGN_TASK"
	ActionCreateComment       = "CREATE_COMMENT"
	ActionDeleteComment       = "DELETE_COMMENT"
	ActionAddAttachment       = "ADD_ATTACHMENT"
	ActionDeleteAttachment    = "DELETE_ATTACHMENT"
	ActionCreateTag           = "CREATE_TAG"
	ActionDeleteTag           = "DELETE_TAG"
	ActionAddChecklistItem    = "ADD_CHECKLIST_ITEM"
	ActionUpdateChecklistItem = "UPDATE_CHECKLIST_ITEM"
	ActionDeleteChecklistItem = "DELETE_CHECKLIST_ITEM"
	ActionStartTimer          = "START_TIMER"
	ActionStopTimer           = "STOP_TIMER"
	ActionAddTimeEntry        = "ADD_TIME_ENTRY"
)

type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid" json:"user_id,omitempty"` // nil for system events
	BoardID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"board_id"`
	ActionType string     `gorm:"not null" json:"action_type"`
	Details    string     `json:"details,omitempty"`
	TaskID     *uuid.UUID `gorm:"type:uuid" json:"task_id,omitempty"`
	ListID     *uuid.UUID `gorm:"type:uuid" json:"list_id,omitempty"`
	CommentID  *uuid.UUID `gorm:"type:uuid" json:"comment_id,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`

	User  *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Board Board `gorm:"foreignKey:BoardID;constraint:OnDelete:CASCADE" json:"-"`
}
