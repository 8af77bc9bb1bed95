package activity

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/webhook"
)

// Entry describes one audit record. BoardID is mandatory; every log line
// belongs to a board.
type Entry struct {
	UserID    *uuid.UUID // nil for system events
	BoardID   uuid.UUID
	Action    string
	Details   string
	TaskID    *uuid.UUID
	ListID    *uuid.UUID
	CommentID *uuid.UUID
	Payload   interface{} // forwarded to webhooks, not stored
}

// Logger persists the activity trail and fans events out to board webhooks.
// Recording is best-effort: a failure here never fails the operation that
// triggered it.
type Logger struct {
	repo     repository.ActivityRepositoryInterface
	webhooks *webhook.Dispatcher
}

func NewLogger(repo repository.ActivityRepositoryInterface, webhooks *webhook.Dispatcher) *Logger {
	return &Logger{repo: repo, webhooks: webhooks}
}

// Record writes the entry and triggers subscribed webhooks. Errors are
// logged and swallowed. A zero BoardID makes the call a no-op.
func (l *Logger) Record(entry Entry) {
	if entry.BoardID == uuid.Nil {
		log.Printf("activity entry dropped: missing board id (action %s)", entry.Action)
		return
	}

	// Detached from the request context: the caller's response must not
	// depend on the audit write.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := &model.ActivityLog{
		UserID:     entry.UserID,
		BoardID:    entry.BoardID,
		ActionType: entry.Action,
		Details:    entry.Details,
		TaskID:     entry.TaskID,
		ListID:     entry.ListID,
		CommentID:  entry.CommentID,
	}
	if err := l.repo.Create(ctx, record); err != nil {
		log.Printf("activity logging failed (board %s, action %s): %v", entry.BoardID, entry.Action, err)
	}

	if l.webhooks != nil {
		payload := entry.Payload
		if payload == nil {
			payload = map[string]string{"details": entry.Details}
		}
		l.webhooks.Trigger(entry.BoardID, entry.Action, payload)
	}
}
