package notify

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

const previewLength = 50

// Presence is the realtime capability the dispatcher needs: who is online,
// and a best-effort way to push an event at them.
type Presence interface {
	IsConnected(userID uuid.UUID) bool
	EmitToUser(userID uuid.UUID, event string, payload interface{})
}

// Dispatcher creates persisted notifications and relays them live when the
// recipient has an active session. Persistence always happens first; the
// live push is opportunistic.
type Dispatcher struct {
	notifications repository.NotificationRepositoryInterface
	users         repository.UserRepositoryInterface
	presence      Presence
}

func NewDispatcher(
	notifications repository.NotificationRepositoryInterface,
	users repository.UserRepositoryInterface,
	presence Presence,
) *Dispatcher {
	return &Dispatcher{notifications: notifications, users: users, presence: presence}
}

// Notify persists a notification for the recipient and pushes it to their
// room if they are connected. The returned record is the persisted row.
func (d *Dispatcher) Notify(ctx context.Context, recipientID uuid.UUID, message string, boardID, taskID, commentID *uuid.UUID) (*model.Notification, error) {
	if recipientID == uuid.Nil || message == "" {
		return nil, nil
	}

	notification := &model.Notification{
		UserID:    recipientID,
		Message:   message,
		BoardID:   boardID,
		TaskID:    taskID,
		CommentID: commentID,
	}
	if err := d.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}

	if d.presence != nil && d.presence.IsConnected(recipientID) {
		d.presence.EmitToUser(recipientID, "new_notification", notification)
	}
	return notification, nil
}

// NotifyMentions scans text for @username tokens, resolves them to active
// users other than the author, and dispatches one notification per resolved
// mention. Unresolvable mentions are dropped silently. The template may
// contain {authorName} and {preview} placeholders.
func (d *Dispatcher) NotifyMentions(ctx context.Context, text string, authorID uuid.UUID, template string, boardID, taskID, commentID *uuid.UUID) {
	usernames := ExtractMentions(text)
	if len(usernames) == 0 {
		return
	}

	mentioned, err := d.users.FindActiveByUsernames(ctx, usernames)
	if err != nil {
		log.Printf("mention lookup failed: %v", err)
		return
	}

	authorName := "Someone"
	if author, err := d.users.GetByID(ctx, authorID); err == nil && author != nil {
		authorName = author.Name
	}

	preview := text
	if runes := []rune(preview); len(runes) > previewLength {
		// Cut on a rune boundary so multi-byte text stays valid UTF-8.
		preview = string(runes[:previewLength]) + "..."
	}
	message := strings.NewReplacer(
		"{authorName}", authorName,
		"{preview}", preview,
	).Replace(template)

	for _, user := range mentioned {
		if user.ID == authorID {
			continue
		}
		if _, err := d.Notify(ctx, user.ID, message, boardID, taskID, commentID); err != nil {
			log.Printf("mention notification failed (user %s): %v", user.ID, err)
		}
	}
}

// ExtractMentions returns the unique @username tokens in text, in order of
// first appearance.
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	usernames := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			usernames = append(usernames, m[1])
		}
	}
	return usernames
}
