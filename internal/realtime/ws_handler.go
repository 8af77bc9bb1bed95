package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taskboard/internal/auth"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
)

// Handler upgrades HTTP connections and runs the per-connection event loop.
type Handler struct {
	hub       *Hub
	resolver  *authz.Resolver
	messages  *repository.MessageRepository
	dms       *repository.DirectMessageRepository
	notifier  *notify.Dispatcher
	jwtSecret string
}

func NewHandler(
	hub *Hub,
	resolver *authz.Resolver,
	messages *repository.MessageRepository,
	dms *repository.DirectMessageRepository,
	notifier *notify.Dispatcher,
	jwtSecret string,
) *Handler {
	return &Handler{
		hub:       hub,
		resolver:  resolver,
		messages:  messages,
		dms:       dms,
		notifier:  notifier,
		jwtSecret: jwtSecret,
	}
}

type clientEvent struct {
	Event      string `json:"event"`
	BoardID    string `json:"board_id,omitempty"`
	ReceiverID string `json:"receiver_id,omitempty"`
	Text       string `json:"text,omitempty"`
}

// Serve authenticates the client (token query parameter), upgrades the
// connection and processes client events until the socket closes.
func (h *Handler) Serve(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}
	userIDStr, err := auth.ParseTokenWithSecret(tokenStr, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // origin policy is the proxy's job
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(conn)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event clientEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			h.sendError(conn, "Malformed event")
			continue
		}

		ctx := c.Request.Context()
		switch event.Event {
		case "join_board":
			h.handleJoinBoard(ctx, conn, userID, event)
		case "send_message":
			h.handleBoardMessage(ctx, conn, userID, event)
		case "send_dm":
			h.handleDirectMessage(ctx, conn, userID, event)
		default:
			h.sendError(conn, "Unknown event")
		}
	}
}

// handleJoinBoard puts the connection into a board room after the role gate
// passes at VIEWER.
func (h *Handler) handleJoinBoard(ctx context.Context, conn Conn, userID uuid.UUID, event clientEvent) {
	boardID, err := uuid.Parse(event.BoardID)
	if err != nil {
		h.sendError(conn, "Invalid board ID format")
		return
	}
	allowed, err := h.resolver.Require(ctx, userID, boardID, authz.RoleViewer)
	if err != nil {
		h.sendError(conn, "Failed to check access")
		return
	}
	if !allowed {
		h.sendError(conn, "You don't have access to this board")
		return
	}
	h.hub.JoinBoard(conn, boardID)
}

// handleBoardMessage persists a chat message and broadcasts it to the board
// room. Persist and broadcast are serialized per board so receivers see the
// persisted order.
func (h *Handler) handleBoardMessage(ctx context.Context, conn Conn, userID uuid.UUID, event clientEvent) {
	boardID, err := uuid.Parse(event.BoardID)
	if err != nil || event.Text == "" {
		h.sendError(conn, "Missing message data")
		return
	}

	allowed, err := h.resolver.Require(ctx, userID, boardID, authz.RoleCommenter)
	if err != nil {
		h.sendError(conn, "Failed to check access")
		return
	}
	if !allowed {
		h.sendError(conn, "You don't have permission to send messages on this board")
		return
	}

	seq := h.hub.BoardSequence(boardID)
	seq.Lock()
	defer seq.Unlock()

	message := &model.Message{BoardID: boardID, AuthorID: userID, Text: event.Text}
	if err := h.messages.Create(ctx, message); err != nil {
		h.sendError(conn, "Failed to send message")
		return
	}
	h.hub.EmitToBoard(boardID, "receive_message", message)
}

// handleDirectMessage persists a DM and routes it to the recipient's room.
// An offline recipient gets a persisted notification instead of a live
// event; there is no waiting and no queue.
func (h *Handler) handleDirectMessage(ctx context.Context, conn Conn, userID uuid.UUID, event clientEvent) {
	receiverID, err := uuid.Parse(event.ReceiverID)
	if err != nil || event.Text == "" {
		h.sendError(conn, "Missing message data")
		return
	}
	if receiverID == userID {
		h.sendError(conn, "Cannot message yourself")
		return
	}

	dm := &model.DirectMessage{SenderID: userID, ReceiverID: receiverID, Text: event.Text}
	if err := h.dms.Create(ctx, dm); err != nil {
		h.sendError(conn, "Failed to send message")
		return
	}

	// Echo to the sender's own room so their other sessions stay in sync.
	h.hub.EmitToUser(userID, "receive_dm", dm)

	if h.hub.IsConnected(receiverID) {
		h.hub.EmitToUser(receiverID, "receive_dm", dm)
		return
	}
	if _, err := h.notifier.Notify(ctx, receiverID, dm.Sender.Name+" sent you a message.", nil, nil, nil); err != nil {
		log.Printf("dm fallback notification failed (user %s): %v", receiverID, err)
	}
}

// sendError goes through the hub so the connection's writer goroutine
// stays the only writer on the socket.
func (h *Handler) sendError(conn Conn, message string) {
	h.hub.EmitToConn(conn, "error", gin.H{"msg": message})
}
