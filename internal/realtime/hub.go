package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBuffer is how many pending messages a connection may queue before
// the hub considers it a slow consumer and drops it.
const sendBuffer = 64

// writeTimeout bounds a single socket write so a dead peer cannot pin
// its writer goroutine forever.
const writeTimeout = 10 * time.Second

// Conn is the subset of *websocket.Conn the hub needs. Tests substitute
// an in-memory fake.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Envelope is the wire format for every server-to-client event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type session struct {
	userID uuid.UUID
	boards map[uuid.UUID]bool
	send   chan []byte
}

// Hub tracks live websocket connections and fans events out to user and
// board rooms. Each connection gets a buffered send channel drained by
// its own writer goroutine, so emit paths only ever enqueue and never
// touch the socket while holding the hub lock. A connection whose
// buffer fills up is dropped rather than allowed to stall the hub.
type Hub struct {
	mu         sync.Mutex
	sessions   map[Conn]*session
	userRooms  map[uuid.UUID]map[Conn]bool
	boardRooms map[uuid.UUID]map[Conn]bool
	boardSeq   map[uuid.UUID]*sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[Conn]*session),
		userRooms:  make(map[uuid.UUID]map[Conn]bool),
		boardRooms: make(map[uuid.UUID]map[Conn]bool),
		boardSeq:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// Register adds a connection to its owner's user room and starts the
// writer goroutine that drains its send channel.
func (h *Hub) Register(userID uuid.UUID, conn Conn) {
	sess := &session{
		userID: userID,
		boards: make(map[uuid.UUID]bool),
		send:   make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.sessions[conn] = sess
	if h.userRooms[userID] == nil {
		h.userRooms[userID] = make(map[Conn]bool)
	}
	h.userRooms[userID][conn] = true
	h.mu.Unlock()

	go h.writeLoop(conn, sess.send)
}

// writeLoop is the only goroutine that writes to conn. It stops when
// the send channel is closed (connection dropped) or a write fails.
func (h *Hub) writeLoop(conn Conn, send <-chan []byte) {
	for message := range send {
		if d, ok := conn.(interface{ SetWriteDeadline(t time.Time) error }); ok {
			d.SetWriteDeadline(time.Now().Add(writeTimeout))
		}
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("websocket write failed: %v", err)
			break
		}
	}
	h.Unregister(conn)
	conn.Close()
}

// Unregister removes the connection from every room. Safe to call more
// than once; the writer goroutine and the read loop both end up here.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(conn)
}

func (h *Hub) dropLocked(conn Conn) {
	sess, ok := h.sessions[conn]
	if !ok {
		return
	}
	delete(h.sessions, conn)

	if room := h.userRooms[sess.userID]; room != nil {
		delete(room, conn)
		if len(room) == 0 {
			delete(h.userRooms, sess.userID)
		}
	}
	for boardID := range sess.boards {
		if room := h.boardRooms[boardID]; room != nil {
			delete(room, conn)
			if len(room) == 0 {
				delete(h.boardRooms, boardID)
			}
		}
	}
	close(sess.send)
}

// JoinBoard puts a registered connection into a board room.
func (h *Hub) JoinBoard(conn Conn, boardID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.sessions[conn]
	if !ok {
		return
	}
	sess.boards[boardID] = true
	if h.boardRooms[boardID] == nil {
		h.boardRooms[boardID] = make(map[Conn]bool)
	}
	h.boardRooms[boardID][conn] = true
}

// IsConnected reports whether the user has at least one live connection.
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.userRooms[userID]) > 0
}

// EmitToUser sends an event to every connection the user has open.
func (h *Hub) EmitToUser(userID uuid.UUID, event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitLocked(h.userRooms[userID], event, payload)
}

// EmitToBoard sends an event to every connection joined to the board.
func (h *Hub) EmitToBoard(boardID uuid.UUID, event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitLocked(h.boardRooms[boardID], event, payload)
}

// EmitToConn sends an event to a single connection through its writer
// goroutine, so callers never race other writes to the same socket.
func (h *Hub) EmitToConn(conn Conn, event string, payload interface{}) {
	message, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("failed to encode %s event: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[conn]; ok {
		h.enqueueLocked(conn, message)
	}
}

func (h *Hub) emitLocked(room map[Conn]bool, event string, payload interface{}) {
	if len(room) == 0 {
		return
	}
	message, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("failed to encode %s event: %v", event, err)
		return
	}
	for conn := range room {
		h.enqueueLocked(conn, message)
	}
}

// enqueueLocked hands the message to the connection's writer goroutine.
// A full buffer means the peer is not keeping up; drop it.
func (h *Hub) enqueueLocked(conn Conn, message []byte) {
	sess := h.sessions[conn]
	if sess == nil {
		return
	}
	select {
	case sess.send <- message:
	default:
		log.Printf("websocket send buffer full, dropping connection (user %s)", sess.userID)
		h.dropLocked(conn)
	}
}

// BoardSequence returns the mutex that serializes message persistence
// and broadcast for a board, so receive order matches stored order.
func (h *Hub) BoardSequence(boardID uuid.UUID) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()

	seq, ok := h.boardSeq[boardID]
	if !ok {
		seq = &sync.Mutex{}
		h.boardSeq[boardID] = seq
	}
	return seq
}
