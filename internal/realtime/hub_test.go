package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	writeErr error
	closed   bool
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) messageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) lastEvent(t *testing.T) Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		t.Fatal("no messages written")
	}
	var env Envelope
	assert.NoError(t, json.Unmarshal(c.messages[len(c.messages)-1], &env))
	return env
}

// stalledConn blocks every write until release is closed, like a peer
// that stopped reading.
type stalledConn struct {
	release chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func newStalledConn() *stalledConn {
	return &stalledConn{release: make(chan struct{}), closed: make(chan struct{})}
}

func (c *stalledConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-c.release:
		return errors.New("connection gone")
	case <-c.closed:
		return errors.New("closed")
	}
}

func (c *stalledConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// waitFor polls until the condition holds; writes are delivered by a
// per-connection goroutine, so delivery is asynchronous.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	assert.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func TestHub_RegisterAndIsConnected(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	assert.False(t, hub.IsConnected(userID))

	conn := &fakeConn{}
	hub.Register(userID, conn)
	assert.True(t, hub.IsConnected(userID))

	hub.Unregister(conn)
	assert.False(t, hub.IsConnected(userID))
	waitFor(t, conn.isClosed)
}

func TestHub_EmitToUser(t *testing.T) {
	hub := NewHub()
	alice := uuid.New()
	bob := uuid.New()

	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}
	hub.Register(alice, aliceConn)
	hub.Register(bob, bobConn)

	hub.EmitToUser(alice, "new_notification", map[string]string{"message": "hi"})

	waitFor(t, func() bool { return aliceConn.messageCount() == 1 })
	assert.Zero(t, bobConn.messageCount())
	assert.Equal(t, "new_notification", aliceConn.lastEvent(t).Event)
}

func TestHub_EmitToUser_OfflineIsNoop(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.EmitToUser(uuid.New(), "new_notification", nil)
	})
}

func TestHub_EmitToBoard(t *testing.T) {
	hub := NewHub()
	boardID := uuid.New()

	member := &fakeConn{}
	outsider := &fakeConn{}
	hub.Register(uuid.New(), member)
	hub.Register(uuid.New(), outsider)
	hub.JoinBoard(member, boardID)

	hub.EmitToBoard(boardID, "new_message", map[string]string{"text": "hello"})

	waitFor(t, func() bool { return member.messageCount() == 1 })
	assert.Zero(t, outsider.messageCount())
	assert.Equal(t, "new_message", member.lastEvent(t).Event)
}

func TestHub_EmitToConn(t *testing.T) {
	hub := NewHub()

	conn := &fakeConn{}
	other := &fakeConn{}
	hub.Register(uuid.New(), conn)
	hub.Register(uuid.New(), other)

	hub.EmitToConn(conn, "error", map[string]string{"msg": "nope"})

	waitFor(t, func() bool { return conn.messageCount() == 1 })
	assert.Zero(t, other.messageCount())
	assert.Equal(t, "error", conn.lastEvent(t).Event)
}

func TestHub_JoinBoard_UnregisteredConnIgnored(t *testing.T) {
	hub := NewHub()
	boardID := uuid.New()

	conn := &fakeConn{}
	hub.JoinBoard(conn, boardID)

	hub.EmitToBoard(boardID, "new_message", nil)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, conn.messageCount())
}

func TestHub_FailedWriteDropsConnection(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	broken := &fakeConn{writeErr: errors.New("broken pipe")}
	hub.Register(userID, broken)

	hub.EmitToUser(userID, "new_notification", nil)

	waitFor(t, broken.isClosed)
	assert.False(t, hub.IsConnected(userID))
}

// A connection whose peer stopped reading must not stall the hub: other
// users' presence checks and emits keep working while its writer
// goroutine is stuck.
func TestHub_StalledConnectionDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	stalledUser := uuid.New()
	alice := uuid.New()

	stalled := newStalledConn()
	aliceConn := &fakeConn{}
	hub.Register(stalledUser, stalled)
	hub.Register(alice, aliceConn)

	// Park the stalled connection's writer inside WriteMessage.
	hub.EmitToUser(stalledUser, "new_notification", nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.True(t, hub.IsConnected(alice))
		hub.EmitToUser(alice, "new_notification", nil)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("hub blocked behind a stalled connection")
	}
	waitFor(t, func() bool { return aliceConn.messageCount() == 1 })

	close(stalled.release)
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	stalled := newStalledConn()
	hub.Register(userID, stalled)

	// One message parks the writer, sendBuffer more fill the queue, the
	// next overflows and drops the connection.
	for i := 0; i < sendBuffer+2; i++ {
		hub.EmitToUser(userID, "new_notification", nil)
	}

	assert.False(t, hub.IsConnected(userID))
	close(stalled.release)
}

func TestHub_UnregisterLeavesBoardRooms(t *testing.T) {
	hub := NewHub()
	boardID := uuid.New()

	leaving := &fakeConn{}
	staying := &fakeConn{}
	hub.Register(uuid.New(), leaving)
	hub.Register(uuid.New(), staying)
	hub.JoinBoard(leaving, boardID)
	hub.JoinBoard(staying, boardID)

	hub.Unregister(leaving)
	hub.EmitToBoard(boardID, "new_message", nil)

	waitFor(t, func() bool { return staying.messageCount() == 1 })
	assert.Zero(t, leaving.messageCount())
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	first := &fakeConn{}
	second := &fakeConn{}
	hub.Register(userID, first)
	hub.Register(userID, second)

	hub.EmitToUser(userID, "new_notification", nil)
	waitFor(t, func() bool {
		return first.messageCount() == 1 && second.messageCount() == 1
	})

	hub.Unregister(first)
	assert.True(t, hub.IsConnected(userID))
}

func TestHub_BoardSequenceIsStablePerBoard(t *testing.T) {
	hub := NewHub()
	boardID := uuid.New()

	assert.Same(t, hub.BoardSequence(boardID), hub.BoardSequence(boardID))
	assert.NotSame(t, hub.BoardSequence(boardID), hub.BoardSequence(uuid.New()))
}
