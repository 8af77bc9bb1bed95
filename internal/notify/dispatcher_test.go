package notify_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taskboard/internal/model"
	"taskboard/internal/notify"
)

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]model.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if user := args.Get(0); user != nil {
		return user.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindActiveByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	args := m.Called(ctx, usernames)
	return args.Get(0).([]model.User), args.Error(1)
}

// fakePresence records emitted events for a configurable set of online users.
type fakePresence struct {
	online map[uuid.UUID]bool
	events []uuid.UUID
}

func (f *fakePresence) IsConnected(userID uuid.UUID) bool {
	return f.online[userID]
}

func (f *fakePresence) EmitToUser(userID uuid.UUID, event string, payload interface{}) {
	f.events = append(f.events, userID)
}

func TestNotify_PersistsThenEmits(t *testing.T) {
	notifications := new(MockNotificationRepository)
	users := new(MockUserRepository)
	recipient := uuid.New()
	presence := &fakePresence{online: map[uuid.UUID]bool{recipient: true}}
	d := notify.NewDispatcher(notifications, users, presence)

	notifications.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)

	n, err := d.Notify(context.Background(), recipient, "hello", nil, nil, nil)

	assert.NoError(t, err)
	assert.NotNil(t, n)
	assert.Equal(t, recipient, n.UserID)
	assert.Equal(t, []uuid.UUID{recipient}, presence.events)
	notifications.AssertExpectations(t)
}

func TestNotify_OfflineRecipientStillPersisted(t *testing.T) {
	notifications := new(MockNotificationRepository)
	users := new(MockUserRepository)
	recipient := uuid.New()
	presence := &fakePresence{online: map[uuid.UUID]bool{}}
	d := notify.NewDispatcher(notifications, users, presence)

	notifications.On("Create", mock.Anything, mock.AnythingOfType("*model.Notification")).Return(nil)

	n, err := d.Notify(context.Background(), recipient, "hello", nil, nil, nil)

	assert.NoError(t, err)
	assert.NotNil(t, n)
	assert.Empty(t, presence.events)
	notifications.AssertExpectations(t)
}

func TestNotify_PersistFailureSkipsEmit(t *testing.T) {
	notifications := new(MockNotificationRepository)
	users := new(MockUserRepository)
	recipient := uuid.New()
	presence := &fakePresence{online: map[uuid.UUID]bool{recipient: true}}
	d := notify.NewDispatcher(notifications, users, presence)

	notifications.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	n, err := d.Notify(context.Background(), recipient, "hello", nil, nil, nil)

	assert.Error(t, err)
	assert.Nil(t, n)
	assert.Empty(t, presence.events)
}

func TestNotify_EmptyMessageIsNoop(t *testing.T) {
	notifications := new(MockNotificationRepository)
	users := new(MockUserRepository)
	d := notify.NewDispatcher(notifications, users, &fakePresence{})

	n, err := d.Notify(context.Background(), uuid.New(), "", nil, nil, nil)

	assert.NoError(t, err)
	assert.Nil(t, n)
	notifications.AssertNotCalled(t, "Create")
}

func TestNotifyMentions_TwoMentions(t *testing.T) {
	notifications := new(MockNotificationRepository)
	users := new(MockUserRepository)
	d := notify.NewDispatcher(notifications, users, &fakePresence{})

	authorID := uuid.New()
	alice := model.User{ID: uuid.New(), Username: "alice", Name: "Alice"}
	bob := model.User{ID: uuid.New(), Username: "bob", Name: "Bob"}

	users.On("FindActiveByUsernames", mock.Anything, []string{"alice", "bob"}).
		Return([]model.User{alice, bob}, nil)
	users.On("GetByID", mock.Anything, authorID).
		Return(&model.User{ID: authorID, Name: "Carol"}, nil)
	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.Message == `Carol mentioned you: "hello @alice and @bob"`
	})).Return(nil).Twice()

	d.NotifyMentions(context.Background(), "hello @alice and @bob", authorID,
		`{authorName} mentioned you: "{preview}"`, nil, nil, nil)

	notifications.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestNotifyMentions_PreviewTruncatesOnRuneBoundary(t *testing.T) {
	notifications := new(MockNotificationRepository)
	users := new(MockUserRepository)
	d := notify.NewDispatcher(notifications, users, &fakePresence{})

	authorID := uuid.New()
	alice := model.User{ID: uuid.New(), Username: "alice", Name: "Alice"}

	// 7 + 60 runes of multi-byte text, well past the preview limit.
	text := "@alice " + strings.Repeat("é", 60)
	want := string([]rune(text)[:50]) + "..."

	users.On("FindActiveByUsernames", mock.Anything, []string{"alice"}).
		Return([]model.User{alice}, nil)
	users.On("GetByID", mock.Anything, authorID).
		Return(&model.User{ID: authorID, Name: "Carol"}, nil)
	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.Message == want && utf8.ValidString(n.Message)
	})).Return(nil).Once()

	d.NotifyMentions(context.Background(), text, authorID, "{preview}", nil, nil, nil)

	notifications.AssertExpectations(t)
}

func TestNotifyMentions_AuthorSkipped(t *testing.T) {
	notifications := new(MockNotificationRepository)
	users := new(MockUserRepository)
	d := notify.NewDispatcher(notifications, users, &fakePresence{})

	authorID := uuid.New()
	author := model.User{ID: authorID, Username: "carol", Name: "Carol"}

	users.On("FindActiveByUsernames", mock.Anything, []string{"carol"}).
		Return([]model.User{author}, nil)
	users.On("GetByID", mock.Anything, authorID).Return(&author, nil)

	d.NotifyMentions(context.Background(), "note to self @carol", authorID, "{preview}", nil, nil, nil)

	notifications.AssertNotCalled(t, "Create")
}

func TestNotifyMentions_NoMentions(t *testing.T) {
	notifications := new(MockNotificationRepository)
	users := new(MockUserRepository)
	d := notify.NewDispatcher(notifications, users, &fakePresence{})

	d.NotifyMentions(context.Background(), "no mentions here", uuid.New(), "{preview}", nil, nil, nil)

	users.AssertNotCalled(t, "FindActiveByUsernames")
	notifications.AssertNotCalled(t, "Create")
}

func TestExtractMentions(t *testing.T) {
	assert.Equal(t, []string{"alice", "bob"}, notify.ExtractMentions("hey @alice, ping @bob and @alice again"))
	assert.Nil(t, notify.ExtractMentions("plain text"))
	assert.Equal(t, []string{"under_score"}, notify.ExtractMentions("cc @under_score"))
}
