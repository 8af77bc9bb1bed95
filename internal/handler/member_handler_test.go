package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"taskboard/internal/activity"
	"taskboard/internal/authz"
	"taskboard/internal/model"
	"taskboard/internal/notify"
	"taskboard/internal/repository"
)

type fakeMemberships struct {
	addResult    *model.BoardMembership
	addErr       error
	changeResult *model.BoardMembership
	changeErr    error
	removeErr    error
	transferErr  error
	removed      []uuid.UUID
}

func (f *fakeMemberships) Add(ctx context.Context, userID, boardID uuid.UUID, role authz.Role) (*model.BoardMembership, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	if f.addResult != nil {
		return f.addResult, nil
	}
	return &model.BoardMembership{UserID: userID, BoardID: boardID, Role: role}, nil
}

func (f *fakeMemberships) ChangeRole(ctx context.Context, boardID, memberID uuid.UUID, newRole authz.Role) (*model.BoardMembership, error) {
	if f.changeErr != nil {
		return nil, f.changeErr
	}
	if f.changeResult != nil {
		return f.changeResult, nil
	}
	return &model.BoardMembership{UserID: memberID, BoardID: boardID, Role: newRole}, nil
}

func (f *fakeMemberships) Remove(ctx context.Context, boardID, memberID, requestedBy uuid.UUID) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, memberID)
	return nil
}

func (f *fakeMemberships) TransferOwnership(ctx context.Context, boardID, newOwnerID uuid.UUID) error {
	return f.transferErr
}

func (f *fakeMemberships) ListForBoard(ctx context.Context, boardID uuid.UUID) ([]model.BoardMembership, error) {
	return nil, nil
}

type fakeBoards struct {
	board *model.Board
}

func (f *fakeBoards) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	return f.board, nil
}

// stubAccess backs the resolver with a fixed role table.
type stubAccess struct {
	creatorID uuid.UUID
	roles     map[uuid.UUID]authz.Role
}

func (s *stubAccess) GetRole(ctx context.Context, userID, boardID uuid.UUID) (authz.Role, bool, error) {
	role, ok := s.roles[userID]
	return role, ok, nil
}

func (s *stubAccess) IsCreator(ctx context.Context, userID, boardID uuid.UUID) (bool, error) {
	return userID == s.creatorID, nil
}

type nopActivityRepo struct{}

func (nopActivityRepo) Create(ctx context.Context, entry *model.ActivityLog) error { return nil }

type nopNotificationRepo struct{}

func (nopNotificationRepo) Create(ctx context.Context, n *model.Notification) error { return nil }

func (nopNotificationRepo) GetForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]model.Notification, error) {
	return nil, nil
}

func (nopNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (nopNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error { return nil }

type memberFixture struct {
	board       *model.Board
	creatorID   uuid.UUID
	memberships *fakeMemberships
	users       *MockUserRepository
	access      *stubAccess
	handler     *MemberHandler
}

func newMemberFixture() *memberFixture {
	creatorID := uuid.New()
	board := &model.Board{ID: uuid.New(), Name: "Roadmap", CreatedByID: creatorID}
	memberships := &fakeMemberships{}
	users := new(MockUserRepository)
	access := &stubAccess{creatorID: creatorID, roles: map[uuid.UUID]authz.Role{}}

	h := NewMemberHandler(
		memberships,
		&fakeBoards{board: board},
		users,
		authz.NewResolver(access, access),
		activity.NewLogger(nopActivityRepo{}, nil),
		notify.NewDispatcher(nopNotificationRepo{}, users, nil),
	)

	return &memberFixture{
		board:       board,
		creatorID:   creatorID,
		memberships: memberships,
		users:       users,
		access:      access,
		handler:     h,
	}
}

func (f *memberFixture) router(userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(authenticated(userID))
	router.POST("/boards/:id/members", f.handler.Add)
	router.PUT("/boards/:id/members/:user_id", f.handler.ChangeRole)
	router.DELETE("/boards/:id/members/:user_id", f.handler.Remove)
	router.POST("/boards/:id/transfer", f.handler.TransferOwnership)
	return router
}

func TestAddMember_Success(t *testing.T) {
	f := newMemberFixture()
	invitee := &model.User{ID: uuid.New(), Email: "invitee@example.com", Username: "invitee", IsActive: true}

	f.users.On("FindByEmail", mock.Anything, "invitee@example.com").Return(invitee, nil)
	f.users.On("GetByID", mock.Anything, f.creatorID).
		Return(&model.User{ID: f.creatorID, Name: "Creator"}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/boards/"+f.board.ID.String()+"/members", jsonBody(t, gin.H{
		"email": "invitee@example.com",
		"role":  "member",
	}))
	f.router(f.creatorID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "MEMBER")
}

func TestAddMember_NonAdminForbidden(t *testing.T) {
	f := newMemberFixture()
	editor := uuid.New()
	f.access.roles[editor] = authz.RoleEditor

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/boards/"+f.board.ID.String()+"/members", jsonBody(t, gin.H{
		"email": "invitee@example.com",
		"role":  "member",
	}))
	f.router(editor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAddMember_UnknownRole(t *testing.T) {
	f := newMemberFixture()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/boards/"+f.board.ID.String()+"/members", jsonBody(t, gin.H{
		"email": "invitee@example.com",
		"role":  "OVERLORD",
	}))
	f.router(f.creatorID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown role")
}

func TestChangeRole_LastAdmin(t *testing.T) {
	f := newMemberFixture()
	f.memberships.changeErr = repository.ErrLastAdmin

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/boards/"+f.board.ID.String()+"/members/"+uuid.NewString(), jsonBody(t, gin.H{
		"role": "VIEWER",
	}))
	f.router(f.creatorID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least one admin")
}

func TestChangeRole_CreatorProtected(t *testing.T) {
	f := newMemberFixture()
	f.memberships.changeErr = repository.ErrCreatorProtected

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/boards/"+f.board.ID.String()+"/members/"+f.creatorID.String(), jsonBody(t, gin.H{
		"role": "VIEWER",
	}))
	f.router(f.creatorID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "protected")
}

func TestRemoveMember_SelfLeaveAllowed(t *testing.T) {
	f := newMemberFixture()
	viewer := uuid.New()
	f.access.roles[viewer] = authz.RoleViewer

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/boards/"+f.board.ID.String()+"/members/"+viewer.String(), nil)
	f.router(viewer).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{viewer}, f.memberships.removed)
}

func TestRemoveMember_NonAdminCannotRemoveOthers(t *testing.T) {
	f := newMemberFixture()
	viewer := uuid.New()
	other := uuid.New()
	f.access.roles[viewer] = authz.RoleViewer
	f.access.roles[other] = authz.RoleViewer

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", "/boards/"+f.board.ID.String()+"/members/"+other.String(), nil)
	f.router(viewer).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.memberships.removed)
}

func TestTransferOwnership_NonCreatorForbidden(t *testing.T) {
	f := newMemberFixture()
	admin := uuid.New()
	f.access.roles[admin] = authz.RoleAdmin

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/boards/"+f.board.ID.String()+"/transfer", jsonBody(t, gin.H{
		"user_id": uuid.NewString(),
	}))
	f.router(admin).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Only the board creator")
}

func TestTransferOwnership_ByCreator(t *testing.T) {
	f := newMemberFixture()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/boards/"+f.board.ID.String()+"/transfer", jsonBody(t, gin.H{
		"user_id": uuid.NewString(),
	}))
	f.router(f.creatorID).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

type failingNotificationRepo struct{ nopNotificationRepo }

func (failingNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return errors.New("insert failed")
}

func TestAddMember_NotificationFailureDoesNotFailInvite(t *testing.T) {
	creatorID := uuid.New()
	board := &model.Board{ID: uuid.New(), Name: "Roadmap", CreatedByID: creatorID}
	users := new(MockUserRepository)
	access := &stubAccess{creatorID: creatorID, roles: map[uuid.UUID]authz.Role{}}

	h := NewMemberHandler(
		&fakeMemberships{},
		&fakeBoards{board: board},
		users,
		authz.NewResolver(access, access),
		activity.NewLogger(nopActivityRepo{}, nil),
		notify.NewDispatcher(failingNotificationRepo{}, users, nil),
	)

	invitee := &model.User{ID: uuid.New(), Email: "invitee@example.com", Username: "invitee", IsActive: true}
	users.On("FindByEmail", mock.Anything, "invitee@example.com").Return(invitee, nil)
	users.On("GetByID", mock.Anything, creatorID).
		Return(&model.User{ID: creatorID, Name: "Creator"}, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(authenticated(creatorID))
	router.POST("/boards/:id/members", h.Add)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/boards/"+board.ID.String()+"/members", jsonBody(t, gin.H{
		"email": "invitee@example.com",
		"role":  "member",
	}))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}
