package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"taskboard/internal/authz"
	"taskboard/internal/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	assert.NoError(t, err)

	return gormDB, mock
}

func membershipRows(id, userID, boardID uuid.UUID, role authz.Role) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "board_id", "role", "created_at"}).
		AddRow(id.String(), userID.String(), boardID.String(), string(role), time.Now())
}

func TestMembershipRepository_GetRole_Found(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	userID := uuid.New()
	boardID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "board_memberships" WHERE user_id = .+ AND board_id = .+`).
		WithArgs(userID, boardID, 1).
		WillReturnRows(membershipRows(uuid.New(), userID, boardID, authz.RoleEditor))

	role, found, err := repo.GetRole(context.Background(), userID, boardID)

	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, authz.RoleEditor, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_GetRole_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	userID := uuid.New()
	boardID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "board_memberships" WHERE user_id = .+ AND board_id = .+`).
		WithArgs(userID, boardID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	role, found, err := repo.GetRole(context.Background(), userID, boardID)

	// Absence is not an error.
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_GetRole_DBError(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "board_memberships"`).
		WillReturnError(assert.AnError)

	_, found, err := repo.GetRole(context.Background(), uuid.New(), uuid.New())

	assert.Error(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Add_AlreadyMember(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	userID := uuid.New()
	boardID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "board_memberships" WHERE user_id = .+ AND board_id = .+`).
		WithArgs(userID, boardID, 1).
		WillReturnRows(membershipRows(uuid.New(), userID, boardID, authz.RoleViewer))
	mock.ExpectRollback()

	_, err := repo.Add(context.Background(), userID, boardID, authz.RoleMember)

	assert.ErrorIs(t, err, repository.ErrAlreadyMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_ChangeRole_LastAdmin(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	boardID := uuid.New()
	memberID := uuid.New()
	creatorID := uuid.New() // not the member being demoted

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "board_memberships" WHERE user_id = .+ AND board_id = .+`).
		WithArgs(memberID, boardID, 1).
		WillReturnRows(membershipRows(uuid.New(), memberID, boardID, authz.RoleAdmin))
	mock.ExpectQuery(`SELECT "created_by_id" FROM "boards" WHERE id = .+`).
		WithArgs(boardID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"created_by_id"}).AddRow(creatorID.String()))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "board_memberships" WHERE board_id = .+ AND role = .+`).
		WithArgs(boardID, string(authz.RoleAdmin)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.ChangeRole(context.Background(), boardID, memberID, authz.RoleEditor)

	assert.ErrorIs(t, err, repository.ErrLastAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_ChangeRole_CreatorProtected(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	boardID := uuid.New()
	creatorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "board_memberships" WHERE user_id = .+ AND board_id = .+`).
		WithArgs(creatorID, boardID, 1).
		WillReturnRows(membershipRows(uuid.New(), creatorID, boardID, authz.RoleAdmin))
	mock.ExpectQuery(`SELECT "created_by_id" FROM "boards" WHERE id = .+`).
		WithArgs(boardID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"created_by_id"}).AddRow(creatorID.String()))
	mock.ExpectRollback()

	_, err := repo.ChangeRole(context.Background(), boardID, creatorID, authz.RoleViewer)

	assert.ErrorIs(t, err, repository.ErrCreatorProtected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_ChangeRole_NotMember(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	boardID := uuid.New()
	memberID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "board_memberships" WHERE user_id = .+ AND board_id = .+`).
		WithArgs(memberID, boardID, 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectRollback()

	_, err := repo.ChangeRole(context.Background(), boardID, memberID, authz.RoleEditor)

	assert.ErrorIs(t, err, repository.ErrNotMember)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMembershipRepository_Remove_LastAdminCannotLeave(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewMembershipRepository(gormDB)

	boardID := uuid.New()
	adminID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "board_memberships" WHERE user_id = .+ AND board_id = .+`).
		WithArgs(adminID, boardID, 1).
		WillReturnRows(membershipRows(uuid.New(), adminID, boardID, authz.RoleAdmin))
	mock.ExpectQuery(`SELECT "created_by_id" FROM "boards" WHERE id = .+`).
		WithArgs(boardID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"created_by_id"}).AddRow(uuid.NewString()))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "board_memberships" WHERE board_id = .+ AND role = .+`).
		WithArgs(boardID, string(authz.RoleAdmin)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.Remove(context.Background(), boardID, adminID, adminID)

	assert.ErrorIs(t, err, repository.ErrLastAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}
