package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

func userRows(id uuid.UUID, email, username, name string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "username", "name", "hashed_password", "role", "is_active", "created_at"}).
		AddRow(id.String(), email, username, name, "hashed_password", model.GlobalRoleUser, true, time.Now())
}

func TestUserRepository_Create(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewUserRepository(gormDB)

	userID := uuid.New()
	user := &model.User{
		ID:             userID,
		Email:          "test@example.com",
		Username:       "testuser",
		Name:           "Test User",
		HashedPassword: "hashed_password",
		Role:           model.GlobalRoleUser,
		IsActive:       true,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID.String()))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), user)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_Found(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewUserRepository(gormDB)

	userID := uuid.New()
	email := "test@example.com"

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = .+`).
		WithArgs(email, 1).
		WillReturnRows(userRows(userID, email, "testuser", "Test User"))

	user, err := repo.FindByEmail(context.Background(), email)

	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, email, user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewUserRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = .+`).
		WithArgs("nonexistent@example.com", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	user, err := repo.FindByEmail(context.Background(), "nonexistent@example.com")

	// Absence is reported as (nil, nil), not as an error.
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail_Error(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewUserRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = .+`).
		WillReturnError(assert.AnError)

	user, err := repo.FindByEmail(context.Background(), "test@example.com")

	assert.Error(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetRole_LastGlobalAdmin(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewUserRepository(gormDB)

	adminID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = .+`).
		WithArgs(adminID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "name", "hashed_password", "role", "is_active", "created_at"}).
			AddRow(adminID.String(), "admin@example.com", "admin", "Admin", "hash", model.GlobalRoleAdmin, true, time.Now()))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE role = .+ AND is_active = .+`).
		WithArgs(model.GlobalRoleAdmin, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.SetRole(context.Background(), adminID, model.GlobalRoleUser)

	assert.ErrorIs(t, err, repository.ErrLastGlobalAdmin)
	assert.NoError(t, mock.ExpectationsWereMet())
}
