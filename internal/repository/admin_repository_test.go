package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-attendance-api/internal/models"
)

func TestAdminFindByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at", "updated_at"}).
		AddRow("a-1", "admin", "hash", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, created_at, updated_at FROM admins WHERE username = $1 LIMIT 1")).
		WithArgs("admin").
		WillReturnRows(rows)

	admin, err := repo.FindByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)
	assert.Equal(t, "hash", admin.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at", "updated_at"}).
		AddRow("a-1", "admin", "hash", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, created_at, updated_at FROM admins WHERE id = $1 LIMIT 1")).
		WithArgs("a-1").
		WillReturnRows(rows)

	admin, err := repo.FindByID(context.Background(), "a-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", admin.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminExistsByUsername(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM admins WHERE username = $1 LIMIT 1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	mock.ExpectExec("INSERT INTO admins").WillReturnResult(sqlmock.NewResult(0, 1))

	admin := &models.Admin{Username: "admin", PasswordHash: "hash"}
	err := repo.Create(context.Background(), admin)
	require.NoError(t, err)
	assert.NotEmpty(t, admin.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminUpdatePassword(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAdminRepository(db)

	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE admins SET password_hash = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("a-1", "newhash", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePassword(context.Background(), "a-1", "newhash", now)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
