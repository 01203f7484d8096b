package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-attendance-api/internal/models"
	"github.com/noah-isme/student-attendance-api/internal/repository"
	"github.com/noah-isme/student-attendance-api/internal/service"
)

type ledgerRepoStub struct {
	student *models.Student
}

func (s *ledgerRepoStub) FindByStudentID(ctx context.Context, studentID string) (*models.Student, error) {
	if s.student == nil || s.student.StudentID != studentID {
		return nil, sql.ErrNoRows
	}
	return s.student, nil
}

func (s *ledgerRepoStub) AppendSession(ctx context.Context, student *models.Student, session *models.Session) error {
	session.StudentRef = student.ID
	return nil
}

func (s *ledgerRepoStub) CloseSession(ctx context.Context, studentRef, sessionID string, logoutTime int64, totalTime float64) (bool, error) {
	return true, nil
}

func (s *ledgerRepoStub) Replace(ctx context.Context, student *models.Student, sessions []models.Session) error {
	return nil
}

func newAttendanceHandler(repo *ledgerRepoStub) *AttendanceHandler {
	cache := repository.NewCacheRepository(nil, zap.NewNop())
	ledger := service.NewLedgerService(repo, cache, validator.New(), zap.NewNop())
	return NewAttendanceHandler(ledger)
}

func TestAttendanceHandlerLogin(t *testing.T) {
	student := &models.Student{ID: "db-1", StudentID: "s-100", StudentName: "Ada Lovelace", Classes: []string{"math"}}
	handler := newAttendanceHandler(&ledgerRepoStub{student: student})

	w, envelope := postJSON(t, handler.Login, "/api/login", service.SessionLoginRequest{StudentID: "s-100", ClassName: "math"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "s-100", data["studentId"])
	assert.Equal(t, "math", data["lastClass"])
	timestamps, ok := data["loginTimestamps"].([]interface{})
	require.True(t, ok)
	assert.Len(t, timestamps, 1)
}

func TestAttendanceHandlerLoginUnknownStudent(t *testing.T) {
	handler := newAttendanceHandler(&ledgerRepoStub{})

	w, envelope := postJSON(t, handler.Login, "/api/login", service.SessionLoginRequest{StudentID: "ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestAttendanceHandlerLogoutWithoutSession(t *testing.T) {
	student := &models.Student{ID: "db-1", StudentID: "s-100", StudentName: "Ada Lovelace"}
	handler := newAttendanceHandler(&ledgerRepoStub{student: student})

	w, envelope := postJSON(t, handler.Logout, "/api/logout", service.SessionLogoutRequest{StudentID: "s-100"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "SESSION_NOT_FOUND", envelope.Error.Code)
}

func TestAttendanceHandlerLogout(t *testing.T) {
	sessionID := "sess-1"
	student := &models.Student{
		ID:            "db-1",
		StudentID:     "s-100",
		StudentName:   "Ada Lovelace",
		LastLogin:     1_000,
		OpenSessionID: &sessionID,
		Sessions:      []models.Session{{ID: sessionID, StudentRef: "db-1", ClassName: "math", LoginTime: 1_000, LogoutTime: 1_000}},
	}
	handler := newAttendanceHandler(&ledgerRepoStub{student: student})

	w, envelope := postJSON(t, handler.Logout, "/api/logout", service.SessionLogoutRequest{StudentID: "s-100"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, envelope.Success)

	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotZero(t, data["lastLogout"])
}
